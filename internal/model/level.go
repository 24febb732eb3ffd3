package model

import (
	"fmt"
	"strings"
)

// Level is a JLPT proficiency level. N1 is the most advanced.
type Level string

const (
	LevelN3 Level = "N3"
	LevelN2 Level = "N2"
	LevelN1 Level = "N1"
)

const DefaultLevel = LevelN3

// Levels lists the supported levels from easiest to hardest.
var Levels = []Level{LevelN3, LevelN2, LevelN1}

func (l Level) Valid() bool {
	return l.Rank() > 0
}

// Rank orders levels: N3=1, N2=2, N1=3, unknown=0.
func (l Level) Rank() int {
	for i, lv := range Levels {
		if lv == l {
			return i + 1
		}
	}
	return 0
}

// ParseLevel accepts "n2", " N2 " and so on. An empty string yields DefaultLevel.
func ParseLevel(s string) (Level, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return DefaultLevel, nil
	}
	l := Level(s)
	if !l.Valid() {
		return "", fmt.Errorf("unknown level %q (want N3, N2 or N1)", s)
	}
	return l, nil
}
