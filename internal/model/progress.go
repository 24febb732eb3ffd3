package model

import (
	"fmt"
	"time"
)

type ItemType string

const (
	ItemVocabulary ItemType = "vocabulary"
	ItemGrammar    ItemType = "grammar"
	ItemKaiwa      ItemType = "kaiwa"
)

// MaxMasteryLevel caps ProgressRecord.MasteryLevel.
const MaxMasteryLevel = 5

func ParseItemType(s string) (ItemType, error) {
	switch t := ItemType(s); t {
	case ItemVocabulary, ItemGrammar, ItemKaiwa:
		return t, nil
	}
	return "", fmt.Errorf("unknown item type %q", s)
}

// TracksMastery reports whether reviews of this item type raise the mastery level.
// Only kaiwa scenarios do; vocabulary and grammar stay at level 1.
func (t ItemType) TracksMastery() bool {
	return t == ItemKaiwa
}

// swagger:model ProgressRecord
type ProgressRecord struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID       string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_progress_user_item,priority:1" json:"userId"`
	ItemType     ItemType  `gorm:"type:varchar(20);not null;uniqueIndex:idx_progress_user_item,priority:2" json:"itemType"`
	ItemID       string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_progress_user_item,priority:3" json:"itemId"`
	MasteryLevel int       `gorm:"not null;default:1" json:"masteryLevel"`
	ReviewCount  int       `gorm:"not null;default:1" json:"reviewCount"`
	LastReviewed time.Time `json:"lastReviewed"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (ProgressRecord) TableName() string {
	return "user_progress"
}

// NewProgressRecord is the record written on a user's first study of an item.
func NewProgressRecord(userID string, itemType ItemType, itemID string, now time.Time) *ProgressRecord {
	return &ProgressRecord{
		ID:           GenerateUUID(),
		UserID:       userID,
		ItemType:     itemType,
		ItemID:       itemID,
		MasteryLevel: 1,
		ReviewCount:  1,
		LastReviewed: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Review applies one more study session to an existing record.
func (p *ProgressRecord) Review(now time.Time) {
	p.ReviewCount++
	p.LastReviewed = now
	p.UpdatedAt = now
	if p.ItemType.TracksMastery() {
		p.MasteryLevel = min(p.MasteryLevel+1, MaxMasteryLevel)
	}
}

// ProgressStats summarises a user's records for the dashboard.
type ProgressStats struct {
	Vocabulary   int `json:"vocabulary"`
	Grammar      int `json:"grammar"`
	Kaiwa        int `json:"kaiwa"`
	TotalReviews int `json:"totalReviews"`
}
