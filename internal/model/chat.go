package model

import (
	"strings"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Language selects the template set used for companion replies.
type Language string

const (
	LanguageBurmese  Language = "burmese"
	LanguageJapanese Language = "japanese"
	LanguageEnglish  Language = "english"
)

func (l Language) Valid() bool {
	switch l {
	case LanguageBurmese, LanguageJapanese, LanguageEnglish:
		return true
	}
	return false
}

// ParseLanguage normalises s. Empty input yields fallback; anything
// unrecognised is answered in English.
func ParseLanguage(s string, fallback Language) Language {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return fallback
	}
	if l := Language(s); l.Valid() {
		return l
	}
	return LanguageEnglish
}

// swagger:model ChatMessage
type ChatMessage struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID    string    `gorm:"type:varchar(36);not null;index:idx_chat_user_created,priority:1" json:"userId"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	Role      Role      `gorm:"type:varchar(10);not null" json:"role"`
	Language  Language  `gorm:"type:varchar(10);not null" json:"language"`
	CreatedAt time.Time `gorm:"index:idx_chat_user_created,priority:2" json:"createdAt"`
}

func (ChatMessage) TableName() string {
	return "ai_chat_history"
}

func NewChatMessage(userID, text string, role Role, lang Language, now time.Time) ChatMessage {
	return ChatMessage{
		ID:        GenerateUUID(),
		UserID:    userID,
		Message:   text,
		Role:      role,
		Language:  lang,
		CreatedAt: now,
	}
}
