package repository

import (
	"context"
	"slices"

	"learning_aid_backend/internal/model"

	"gorm.io/gorm"
)

type ChatRepository struct {
	DB *gorm.DB
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{DB: db}
}

func (r *ChatRepository) Append(ctx context.Context, msg *model.ChatMessage) error {
	return r.DB.WithContext(ctx).Create(msg).Error
}

// RecentHistory returns the user's latest limit messages, oldest first.
// Rows sharing a timestamp keep the question ahead of its reply.
func (r *ChatRepository) RecentHistory(ctx context.Context, userID string, limit int) ([]model.ChatMessage, error) {
	var messages []model.ChatMessage
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, role ASC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	slices.Reverse(messages)
	return messages, nil
}
