package service

import (
	"context"
	"errors"
	"time"

	"learning_aid_backend/internal/model"
	"learning_aid_backend/pkg/logger"
	"learning_aid_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ProgressStore interface {
	Apply(ctx context.Context, userID string, itemType model.ItemType, itemID string,
		mutate func(existing *model.ProgressRecord) *model.ProgressRecord) (*model.ProgressRecord, error)
	ListByUser(ctx context.Context, userID string) ([]model.ProgressRecord, error)
}

type ProgressService struct {
	Store ProgressStore
	Now   func() time.Time
}

func NewProgressService(store ProgressStore) *ProgressService {
	return &ProgressService{Store: store, Now: time.Now}
}

// RecordStudy notes that the session's user studied an item. Logged-out
// sessions are ignored. Storage failures are logged and swallowed; the
// returned record is nil whenever nothing was written.
func (s *ProgressService) RecordStudy(ctx context.Context, sess *Session, itemType model.ItemType, itemID string) *model.ProgressRecord {
	if sess == nil {
		monitoring.StudyRecordCounter.WithLabelValues(string(itemType), "skipped").Inc()
		return nil
	}

	var outcome string
	mutate := func(existing *model.ProgressRecord) *model.ProgressRecord {
		now := s.Now()
		if existing == nil {
			outcome = "created"
			return model.NewProgressRecord(sess.UserID, itemType, itemID, now)
		}
		outcome = "reviewed"
		existing.Review(now)
		return existing
	}

	rec, err := s.Store.Apply(ctx, sess.UserID, itemType, itemID, mutate)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// a concurrent first study inserted the row; the second pass reviews it
		rec, err = s.Store.Apply(ctx, sess.UserID, itemType, itemID, mutate)
	}
	if err != nil {
		monitoring.StudyRecordCounter.WithLabelValues(string(itemType), "failed").Inc()
		logger.Log.Warn("Failed to record study progress",
			zap.String("user_id", sess.UserID),
			zap.String("item_type", string(itemType)),
			zap.String("item_id", itemID),
			zap.Error(err),
		)
		return nil
	}

	monitoring.StudyRecordCounter.WithLabelValues(string(itemType), outcome).Inc()
	return rec
}

func (s *ProgressService) ListProgress(ctx context.Context, sess *Session) ([]model.ProgressRecord, error) {
	if sess == nil {
		return []model.ProgressRecord{}, nil
	}
	records, err := s.Store.ListByUser(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []model.ProgressRecord{}
	}
	return records, nil
}
