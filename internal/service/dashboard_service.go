package service

import (
	"context"

	"learning_aid_backend/internal/model"
	"learning_aid_backend/pkg/logger"

	"go.uber.org/zap"
)

type Dashboard struct {
	Profile *model.Profile      `json:"profile"`
	Stats   model.ProgressStats `json:"stats"`
}

type DashboardService struct {
	Users    UserStore
	Progress ProgressStore
}

func NewDashboardService(users UserStore, progress ProgressStore) *DashboardService {
	return &DashboardService{Users: users, Progress: progress}
}

// ComputeStats counts records per item type and sums their review counts.
func ComputeStats(records []model.ProgressRecord) model.ProgressStats {
	var stats model.ProgressStats
	for _, r := range records {
		switch r.ItemType {
		case model.ItemVocabulary:
			stats.Vocabulary++
		case model.ItemGrammar:
			stats.Grammar++
		case model.ItemKaiwa:
			stats.Kaiwa++
		}
		stats.TotalReviews += r.ReviewCount
	}
	return stats
}

// GetDashboard never fails: a missing profile or unreadable progress degrades
// to an empty section.
func (s *DashboardService) GetDashboard(ctx context.Context, sess *Session) *Dashboard {
	dashboard := &Dashboard{}
	if sess == nil {
		return dashboard
	}

	if user, err := s.Users.FindByID(ctx, sess.UserID); err != nil {
		logger.Log.Warn("Failed to load profile", zap.String("user_id", sess.UserID), zap.Error(err))
	} else {
		dashboard.Profile = user.Profile()
	}

	records, err := s.Progress.ListByUser(ctx, sess.UserID)
	if err != nil {
		logger.Log.Warn("Failed to load progress", zap.String("user_id", sess.UserID), zap.Error(err))
		return dashboard
	}
	dashboard.Stats = ComputeStats(records)
	return dashboard
}
