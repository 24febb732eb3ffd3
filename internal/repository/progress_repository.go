package repository

import (
	"context"
	"errors"

	"learning_aid_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

// Apply loads the (user, item type, item id) record under a row lock, passes it
// to mutate (nil when absent) and persists what mutate returns, all in one
// transaction. Two first-time writers racing on the same key surface as
// gorm.ErrDuplicatedKey from the unique index.
func (r *ProgressRepository) Apply(
	ctx context.Context,
	userID string,
	itemType model.ItemType,
	itemID string,
	mutate func(existing *model.ProgressRecord) *model.ProgressRecord,
) (*model.ProgressRecord, error) {
	var result *model.ProgressRecord

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.ProgressRecord
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND item_type = ? AND item_id = ?", userID, itemType, itemID).
			First(&existing).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			result = mutate(nil)
			return tx.Create(result).Error
		case err != nil:
			return err
		default:
			result = mutate(&existing)
			return tx.Save(result).Error
		}
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *ProgressRepository) ListByUser(ctx context.Context, userID string) ([]model.ProgressRecord, error) {
	var records []model.ProgressRecord
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&records).Error
	return records, err
}
