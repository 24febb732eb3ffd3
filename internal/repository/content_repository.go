package repository

import (
	"context"

	"learning_aid_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ContentRepository reads the study catalogue. Rows are written only by the importer.
type ContentRepository struct {
	DB *gorm.DB
}

func NewContentRepository(db *gorm.DB) *ContentRepository {
	return &ContentRepository{DB: db}
}

// ListVocabulary filters by level and, when category is non-empty, by category
// name or slug.
func (r *ContentRepository) ListVocabulary(ctx context.Context, level model.Level, category string) ([]model.VocabularyItem, error) {
	var items []model.VocabularyItem
	query := r.DB.WithContext(ctx).Where("level = ?", level)
	if category != "" {
		query = query.Where("(category = ? OR category_slug = ?)", category, category)
	}
	err := query.Order("created_at DESC").Find(&items).Error
	return items, err
}

func (r *ContentRepository) ListGrammar(ctx context.Context, level model.Level) ([]model.GrammarPoint, error) {
	var points []model.GrammarPoint
	err := r.DB.WithContext(ctx).
		Where("level = ?", level).
		Order("created_at DESC").
		Find(&points).Error
	return points, err
}

func (r *ContentRepository) ListKaiwa(ctx context.Context, level model.Level) ([]model.KaiwaScenario, error) {
	var scenarios []model.KaiwaScenario
	err := r.DB.WithContext(ctx).
		Where("level = ?", level).
		Order("created_at DESC").
		Find(&scenarios).Error
	return scenarios, err
}

func (r *ContentRepository) FindVocabulary(ctx context.Context, id string) (*model.VocabularyItem, error) {
	var item model.VocabularyItem
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *ContentRepository) FindGrammar(ctx context.Context, id string) (*model.GrammarPoint, error) {
	var point model.GrammarPoint
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&point).Error; err != nil {
		return nil, err
	}
	return &point, nil
}

func (r *ContentRepository) FindKaiwa(ctx context.Context, id string) (*model.KaiwaScenario, error) {
	var scenario model.KaiwaScenario
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&scenario).Error; err != nil {
		return nil, err
	}
	return &scenario, nil
}

func (r *ContentRepository) UpsertVocabulary(ctx context.Context, items []model.VocabularyItem) error {
	return upsert(ctx, r.DB, items, []string{
		"japanese", "hiragana", "burmese", "english", "level",
		"category", "category_slug", "example_sentence", "example_burmese",
	})
}

func (r *ContentRepository) UpsertGrammar(ctx context.Context, points []model.GrammarPoint) error {
	return upsert(ctx, r.DB, points, []string{
		"pattern", "meaning", "burmese_explanation", "english_explanation", "level", "examples",
	})
}

func (r *ContentRepository) UpsertKaiwa(ctx context.Context, scenarios []model.KaiwaScenario) error {
	return upsert(ctx, r.DB, scenarios, []string{
		"title", "title_burmese", "level", "situation", "dialogue", "key_phrases",
	})
}

// upsert keeps created_at of existing rows so list ordering survives re-imports.
func upsert[T any](ctx context.Context, db *gorm.DB, rows []T, columns []string) error {
	if len(rows) == 0 {
		return nil
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).CreateInBatches(rows, 100).Error
}
