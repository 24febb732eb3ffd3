package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"learning_aid_backend/internal/model"
	"learning_aid_backend/internal/util"
	"learning_aid_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	contentCachePrefix = "content:"
	// CategoryAll disables the vocabulary category filter.
	CategoryAll = "all"
)

type ContentStore interface {
	ListVocabulary(ctx context.Context, level model.Level, category string) ([]model.VocabularyItem, error)
	ListGrammar(ctx context.Context, level model.Level) ([]model.GrammarPoint, error)
	ListKaiwa(ctx context.Context, level model.Level) ([]model.KaiwaScenario, error)
	FindVocabulary(ctx context.Context, id string) (*model.VocabularyItem, error)
	FindGrammar(ctx context.Context, id string) (*model.GrammarPoint, error)
	FindKaiwa(ctx context.Context, id string) (*model.KaiwaScenario, error)
}

type VocabularyView struct {
	Items      []model.VocabularyItem `json:"items"`
	Categories []model.CategoryOption `json:"categories"`
}

type ContentService struct {
	Store    ContentStore
	Redis    *redis.Client
	CacheTTL time.Duration
}

func NewContentService(store ContentStore, rdb *redis.Client, cacheTTL time.Duration) *ContentService {
	return &ContentService{Store: store, Redis: rdb, CacheTTL: cacheTTL}
}

// DeriveCategories lists the distinct categories of items in first-seen order.
func DeriveCategories(items []model.VocabularyItem) []model.CategoryOption {
	seen := make(map[string]bool)
	categories := make([]model.CategoryOption, 0)
	for _, item := range items {
		if item.Category == "" || seen[item.Category] {
			continue
		}
		seen[item.Category] = true
		categories = append(categories, model.CategoryOption{Name: item.Category, Slug: slug.Make(item.Category)})
	}
	return categories
}

// keepValid drops rows whose nested structure fails validation so one bad row
// cannot break a whole list.
func keepValid[T any](items []T, kind string) []T {
	valid := make([]T, 0, len(items))
	for i := range items {
		if err := validateContent(&items[i]); err != nil {
			logger.Log.Warn("Skipping malformed content row", zap.String("kind", kind), zap.Error(err))
			continue
		}
		valid = append(valid, items[i])
	}
	return valid
}

// ListVocabulary returns the words of a level, optionally narrowed to one
// category. Failures yield an empty view.
func (s *ContentService) ListVocabulary(ctx context.Context, level model.Level, category string) *VocabularyView {
	category = strings.TrimSpace(category)
	if strings.EqualFold(category, CategoryAll) {
		category = ""
	}

	key := fmt.Sprintf("%svocabulary:%s:%s", contentCachePrefix, level, category)
	var view VocabularyView
	if s.cacheGet(ctx, key, &view) {
		return &view
	}

	items, err := s.Store.ListVocabulary(ctx, level, category)
	if err != nil {
		logger.Log.Warn("Failed to list vocabulary", zap.String("level", string(level)), zap.Error(err))
		return &VocabularyView{Items: []model.VocabularyItem{}, Categories: []model.CategoryOption{}}
	}
	items = keepValid(items, "vocabulary")
	view = VocabularyView{Items: items, Categories: DeriveCategories(items)}
	s.cacheSet(ctx, key, &view)
	return &view
}

func (s *ContentService) ListGrammar(ctx context.Context, level model.Level) []model.GrammarPoint {
	key := fmt.Sprintf("%sgrammar:%s", contentCachePrefix, level)
	var points []model.GrammarPoint
	if s.cacheGet(ctx, key, &points) {
		return points
	}

	points, err := s.Store.ListGrammar(ctx, level)
	if err != nil {
		logger.Log.Warn("Failed to list grammar points", zap.String("level", string(level)), zap.Error(err))
		return []model.GrammarPoint{}
	}
	points = keepValid(points, "grammar")
	s.cacheSet(ctx, key, points)
	return points
}

func (s *ContentService) ListKaiwa(ctx context.Context, level model.Level) []model.KaiwaScenario {
	key := fmt.Sprintf("%skaiwa:%s", contentCachePrefix, level)
	var scenarios []model.KaiwaScenario
	if s.cacheGet(ctx, key, &scenarios) {
		return scenarios
	}

	scenarios, err := s.Store.ListKaiwa(ctx, level)
	if err != nil {
		logger.Log.Warn("Failed to list kaiwa scenarios", zap.String("level", string(level)), zap.Error(err))
		return []model.KaiwaScenario{}
	}
	scenarios = keepValid(scenarios, "kaiwa")
	s.cacheSet(ctx, key, scenarios)
	return scenarios
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrNotFound
	}
	return err
}

// checkItem hides a stored row whose shape fails validation, the same rule
// the list views apply.
func checkItem(kind, id string, row interface{}) error {
	if err := validateContent(row); err != nil {
		logger.Log.Warn("Hiding malformed content row",
			zap.String("kind", kind),
			zap.String("id", id),
			zap.Error(err),
		)
		return util.ErrNotFound
	}
	return nil
}

func (s *ContentService) GetVocabulary(ctx context.Context, id string) (*model.VocabularyItem, error) {
	item, err := s.Store.FindVocabulary(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if err := checkItem("vocabulary", id, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *ContentService) GetGrammar(ctx context.Context, id string) (*model.GrammarPoint, error) {
	point, err := s.Store.FindGrammar(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if err := checkItem("grammar", id, point); err != nil {
		return nil, err
	}
	return point, nil
}

func (s *ContentService) GetKaiwa(ctx context.Context, id string) (*model.KaiwaScenario, error) {
	scenario, err := s.Store.FindKaiwa(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if err := checkItem("kaiwa", id, scenario); err != nil {
		return nil, err
	}
	return scenario, nil
}

func (s *ContentService) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.Redis == nil {
		return false
	}
	raw, err := s.Redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Log.Debug("Content cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

func (s *ContentService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.Redis == nil || s.CacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.Redis.Set(ctx, key, raw, s.CacheTTL).Err(); err != nil {
		logger.Log.Debug("Content cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// FlushCache drops every cached content list. Called after imports.
func (s *ContentService) FlushCache(ctx context.Context) error {
	if s.Redis == nil {
		return nil
	}
	var cursor uint64
	for {
		keys, next, err := s.Redis.Scan(ctx, cursor, contentCachePrefix+"*", 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := s.Redis.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
