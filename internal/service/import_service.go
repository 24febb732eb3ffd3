package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"learning_aid_backend/internal/model"
	"learning_aid_backend/internal/util"
	"learning_aid_backend/pkg/logger"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// VocabularySheet is the worksheet read from .xlsx bundles. Columns:
// japanese, hiragana, burmese, english, level, category, example_sentence, example_burmese.
const VocabularySheet = "vocabulary"

// Bundle is one importable file of study content.
type Bundle struct {
	Vocabulary     []model.VocabularyItem `yaml:"vocabulary" json:"vocabulary"`
	GrammarPoints  []model.GrammarPoint   `yaml:"grammar_points" json:"grammarPoints"`
	KaiwaScenarios []model.KaiwaScenario  `yaml:"kaiwa_scenarios" json:"kaiwaScenarios"`
}

type ImportResult struct {
	Source         string   `json:"source"`
	TotalProcessed int      `json:"totalProcessed"`
	Imported       int      `json:"imported"`
	Skipped        int      `json:"skipped"`
	Errors         []string `json:"errors,omitempty"`
}

func (r *ImportResult) skip(format string, args ...interface{}) {
	r.Skipped++
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

type ContentWriter interface {
	UpsertVocabulary(ctx context.Context, items []model.VocabularyItem) error
	UpsertGrammar(ctx context.Context, points []model.GrammarPoint) error
	UpsertKaiwa(ctx context.Context, scenarios []model.KaiwaScenario) error
}

type CacheFlusher interface {
	FlushCache(ctx context.Context) error
}

type ImportService struct {
	Storage StorageProvider
	Writer  ContentWriter
	Cache   CacheFlusher
}

func NewImportService(storage StorageProvider, writer ContentWriter, cache CacheFlusher) *ImportService {
	return &ImportService{Storage: storage, Writer: writer, Cache: cache}
}

// ParseBundle decodes a bundle; the format follows the file extension.
func ParseBundle(name string, r io.Reader) (*Bundle, error) {
	var bundle Bundle
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".yaml", ".yml":
		if err := yaml.NewDecoder(r).Decode(&bundle); err != nil && err != io.EOF {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
	case ".json":
		if err := json.NewDecoder(r).Decode(&bundle); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
	case ".xlsx":
		items, err := parseVocabularySheet(r)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		bundle.Vocabulary = items
	default:
		return nil, fmt.Errorf("%w: %s", util.ErrUnsupportedSource, ext)
	}
	return &bundle, nil
}

func parseVocabularySheet(r io.Reader) ([]model.VocabularyItem, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := f.GetRows(VocabularySheet)
	if err != nil {
		return nil, err
	}

	var items []model.VocabularyItem
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		cell := func(idx int) string {
			if idx < len(row) {
				return strings.TrimSpace(row[idx])
			}
			return ""
		}
		if cell(0) == "" && cell(1) == "" {
			continue
		}
		item := model.VocabularyItem{
			Japanese: cell(0),
			Hiragana: cell(1),
			Burmese:  cell(2),
			English:  cell(3),
			Level:    model.Level(cell(4)),
			Category: cell(5),
		}
		if s := cell(6); s != "" {
			item.ExampleSentence = &s
		}
		if s := cell(7); s != "" {
			item.ExampleBurmese = &s
		}
		items = append(items, item)
	}
	return items, nil
}

func normalizeLevel(l model.Level) model.Level {
	return model.Level(strings.ToUpper(strings.TrimSpace(string(l))))
}

// prepare validates rows, fills deterministic ids and drops duplicates so a
// batch never touches the same row twice.
func prepare[T any](rows []T, kind string, result *ImportResult, key func(*T) (*model.UUIDBase, []string)) []T {
	seen := make(map[string]bool, len(rows))
	out := make([]T, 0, len(rows))
	for i := range rows {
		result.TotalProcessed++
		row := &rows[i]
		base, natural := key(row)
		if err := validateContent(row); err != nil {
			result.skip("%s #%d: %v", kind, i+1, err)
			continue
		}
		if base.ID == "" {
			base.ID = model.StableID(kind, natural...)
		}
		if seen[base.ID] {
			result.skip("%s #%d: duplicate of an earlier entry", kind, i+1)
			continue
		}
		seen[base.ID] = true
		out = append(out, *row)
	}
	return out
}

// Apply validates and upserts a parsed bundle.
func (s *ImportService) Apply(ctx context.Context, source string, bundle *Bundle) (*ImportResult, error) {
	result := &ImportResult{Source: source}

	vocabulary := prepare(bundle.Vocabulary, "vocabulary", result, func(v *model.VocabularyItem) (*model.UUIDBase, []string) {
		v.Level = normalizeLevel(v.Level)
		return &v.UUIDBase, []string{string(v.Level), v.Japanese, v.Hiragana}
	})
	grammar := prepare(bundle.GrammarPoints, "grammar", result, func(g *model.GrammarPoint) (*model.UUIDBase, []string) {
		g.Level = normalizeLevel(g.Level)
		return &g.UUIDBase, []string{string(g.Level), g.Pattern}
	})
	kaiwa := prepare(bundle.KaiwaScenarios, "kaiwa", result, func(k *model.KaiwaScenario) (*model.UUIDBase, []string) {
		k.Level = normalizeLevel(k.Level)
		return &k.UUIDBase, []string{string(k.Level), k.Title}
	})

	if err := s.Writer.UpsertVocabulary(ctx, vocabulary); err != nil {
		return result, fmt.Errorf("store vocabulary: %w", err)
	}
	if err := s.Writer.UpsertGrammar(ctx, grammar); err != nil {
		return result, fmt.Errorf("store grammar points: %w", err)
	}
	if err := s.Writer.UpsertKaiwa(ctx, kaiwa); err != nil {
		return result, fmt.Errorf("store kaiwa scenarios: %w", err)
	}
	result.Imported = len(vocabulary) + len(grammar) + len(kaiwa)

	if s.Cache != nil {
		if err := s.Cache.FlushCache(ctx); err != nil {
			logger.Log.Warn("Failed to flush content cache", zap.Error(err))
		}
	}

	logger.Log.Info("Content imported",
		zap.String("source", source),
		zap.Int("processed", result.TotalProcessed),
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

// Import reads one bundle from the configured storage and applies it.
func (s *ImportService) Import(ctx context.Context, name string) (*ImportResult, error) {
	rc, err := s.Storage.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	bundle, err := ParseBundle(name, rc)
	if err != nil {
		return nil, err
	}
	return s.Apply(ctx, name, bundle)
}

// ImportAll imports every bundle under prefix. It stops at the first bundle
// that cannot be stored.
func (s *ImportService) ImportAll(ctx context.Context, prefix string) ([]*ImportResult, error) {
	names, err := s.Storage.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	results := make([]*ImportResult, 0, len(names))
	for _, name := range names {
		res, err := s.Import(ctx, name)
		if err != nil {
			return results, fmt.Errorf("%s: %w", name, err)
		}
		results = append(results, res)
	}
	return results, nil
}
