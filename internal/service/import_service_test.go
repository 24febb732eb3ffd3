package service

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"learning_aid_backend/internal/model"
	"learning_aid_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const sampleBundle = `
vocabulary:
  - japanese: 会議
    hiragana: かいぎ
    burmese: အစည်းအဝေး
    english: meeting
    level: n3
    category: Business
    example_sentence: 明日会議があります。
  - japanese: 会議
    hiragana: かいぎ
    burmese: အစည်းအဝေး
    english: meeting (duplicate)
    level: N3
    category: Business
  - japanese: 切符
    hiragana: きっぷ
    english: ticket
    level: N3
    category: Travel
grammar_points:
  - pattern: 〜ように
    meaning: so that
    burmese_explanation: ရန်
    level: N3
    examples:
      - japanese: 忘れないようにメモする
        burmese: မမေ့အောင် မှတ်ထားတယ်
kaiwa_scenarios:
  - title: At the station
    title_burmese: ဘူတာရုံမှာ
    level: N2
    situation: Buying a ticket
    dialogue:
      - speaker: A
        japanese: 切符をください
        burmese: လက်မှတ် ပေးပါ
    key_phrases:
      - japanese: ください
        burmese: ပေးပါ
`

type memContentWriter struct {
	vocabulary map[string]model.VocabularyItem
	grammar    map[string]model.GrammarPoint
	kaiwa      map[string]model.KaiwaScenario
	flushes    int
	err        error
}

func newMemContentWriter() *memContentWriter {
	return &memContentWriter{
		vocabulary: make(map[string]model.VocabularyItem),
		grammar:    make(map[string]model.GrammarPoint),
		kaiwa:      make(map[string]model.KaiwaScenario),
	}
}

func (w *memContentWriter) UpsertVocabulary(ctx context.Context, items []model.VocabularyItem) error {
	if w.err != nil {
		return w.err
	}
	for _, v := range items {
		w.vocabulary[v.ID] = v
	}
	return nil
}

func (w *memContentWriter) UpsertGrammar(ctx context.Context, points []model.GrammarPoint) error {
	for _, g := range points {
		w.grammar[g.ID] = g
	}
	return nil
}

func (w *memContentWriter) UpsertKaiwa(ctx context.Context, scenarios []model.KaiwaScenario) error {
	for _, k := range scenarios {
		w.kaiwa[k.ID] = k
	}
	return nil
}

func (w *memContentWriter) FlushCache(ctx context.Context) error {
	w.flushes++
	return nil
}

func TestParseBundle_YAML(t *testing.T) {
	bundle, err := ParseBundle("n3.yaml", strings.NewReader(sampleBundle))
	require.NoError(t, err)

	require.Len(t, bundle.Vocabulary, 3)
	assert.Equal(t, "会議", bundle.Vocabulary[0].Japanese)
	require.NotNil(t, bundle.Vocabulary[0].ExampleSentence)
	assert.Equal(t, "明日会議があります。", *bundle.Vocabulary[0].ExampleSentence)
	require.Len(t, bundle.GrammarPoints, 1)
	assert.Len(t, bundle.GrammarPoints[0].Examples, 1)
	require.Len(t, bundle.KaiwaScenarios, 1)
	assert.Equal(t, "A", bundle.KaiwaScenarios[0].Dialogue[0].Speaker)
	assert.Len(t, bundle.KaiwaScenarios[0].KeyPhrases, 1)
}

func TestParseBundle_Formats(t *testing.T) {
	t.Run("empty yaml", func(t *testing.T) {
		bundle, err := ParseBundle("empty.yml", strings.NewReader(""))
		require.NoError(t, err)
		assert.Empty(t, bundle.Vocabulary)
	})

	t.Run("json", func(t *testing.T) {
		bundle, err := ParseBundle("n2.json", strings.NewReader(
			`{"grammarPoints":[{"pattern":"〜わけではない","meaning":"it is not that","burmeseExplanation":"မဟုတ်ပါ","level":"N2","examples":[]}]}`))
		require.NoError(t, err)
		require.Len(t, bundle.GrammarPoints, 1)
		assert.Equal(t, model.LevelN2, bundle.GrammarPoints[0].Level)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := ParseBundle("notes.txt", strings.NewReader("x"))
		assert.ErrorIs(t, err, util.ErrUnsupportedSource)
	})

	t.Run("broken yaml", func(t *testing.T) {
		_, err := ParseBundle("bad.yaml", strings.NewReader("vocabulary: [unclosed"))
		assert.Error(t, err)
	})
}

func TestParseBundle_XLSX(t *testing.T) {
	f := excelize.NewFile()
	_, err := f.NewSheet(VocabularySheet)
	require.NoError(t, err)
	rows := [][]interface{}{
		{"japanese", "hiragana", "burmese", "english", "level", "category", "example_sentence", "example_burmese"},
		{"会議", "かいぎ", "အစည်းအဝေး", "meeting", "N3", "Business", "明日会議があります。", ""},
		{"", "", "", "", "", "", "", ""},
		{"切符", "きっぷ", "လက်မှတ်", "ticket", "N3", "Travel"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(VocabularySheet, cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	bundle, err := ParseBundle("words.xlsx", bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, bundle.Vocabulary, 2)
	assert.Equal(t, "かいぎ", bundle.Vocabulary[0].Hiragana)
	require.NotNil(t, bundle.Vocabulary[0].ExampleSentence)
	assert.Nil(t, bundle.Vocabulary[0].ExampleBurmese)
	assert.Equal(t, "Travel", bundle.Vocabulary[1].Category)
}

func TestImportService_Apply(t *testing.T) {
	writer := newMemContentWriter()
	svc := NewImportService(nil, writer, writer)

	bundle, err := ParseBundle("n3.yaml", strings.NewReader(sampleBundle))
	require.NoError(t, err)
	result, err := svc.Apply(context.Background(), "n3.yaml", bundle)
	require.NoError(t, err)

	assert.Equal(t, 5, result.TotalProcessed)
	assert.Equal(t, 3, result.Imported)
	assert.Equal(t, 2, result.Skipped)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "duplicate")
	assert.Contains(t, result.Errors[1], "burmese")
	assert.Equal(t, 1, writer.flushes)

	require.Len(t, writer.vocabulary, 1)
	for id, v := range writer.vocabulary {
		assert.Equal(t, model.StableID("vocabulary", "N3", "会議", "かいぎ"), id)
		assert.Equal(t, model.LevelN3, v.Level, "level is normalised")
	}
	assert.Len(t, writer.grammar, 1)
	assert.Len(t, writer.kaiwa, 1)

	// 再次导入同一文件应落在相同的行上
	again, err := ParseBundle("n3.yaml", strings.NewReader(sampleBundle))
	require.NoError(t, err)
	_, err = svc.Apply(context.Background(), "n3.yaml", again)
	require.NoError(t, err)
	assert.Len(t, writer.vocabulary, 1)
	assert.Len(t, writer.grammar, 1)
	assert.Len(t, writer.kaiwa, 1)
}

func TestImportService_ApplyStoreFailure(t *testing.T) {
	writer := newMemContentWriter()
	writer.err = errStoreDown
	svc := NewImportService(nil, writer, writer)

	bundle, err := ParseBundle("n3.yaml", strings.NewReader(sampleBundle))
	require.NoError(t, err)
	_, err = svc.Apply(context.Background(), "n3.yaml", bundle)
	assert.ErrorIs(t, err, errStoreDown)
	assert.Equal(t, 0, writer.flushes)
}

func TestImportService_ImportAllFromLocalStorage(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "n3"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "n3", "words.yaml"), []byte(sampleBundle), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "n3", "README.md"), []byte("ignored"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "other.json"), []byte(`{}`), 0o644))

	writer := newMemContentWriter()
	svc := NewImportService(&LocalStorageProvider{Root: root}, writer, writer)

	results, err := svc.ImportAll(context.Background(), "n3/")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "n3/words.yaml", results[0].Source)
	assert.Equal(t, 3, results[0].Imported)

	one, err := svc.Import(context.Background(), "../other.json")
	require.NoError(t, err, "paths are resolved inside the root")
	assert.Equal(t, 0, one.Imported)

	_, err = svc.Import(context.Background(), "missing.yaml")
	assert.Error(t, err)
}
