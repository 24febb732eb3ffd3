package model

import (
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// swagger:model VocabularyItem
type VocabularyItem struct {
	UUIDBase `yaml:",inline"`

	Japanese        string  `gorm:"size:255;not null" json:"japanese" yaml:"japanese" validate:"required"`
	Hiragana        string  `gorm:"size:255;not null" json:"hiragana" yaml:"hiragana" validate:"required"`
	Burmese         string  `gorm:"type:text;not null" json:"burmese" yaml:"burmese" validate:"required"`
	English         string  `gorm:"type:text;not null" json:"english" yaml:"english" validate:"required"`
	Level           Level   `gorm:"type:varchar(2);index:idx_vocabulary_level_category;not null" json:"level" yaml:"level" validate:"required,oneof=N3 N2 N1"`
	Category        string  `gorm:"size:100;index:idx_vocabulary_level_category;not null" json:"category" yaml:"category" validate:"required"`
	CategorySlug    string  `gorm:"size:100;index" json:"categorySlug" yaml:"-"`
	ExampleSentence *string `gorm:"type:text" json:"exampleSentence,omitempty" yaml:"example_sentence"`
	ExampleBurmese  *string `gorm:"type:text" json:"exampleBurmese,omitempty" yaml:"example_burmese"`
}

func (VocabularyItem) TableName() string {
	return "vocabulary"
}

func (v *VocabularyItem) BeforeSave(tx *gorm.DB) error {
	v.CategorySlug = slug.Make(v.Category)
	return nil
}

// Example is one sample sentence attached to a grammar point.
type Example struct {
	Japanese string `json:"japanese" yaml:"japanese" validate:"required"`
	Burmese  string `json:"burmese" yaml:"burmese" validate:"required"`
	English  string `json:"english,omitempty" yaml:"english"`
}

// swagger:model GrammarPoint
type GrammarPoint struct {
	UUIDBase `yaml:",inline"`

	Pattern            string    `gorm:"size:255;not null" json:"pattern" yaml:"pattern" validate:"required"`
	Meaning            string    `gorm:"type:text;not null" json:"meaning" yaml:"meaning" validate:"required"`
	BurmeseExplanation string    `gorm:"type:text" json:"burmeseExplanation" yaml:"burmese_explanation" validate:"required"`
	EnglishExplanation string    `gorm:"type:text" json:"englishExplanation" yaml:"english_explanation"`
	Level              Level     `gorm:"type:varchar(2);index;not null" json:"level" yaml:"level" validate:"required,oneof=N3 N2 N1"`
	Examples           []Example `gorm:"serializer:json;type:json" json:"examples" yaml:"examples" validate:"dive"`
}

func (GrammarPoint) TableName() string {
	return "grammar_points"
}

// DialogueLine is one turn of a kaiwa scenario.
type DialogueLine struct {
	Speaker  string `json:"speaker" yaml:"speaker" validate:"required"`
	Japanese string `json:"japanese" yaml:"japanese" validate:"required"`
	Burmese  string `json:"burmese" yaml:"burmese" validate:"required"`
	English  string `json:"english,omitempty" yaml:"english"`
}

type KeyPhrase struct {
	Japanese string `json:"japanese" yaml:"japanese" validate:"required"`
	Burmese  string `json:"burmese" yaml:"burmese" validate:"required"`
	English  string `json:"english,omitempty" yaml:"english"`
}

// swagger:model KaiwaScenario
type KaiwaScenario struct {
	UUIDBase `yaml:",inline"`

	Title        string         `gorm:"size:255;not null" json:"title" yaml:"title" validate:"required"`
	TitleBurmese string         `gorm:"size:255" json:"titleBurmese" yaml:"title_burmese" validate:"required"`
	Level        Level          `gorm:"type:varchar(2);index;not null" json:"level" yaml:"level" validate:"required,oneof=N3 N2 N1"`
	Situation    string         `gorm:"type:text" json:"situation" yaml:"situation" validate:"required"`
	Dialogue     []DialogueLine `gorm:"serializer:json;type:json" json:"dialogue" yaml:"dialogue" validate:"min=1,dive"`
	KeyPhrases   []KeyPhrase    `gorm:"serializer:json;type:json" json:"keyPhrases" yaml:"key_phrases" validate:"dive"`
}

func (KaiwaScenario) TableName() string {
	return "kaiwa_scenarios"
}

// CategoryOption is one entry of the vocabulary category filter.
type CategoryOption struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}
