package service

import (
	"strings"
	"testing"

	"learning_aid_backend/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestClassifyIntent(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Intent
	}{
		{name: "english greeting", text: "Hello there", want: IntentGreeting},
		{name: "burmese greeting", text: "မင်္ဂလာပါ", want: IntentGreeting},
		{name: "japanese greeting", text: "こんにちは", want: IntentGreeting},
		{name: "help", text: "Can you HELP me?", want: IntentHelp},
		{name: "burmese help", text: "ကူညီပါ", want: IntentHelp},
		{name: "vocabulary", text: "vocabulary please", want: IntentVocabulary},
		{name: "japanese vocabulary", text: "語彙を勉強したい", want: IntentVocabulary},
		{name: "grammar", text: "teach me grammar", want: IntentGrammar},
		{name: "japanese grammar", text: "文法", want: IntentGrammar},
		{name: "kaiwa counts as conversation", text: "let's do kaiwa", want: IntentConversation},
		{name: "japanese conversation", text: "会話の練習", want: IntentConversation},
		{name: "thanks", text: "thank you", want: IntentEncourage},
		{name: "japanese thanks", text: "ありがとう", want: IntentEncourage},
		{name: "greeting wins over help", text: "hello, I need help", want: IntentGreeting},
		{name: "help wins over grammar", text: "help with grammar", want: IntentHelp},
		{name: "hi matches inside other words", text: "what is this", want: IntentGreeting},
		{name: "no keyword", text: "xyz", want: IntentDefault},
		{name: "empty", text: "", want: IntentDefault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyIntent(tt.text))
		})
	}
}

func TestSelectResponse(t *testing.T) {
	tests := []struct {
		name string
		text string
		lang model.Language
		want string
	}{
		{name: "english greeting", text: "hello", lang: model.LanguageEnglish, want: englishReplies[IntentGreeting]},
		{name: "japanese grammar", text: "grammar", lang: model.LanguageJapanese, want: japaneseReplies[IntentGrammar]},
		{name: "burmese default", text: "xyz", lang: model.LanguageBurmese, want: burmeseReplies[IntentDefault]},
		{name: "unknown language falls back to english", text: "thank you", lang: model.Language("thai"), want: englishReplies[IntentEncourage]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectResponse(tt.text, tt.lang))
		})
	}
}

func TestSelectResponse_DefaultInEveryLanguage(t *testing.T) {
	tests := []struct {
		lang model.Language
		want string
	}{
		{lang: model.LanguageBurmese, want: burmeseReplies[IntentDefault]},
		{lang: model.LanguageJapanese, want: japaneseReplies[IntentDefault]},
		{lang: model.LanguageEnglish, want: englishReplies[IntentDefault]},
	}

	for _, tt := range tests {
		t.Run(string(tt.lang), func(t *testing.T) {
			assert.Equal(t, tt.want, SelectResponse("xyz", tt.lang))
			assert.NotEqual(t, repliesFor(tt.lang)[IntentGreeting], SelectResponse("xyz", tt.lang))
		})
	}
}

func TestReplyTablesAreComplete(t *testing.T) {
	intents := []Intent{IntentGreeting, IntentHelp, IntentVocabulary, IntentGrammar, IntentConversation, IntentEncourage, IntentDefault}
	for _, lang := range []model.Language{model.LanguageBurmese, model.LanguageJapanese, model.LanguageEnglish} {
		replies := repliesFor(lang)
		for _, intent := range intents {
			assert.NotEmpty(t, replies[intent], "%s/%s", lang, intent)
		}
	}

	assert.True(t, strings.Contains(burmeseReplies[IntentHelp], "vocabulary"))
	assert.Equal(t,
		"Hello! I am Kyi's learning companion AI. I will help you study Japanese. Let's do our best together!",
		SelectResponse("hi", model.LanguageEnglish))
}
