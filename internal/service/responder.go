package service

import (
	"strings"

	"learning_aid_backend/internal/model"
)

// Intent is the coarse topic of a learner's chat message.
type Intent string

const (
	IntentGreeting     Intent = "greeting"
	IntentHelp         Intent = "help"
	IntentVocabulary   Intent = "vocabulary"
	IntentGrammar      Intent = "grammar"
	IntentConversation Intent = "conversation"
	IntentEncourage    Intent = "encourage"
	IntentDefault      Intent = "default"
)

// intentKeywords is checked top to bottom; the first group with a keyword
// contained in the message wins. Matching is plain substring search, so "hi"
// also fires inside words like "this".
var intentKeywords = []struct {
	intent   Intent
	keywords []string
}{
	{IntentGreeting, []string{"hello", "hi", "မင်္ဂလာ", "こんにちは"}},
	{IntentHelp, []string{"help", "ကူညီ"}},
	{IntentVocabulary, []string{"vocabulary", "စာလုံး", "語彙"}},
	{IntentGrammar, []string{"grammar", "သဒ္ဒါ", "文法"}},
	{IntentConversation, []string{"conversation", "kaiwa", "စကားပြော", "会話"}},
	{IntentEncourage, []string{"thank", "ကျေးဇူး", "ありがとう"}},
}

var englishReplies = map[Intent]string{
	IntentGreeting:     "Hello! I am Kyi's learning companion AI. I will help you study Japanese. Let's do our best together!",
	IntentHelp:         "What can I help you with? Would you like to study vocabulary, grammar, or practice conversation?",
	IntentVocabulary:   "Let's study vocabulary! We have words for N3-N1 levels. Which category would you like to study?",
	IntentGrammar:      "Let's study grammar! Japanese grammar is interesting. Which pattern would you like to learn?",
	IntentConversation: "Let's practice conversation! I will help you use Japanese in real situations.",
	IntentEncourage:    "Great! I can see your progress. Keep up the good work!",
	IntentDefault:      "I understand. If you have any difficulties studying Japanese, feel free to ask me anytime.",
}

var japaneseReplies = map[Intent]string{
	IntentGreeting:     "こんにちは！私はKyiの学習パートナーAIです。日本語の勉強を手伝います。一緒に頑張りましょう！",
	IntentHelp:         "何か手伝いましょうか？語彙、文法、会話練習、どれがいいですか？",
	IntentVocabulary:   "語彙を勉強しましょう！N3-N1レベルの単語があります。どのカテゴリーを勉強したいですか？",
	IntentGrammar:      "文法を勉強しましょう！日本語の文法は面白いですよ。どのパターンを勉強したいですか？",
	IntentConversation: "会話練習をしましょう！実際の場面で日本語を使えるように手伝います。",
	IntentEncourage:    "いいですね！上達が見えますよ。続けて頑張ってください！",
	IntentDefault:      "わかりました。日本語の勉強で困ったことがあったら、いつでも聞いてください。",
}

var burmeseReplies = map[Intent]string{
	IntentGreeting:     "မင်္ဂလာပါ! ကျွန်တော် Kyi ရဲ့ သင်ယူမှု လုပ်ဖော်ကိုင်ဖက် AI ပါ။ ဂျပန်စာ လေ့လာရာမှာ ကူညီပေးပါရစေ။ 一緒に頑張りましょう！",
	IntentHelp:         "ဘာကူညီရမလဲ ပြောပါ။ စာလုံးအသစ်များ (vocabulary)၊ သဒ္ဒါ (grammar) သို့မဟုတ် စကားပြောလေ့ကျင့်ချင်ပါသလား? (Kaiwa practice)",
	IntentVocabulary:   "စာလုံးအသစ်များ လေ့လာကြမယ်! N3-N1 အဆင့်အတွက် သင့်လျော်သော စာလုံးများ ရှိပါတယ်။ ဘယ် category ကို လေ့လာချင်ပါသလဲ?",
	IntentGrammar:      "သဒ္ဒါ လေ့လာကြရအောင်! ဂျပန်သဒ္ဒါက စိတ်ဝင်စားစရာကောင်းပါတယ်။ ဘယ် pattern ကို လေ့လာချင်ပါသလဲ?",
	IntentConversation: "စကားပြောလေ့ကျင့်ကြမယ်! အစစ်အမှန် အခြေအနေတွေမှာ ဂျပန်စကား သုံးတတ်အောင် ကျွန်တော် ကူညီပါရစေ။",
	IntentEncourage:    "ကောင်းပြီ! သင့်ရဲ့ တိုးတက်မှုကို ကျွန်တော် မြင်နေပါတယ်။ ဆက်လက် ကြိုးစားပါ! 頑張って！",
	IntentDefault:      "နားလည်ပါတယ်။ ဂျပန်စာ လေ့လာရာမှာ အခက်အခဲ ရှိလာရင် ကျွန်တော့်ကို မေးနိုင်ပါတယ်။ 一緒に頑張りましょう！",
}

// ClassifyIntent maps a message to the first matching keyword group.
func ClassifyIntent(text string) Intent {
	lower := strings.ToLower(text)
	for _, group := range intentKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(lower, kw) {
				return group.intent
			}
		}
	}
	return IntentDefault
}

// repliesFor never fails: any language outside the known set answers in English.
func repliesFor(lang model.Language) map[Intent]string {
	switch lang {
	case model.LanguageBurmese:
		return burmeseReplies
	case model.LanguageJapanese:
		return japaneseReplies
	default:
		return englishReplies
	}
}

// SelectResponse returns the canned companion reply for text in lang.
func SelectResponse(text string, lang model.Language) string {
	return repliesFor(lang)[ClassifyIntent(text)]
}
