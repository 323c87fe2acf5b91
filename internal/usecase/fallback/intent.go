package fallback

import (
	"regexp"
	"strings"
	"unicode"
)

// Intent намерение пользователя для выбора провайдеров.
type Intent string

const (
	IntentChat      Intent = "chat"
	IntentTranslate Intent = "translate"
)

var translateKeywords = []string{
	"翻译", "译成", "译为", "译一下", "帮我翻", "翻成", "翻为", "translate", "translation",
	"中译英", "英译中", "中翻英", "英翻中", "日译中", "中译日", "韩译中", "中译韩",
	"法译中", "中译法", "德译中", "中译德",
	"用英语怎么说", "用中文怎么说", "用日语怎么说", "英语怎么说", "中文怎么说", "日语怎么说",
	"什么意思",
	"翻译成中文", "翻译成英文", "翻译成英语", "翻译成日语",
}

var translatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`把.+翻译成`),
	regexp.MustCompile(`将.+翻译成`),
	regexp.MustCompile(`.+怎么翻译`),
	regexp.MustCompile(`翻译[：:].+`),
	regexp.MustCompile(`[a-zA-Z]{3,}`),
}

// Classify определяет, просит ли пользователь перевод.
func Classify(text string) Intent {
	lower := strings.ToLower(text)
	for _, kw := range translateKeywords {
		if strings.Contains(lower, kw) {
			return IntentTranslate
		}
	}
	for _, re := range translatePatterns {
		if re.MatchString(text) {
			return IntentTranslate
		}
	}
	latin, han := 0, 0
	for _, r := range text {
		switch {
		case r < unicode.MaxASCII && unicode.IsLetter(r):
			latin++
		case r >= 0x4e00 && r <= 0x9fff:
			han++
		}
	}
	if latin > 10 && han < 5 {
		return IntentTranslate
	}
	return IntentChat
}
