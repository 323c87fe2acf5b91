package fallback

import "strings"

var canned = map[string]string{
	"greeting": "你好呀！😊 很高兴见到你~",
	"thanks":   "不客气！有什么需要随时问我哦~ 😄",
	"goodbye":  "再见啦！下次再聊~ 👋",
	"joke":     "为什么程序员总是分不清万圣节和圣诞节？因为 Oct 31 = Dec 25 🤣",
	"question": "这个问题很有趣！不过我现在有点忙，晚点再详细回答你哦~ 😅",
	"default":  "收到你的消息啦！我现在有点忙，待会儿再跟你好好聊~ 😊",
}

var cannedKeywords = []struct {
	key   string
	words []string
}{
	{"greeting", []string{"你好", "hello", "hi", "嗨"}},
	{"thanks", []string{"谢谢", "感谢", "thanks"}},
	{"goodbye", []string{"再见", "拜拜", "bye"}},
	{"joke", []string{"笑话", "开心", "无聊"}},
}

// CannedReply статический ответ, когда ни один провайдер не ответил.
func CannedReply(text string) string {
	lower := strings.ToLower(text)
	for _, group := range cannedKeywords {
		for _, w := range group.words {
			if strings.Contains(lower, w) {
				return canned[group.key]
			}
		}
	}
	if strings.ContainsAny(text, "?？") {
		return canned["question"]
	}
	return canned["default"]
}
