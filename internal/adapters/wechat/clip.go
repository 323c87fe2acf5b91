package wechat

import (
	"strings"
	"unicode/utf8"
)

// replyLimit предел длины текста пассивного ответа в байтах UTF-8.
const replyLimit = 2048

const clipMark = "\n……"

// Clip укорачивает ответ до replyLimit байт, предпочитая обрезать по переводу
// строки, чтобы не разрывать блоки.
func Clip(text string) string {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) <= replyLimit {
		return trimmed
	}

	budget := replyLimit - len(clipMark)
	cut := budget
	for cut > 0 && !utf8.RuneStart(trimmed[cut]) {
		cut--
	}
	if nl := strings.LastIndexByte(trimmed[:cut], '\n'); nl > budget/2 {
		cut = nl
	}
	return strings.TrimRight(trimmed[:cut], "\n") + clipMark
}
