package wechat

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestClipRespectsLimit(t *testing.T) {
	var builder strings.Builder
	builder.WriteString(strings.Repeat("菜", 500))
	builder.WriteString("\n\n")
	builder.WriteString(strings.Repeat("汤", 400))

	got := Clip(builder.String())
	if len(got) > replyLimit {
		t.Fatalf("ответ длиннее лимита: %d", len(got))
	}
	if !utf8.ValidString(got) {
		t.Fatalf("обрезка разорвала символ")
	}
	if got != strings.Repeat("菜", 500)+clipMark {
		t.Fatalf("ожидали обрезку по переводу строки")
	}
}

func TestClipWithoutNewline(t *testing.T) {
	got := Clip(strings.Repeat("雨", 1000))
	if len(got) > replyLimit || !utf8.ValidString(got) {
		t.Fatalf("неверная обрезка: %d байт", len(got))
	}
	if !strings.HasSuffix(got, clipMark) {
		t.Fatalf("нет отметки об обрезке")
	}
}

func TestClipShortText(t *testing.T) {
	if got := Clip("  hello world \n"); got != "hello world" {
		t.Fatalf("неожиданный текст: %q", got)
	}
	if got := Clip("   \n  "); got != "" {
		t.Fatalf("ожидали пустую строку, получили %q", got)
	}
}
