package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SECRET_CODE", "暗号")
	t.Setenv("AI_CHAT_PRIORITY", "qwen,zhipu")

	cfg := Load()
	if cfg.Session.SecretCode != "暗号" {
		t.Fatalf("не прочитали SECRET_CODE: %q", cfg.Session.SecretCode)
	}
	if cfg.Session.VerifyTimeout != 300*time.Second {
		t.Fatalf("неожиданный таймаут проверки: %v", cfg.Session.VerifyTimeout)
	}
	if len(cfg.AI.ChatPriority) != 2 || cfg.AI.ChatPriority[0] != "qwen" {
		t.Fatalf("неожиданный порядок провайдеров: %v", cfg.AI.ChatPriority)
	}
	if len(cfg.AI.TranslatePriority) != 4 || cfg.AI.TranslatePriority[0] != "siliconflow" {
		t.Fatalf("неожиданный порядок перевода: %v", cfg.AI.TranslatePriority)
	}
	if cfg.Report.Time != "07:00" {
		t.Fatalf("неожиданное время отчёта: %q", cfg.Report.Time)
	}
}

func TestLocationFallback(t *testing.T) {
	cfg := AppConfig{TZ: "Nowhere/Invalid"}
	if cfg.Location() != time.Local {
		t.Fatalf("ожидали локальный часовой пояс")
	}
}
