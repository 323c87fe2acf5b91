package cache

import (
	"testing"
	"time"

	"wx-home-bot/internal/domain"
)

func TestSessionCodecKeepsPayloadType(t *testing.T) {
	expires := time.Date(2024, 5, 1, 10, 5, 0, 0, time.UTC)
	b, err := encodeSession(domain.Session{State: domain.SessionWaitingVerify, Payload: domain.VerifyPayload{ExpiresAt: expires}})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	s, err := decodeSession(b)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	p, ok := s.Payload.(domain.VerifyPayload)
	if !ok || !p.ExpiresAt.Equal(expires) {
		t.Fatalf("потеряли срок проверки: %#v", s.Payload)
	}

	b, _ = encodeSession(domain.Session{State: domain.SessionWaitingNickname, Payload: domain.NoPayload{}})
	s, _ = decodeSession(b)
	if _, ok := s.Payload.(domain.NoPayload); !ok {
		t.Fatalf("ожидали пустую нагрузку, получили %#v", s.Payload)
	}
}
