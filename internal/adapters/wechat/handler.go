package wechat

import (
	"context"
	"io"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"wx-home-bot/internal/domain"
	apphttp "wx-home-bot/internal/infra/http"
)

const maxBody = 64 << 10

// Conversation обработчик входящих событий.
type Conversation interface {
	Handle(ctx context.Context, ev domain.InboundEvent) string
}

// Handler вебхук официального аккаунта.
type Handler struct {
	log   zerolog.Logger
	token string
	conv  Conversation
	now   func() time.Time
}

// NewHandler создаёт обработчик.
func NewHandler(log zerolog.Logger, token string, conv Conversation) *Handler {
	return &Handler{log: log, token: token, conv: conv, now: time.Now}
}

// Mount регистрирует GET и POST на path. Оба метода проверяют подпись.
func (h *Handler) Mount(r chi.Router, path string) {
	r.With(apphttp.SignatureMiddleware(h.token)).Route(path, func(r chi.Router) {
		r.Get("/", h.verify)
		r.Post("/", h.callback)
	})
}

// verify подтверждение адреса сервера: эхо echostr.
func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(r.URL.Query().Get("echostr")))
}

// callback всегда отвечает 200: иначе платформа повторит доставку.
func (h *Handler) callback(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		h.log.Warn().Err(err).Str("request_id", apphttp.RequestID(r)).Msg("не удалось прочитать тело запроса")
		ack(w)
		return
	}
	ev, err := Decode(body)
	if err != nil {
		h.log.Warn().Err(err).Str("request_id", apphttp.RequestID(r)).Msg("некорректный XML")
		ack(w)
		return
	}

	reply := h.conv.Handle(r.Context(), ev)
	if reply == "" {
		ack(w)
		return
	}
	out, err := EncodeText(ev, reply, h.now())
	if err != nil {
		h.log.Error().Err(err).Str("user", ev.UserID).Msg("не удалось сформировать ответ")
		ack(w)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	_, _ = w.Write(out)
}

func ack(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("success"))
}
