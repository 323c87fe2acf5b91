package notify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestServerChanSend(t *testing.T) {
	type form struct{ path, title, desp string }
	got := make(chan form, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("не ожидали ошибку: %v", err)
		}
		got <- form{r.URL.Path, r.PostForm.Get("title"), r.PostForm.Get("desp")}
		_, _ = w.Write([]byte(`{"code":0,"message":""}`))
	}))
	defer srv.Close()

	n := NewServerChan("SCT123", srv.URL, time.Second)
	if err := n.Notify(context.Background(), "天气草稿已就绪", "## ok"); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	f := <-got
	if f.path != "/SCT123.send" || f.title != "天气草稿已就绪" || f.desp != "## ok" {
		t.Fatalf("неожиданный запрос: %+v", f)
	}
}

func TestServerChanErrorCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"code":40001,"message":"bad key"}`))
	}))
	defer srv.Close()

	if err := NewServerChan("x", srv.URL, time.Second).Notify(context.Background(), "t", "c"); err == nil {
		t.Fatalf("ожидали ошибку для ненулевого кода")
	}
}

func TestServerChanWithoutKey(t *testing.T) {
	err := NewServerChan("", "", time.Second).Notify(context.Background(), "t", "c")
	if !errors.Is(err, ErrNoKey) {
		t.Fatalf("ожидали ErrNoKey, получили %v", err)
	}
}
