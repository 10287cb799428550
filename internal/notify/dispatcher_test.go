package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"signalshub/internal/models"
)

func TestDispatcher_WebhookAndTelegram(t *testing.T) {
	var mu sync.Mutex
	hits := map[string]int{}
	var got WebhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		hits[r.URL.Path]++
		if r.URL.Path == "/hook" {
			_ = json.NewDecoder(r.Body).Decode(&got)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDispatcher([]ChannelConfig{
		{Type: "webhook", URL: srv.URL + "/hook", Events: []string{"purchase_success"}},
		{Type: "telegram", BotToken: "tok", ChatID: "chat", Events: []string{"*"}},
		{Type: "webhook", URL: srv.URL + "/other", Events: []string{"rating_request"}},
	}, 2*time.Second)
	d.TG.BaseURL = srv.URL

	err := d.Deliver(context.Background(), models.Notification{
		ID:      "n-1",
		UserFid: 7,
		Type:    models.NotificationPurchaseSuccess,
		Message: "New sale!",
	})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if hits["/hook"] != 1 || hits["/bottok/sendMessage"] != 1 || hits["/other"] != 0 {
		t.Fatalf("hits=%v", hits)
	}
	if got.UserFid != 7 || got.Event != "purchase_success" || got.Notification.ID != "n-1" {
		t.Fatalf("payload=%+v", got)
	}
}

func TestDispatcher_ReportsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()
	d := NewDispatcher([]ChannelConfig{{Type: "webhook", URL: srv.URL}, {Type: "pigeon"}}, time.Second)
	if err := d.Deliver(context.Background(), models.Notification{Type: models.NotificationNewSignal}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestEventMatch(t *testing.T) {
	if !eventMatch(nil, "x") {
		t.Fatalf("empty filter should match")
	}
	if eventMatch([]string{"a"}, "b") {
		t.Fatalf("a should not match b")
	}
}
