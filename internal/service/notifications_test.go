package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"signalshub/internal/apperr"
	"signalshub/internal/models"
)

type recorder struct {
	got []models.Notification
}

func (r *recorder) Publish(n models.Notification) { r.got = append(r.got, n) }

func (r *recorder) Deliver(_ context.Context, n models.Notification) error {
	r.got = append(r.got, n)
	return nil
}

func TestNotificationService_CapsAtFiftyNewestFirst(t *testing.T) {
	h := newHub(t)
	ctx := context.Background()
	for i := 0; i < 60; i++ {
		_, err := h.notifications.Push(ctx, models.Notification{
			UserFid: 42,
			Type:    models.NotificationNewSignal,
			Message: fmt.Sprintf("m-%d", i),
		})
		if err != nil {
			t.Fatalf("push %d: %v", i, err)
		}
	}
	items, _ := h.notifications.List(ctx, 42)
	if len(items) != MaxNotifications {
		t.Fatalf("len=%d want %d", len(items), MaxNotifications)
	}
	if items[0].Message != "m-59" || items[len(items)-1].Message != "m-10" {
		t.Fatalf("first=%s last=%s want m-59/m-10", items[0].Message, items[len(items)-1].Message)
	}
	if items[0].Read || items[0].ID == "" || items[0].Timestamp.IsZero() {
		t.Fatalf("server fields not filled: %+v", items[0])
	}
}

func TestNotificationService_PublishesAndDelivers(t *testing.T) {
	h := newHub(t)
	hub := &recorder{}
	out := &recorder{}
	h.notifications.Hub = hub
	h.notifications.Outbound = out
	_, err := h.notifications.Push(context.Background(), models.Notification{UserFid: 1, Type: models.NotificationExpiryReminder, Message: "x"})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(hub.got) != 1 || len(out.got) != 1 {
		t.Fatalf("hub=%d outbound=%d want 1/1", len(hub.got), len(out.got))
	}
}

func TestNotificationService_Validation(t *testing.T) {
	h := newHub(t)
	ctx := context.Background()
	if _, err := h.notifications.Push(ctx, models.Notification{Type: models.NotificationNewSignal}); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("err=%v want invalid input for missing userFid", err)
	}
	if _, err := h.notifications.Push(ctx, models.Notification{UserFid: 1, Type: "spam"}); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("err=%v want invalid input for type", err)
	}
}

func TestNotificationService_MarkRead(t *testing.T) {
	h := newHub(t)
	ctx := context.Background()
	var ids []string
	for i := 0; i < 3; i++ {
		n, _ := h.notifications.Push(ctx, models.Notification{UserFid: 5, Type: models.NotificationNewSignal, Message: "x"})
		ids = append(ids, n.ID)
	}
	updated, err := h.notifications.MarkRead(ctx, 5, []string{ids[0]})
	if err != nil || updated != 1 {
		t.Fatalf("updated=%d err=%v want 1", updated, err)
	}
	updated, _ = h.notifications.MarkRead(ctx, 5, nil)
	if updated != 2 {
		t.Fatalf("updated=%d want 2", updated)
	}
	items, _ := h.notifications.List(ctx, 5)
	for _, it := range items {
		if !it.Read {
			t.Fatalf("notification %s still unread", it.ID)
		}
	}
}
