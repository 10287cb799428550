package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"signalshub/internal/kv"
	"signalshub/internal/models"
	"signalshub/internal/repository/kvstore"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

type hub struct {
	repo          *kvstore.Store
	clock         *fakeClock
	signals       *SignalService
	purchases     *PurchaseService
	ratings       *RatingService
	analysts      *AnalystService
	notifications *NotificationService
	sweeper       *ExpirySweeper
	follows       *FollowService
}

func newHub(t *testing.T) *hub {
	t.Helper()
	repo := kvstore.New(kv.NewMemoryStore())
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	var seq atomic.Int64
	analysts := &AnalystService{Repo: repo}
	notifications := &NotificationService{
		Repo: repo,
		Now:  clock.Now,
		NewID: func() string {
			return fmt.Sprintf("n-%d", seq.Add(1))
		},
	}
	return &hub{
		repo:          repo,
		clock:         clock,
		analysts:      analysts,
		notifications: notifications,
		signals:       &SignalService{Repo: repo, Analysts: analysts, Now: clock.Now},
		purchases:     &PurchaseService{Repo: repo, Analysts: analysts, Notifications: notifications, Now: clock.Now},
		ratings:       &RatingService{Repo: repo, Analysts: analysts, Now: clock.Now},
		sweeper:       &ExpirySweeper{Repo: repo, Analysts: analysts, Notifications: notifications},
		follows:       &FollowService{Repo: repo},
	}
}

func eth(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (h *hub) createSignal(t *testing.T, id string, analyst int64, price string, expiry time.Time) *models.Signal {
	t.Helper()
	sig, err := h.signals.Create(context.Background(), models.Signal{
		ID:          id,
		Type:        models.SignalTypeSignal,
		Title:       "Title " + id,
		Price:       eth(price),
		ExpiryDate:  expiry,
		AnalystFid:  analyst,
		AnalystName: fmt.Sprintf("analyst-%d", analyst),
	})
	if err != nil {
		t.Fatalf("create %s: %v", id, err)
	}
	return sig
}

func (h *hub) buy(t *testing.T, signalID string, buyer int64, amount string) *models.Purchase {
	t.Helper()
	p, err := h.purchases.Purchase(context.Background(), PurchaseInput{
		SignalID:        signalID,
		BuyerFid:        buyer,
		Amount:          eth(amount),
		TransactionHash: "0xabc",
	})
	if err != nil {
		t.Fatalf("purchase %s by %d: %v", signalID, buyer, err)
	}
	return p
}

func (h *hub) expire(t *testing.T, signalID string) {
	t.Helper()
	_, err := h.repo.UpdateSignal(context.Background(), signalID, func(s *models.Signal) error {
		s.ExpiryDate = h.clock.now.Add(-time.Hour)
		return nil
	})
	if err != nil {
		t.Fatalf("expire %s: %v", signalID, err)
	}
}

func countType(items []models.Notification, typ models.NotificationType) int {
	n := 0
	for _, it := range items {
		if it.Type == typ {
			n++
		}
	}
	return n
}
