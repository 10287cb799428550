package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"signalshub/internal/apperr"
	"signalshub/internal/models"
)

func TestPurchaseService_EndToEnd(t *testing.T) {
	h := newHub(t)
	ctx := context.Background()
	h.createSignal(t, "sig-1", 7, "0.02", h.clock.now.Add(24*time.Hour))

	p := h.buy(t, "sig-1", 42, "0.02")
	st, _ := h.analysts.Get(ctx, 7)
	if !st.TotalEarnings.Equal(eth("0.018")) {
		t.Fatalf("totalEarnings=%s want 0.018", st.TotalEarnings)
	}
	if st.TotalSales != 1 {
		t.Fatalf("totalSales=%d want 1", st.TotalSales)
	}

	if err := h.ratings.RateQuick(ctx, p.ID, 5, ""); err != nil {
		t.Fatalf("rate quick: %v", err)
	}
	sig, _ := h.signals.Get(ctx, "sig-1")
	if sig.Rating != 5.0 || sig.ReviewCount != 1 {
		t.Fatalf("rating=%v reviewCount=%d want 5.0/1", sig.Rating, sig.ReviewCount)
	}

	h.expire(t, "sig-1")
	if _, err := h.sweeper.Sweep(ctx, h.clock.now); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	sig, _ = h.signals.Get(ctx, "sig-1")
	if sig.Status != models.SignalStatusExpired {
		t.Fatalf("status=%s want expired", sig.Status)
	}
	items, _ := h.notifications.List(ctx, 42)
	if countType(items, models.NotificationRatingRequest) != 1 {
		t.Fatalf("buyer notifications=%+v want one rating_request", items)
	}
	if items[0].Message != `Rate the outcome: Was "Title sig-1" successful?` {
		t.Fatalf("message=%q", items[0].Message)
	}
}

func TestPurchaseService_SideEffects(t *testing.T) {
	h := newHub(t)
	ctx := context.Background()
	h.createSignal(t, "sig-1", 7, "0.05", time.Time{})

	before, _ := h.analysts.Get(ctx, 7)
	p := h.buy(t, "sig-1", 42, "0.05")

	if p.ID != "42_sig-1_1748779200000" {
		t.Fatalf("id=%s", p.ID)
	}
	sig, _ := h.signals.Get(ctx, "sig-1")
	if sig.PurchaseCount != 1 {
		t.Fatalf("purchaseCount=%d want 1", sig.PurchaseCount)
	}
	after, _ := h.analysts.Get(ctx, 7)
	want := before.TotalEarnings.Add(eth("0.05").Mul(decimal.RequireFromString("0.9")))
	if !after.TotalEarnings.Equal(want) {
		t.Fatalf("earnings=%s want %s", after.TotalEarnings, want)
	}

	items, _ := h.notifications.List(ctx, 7)
	if len(items) != 1 || items[0].Type != models.NotificationPurchaseSuccess {
		t.Fatalf("analyst notifications=%+v", items)
	}
	if items[0].Message != `New sale! User purchased "Title sig-1" for 0.050 ETH` {
		t.Fatalf("message=%q", items[0].Message)
	}
	if items[0].BuyerFid != 42 || items[0].Amount == nil || !items[0].Amount.Equal(eth("0.05")) {
		t.Fatalf("notification payload=%+v", items[0])
	}

	ok, err := h.purchases.HasPurchased(ctx, 42, "sig-1")
	if err != nil || !ok {
		t.Fatalf("hasPurchased=%v err=%v want true", ok, err)
	}
	ok, _ = h.purchases.HasPurchased(ctx, 43, "sig-1")
	if ok {
		t.Fatalf("fid 43 never bought sig-1")
	}
}

func TestPurchaseService_SameMillisecondGetsDistinctIDs(t *testing.T) {
	h := newHub(t)
	h.createSignal(t, "sig-1", 7, "0.01", time.Time{})
	a := h.buy(t, "sig-1", 42, "0.01")
	b := h.buy(t, "sig-1", 42, "0.01")
	if a.ID == b.ID {
		t.Fatalf("ids collide: %s", a.ID)
	}
	list, _ := h.purchases.ListByBuyer(context.Background(), 42)
	if len(list) != 2 {
		t.Fatalf("purchases=%d want 2", len(list))
	}
}

func TestPurchaseService_IdempotentReplay(t *testing.T) {
	h := newHub(t)
	ctx := context.Background()
	h.createSignal(t, "sig-1", 7, "0.02", time.Time{})
	in := PurchaseInput{SignalID: "sig-1", BuyerFid: 42, Amount: eth("0.02"), IdempotencyKey: "k-1"}

	first, err := h.purchases.Purchase(ctx, in)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	h.clock.now = h.clock.now.Add(time.Second)
	second, err := h.purchases.Purchase(ctx, in)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("replay id=%s want %s", second.ID, first.ID)
	}
	sig, _ := h.signals.Get(ctx, "sig-1")
	if sig.PurchaseCount != 1 {
		t.Fatalf("purchaseCount=%d want 1", sig.PurchaseCount)
	}
	st, _ := h.analysts.Get(ctx, 7)
	if st.TotalSales != 1 || !st.TotalEarnings.Equal(eth("0.018")) {
		t.Fatalf("stats=%+v", st)
	}
}

func TestPurchaseService_Validation(t *testing.T) {
	h := newHub(t)
	h.createSignal(t, "sig-1", 7, "0.02", time.Time{})
	cases := []struct {
		name string
		in   PurchaseInput
		want error
	}{
		{"missing signal id", PurchaseInput{BuyerFid: 1, Amount: eth("1")}, apperr.ErrInvalidInput},
		{"zero buyer", PurchaseInput{SignalID: "sig-1", Amount: eth("1")}, apperr.ErrInvalidInput},
		{"zero amount", PurchaseInput{SignalID: "sig-1", BuyerFid: 1}, apperr.ErrInvalidInput},
		{"unknown signal", PurchaseInput{SignalID: "nope", BuyerFid: 1, Amount: eth("1")}, apperr.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.purchases.Purchase(context.Background(), tc.in)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err=%v want %v", err, tc.want)
			}
		})
	}
}

type rejectVerifier struct{}

func (rejectVerifier) VerifyPayment(context.Context, string, decimal.Decimal) error {
	return apperr.ErrInvalidInput
}

func TestPurchaseService_VerifierRejects(t *testing.T) {
	h := newHub(t)
	h.purchases.Verifier = rejectVerifier{}
	h.createSignal(t, "sig-1", 7, "0.02", time.Time{})
	_, err := h.purchases.Purchase(context.Background(), PurchaseInput{SignalID: "sig-1", BuyerFid: 42, Amount: eth("0.02")})
	if !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("err=%v want invalid input", err)
	}
	sig, _ := h.signals.Get(context.Background(), "sig-1")
	if sig.PurchaseCount != 0 {
		t.Fatalf("purchaseCount=%d want 0", sig.PurchaseCount)
	}
}

type acceptVerifier struct{}

func (acceptVerifier) VerifyPayment(context.Context, string, decimal.Decimal) error { return nil }

func TestPurchaseService_TransactionHashSingleUse(t *testing.T) {
	ctx := context.Background()
	h := newHub(t)
	h.purchases.Verifier = acceptVerifier{}
	h.createSignal(t, "sig-1", 7, "0.02", time.Time{})
	h.createSignal(t, "sig-2", 7, "0.02", time.Time{})

	if _, err := h.purchases.Purchase(ctx, PurchaseInput{SignalID: "sig-1", BuyerFid: 42, Amount: eth("0.02"), TransactionHash: "0xABC"}); err != nil {
		t.Fatalf("first purchase: %v", err)
	}
	_, err := h.purchases.Purchase(ctx, PurchaseInput{SignalID: "sig-1", BuyerFid: 43, Amount: eth("0.02"), TransactionHash: " 0xabc "})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("same hash other buyer err=%v want conflict", err)
	}
	_, err = h.purchases.Purchase(ctx, PurchaseInput{SignalID: "sig-2", BuyerFid: 42, Amount: eth("0.02"), TransactionHash: "0xabc"})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("same hash other signal err=%v want conflict", err)
	}

	sig, _ := h.signals.Get(ctx, "sig-1")
	if sig.PurchaseCount != 1 {
		t.Fatalf("purchaseCount=%d want 1", sig.PurchaseCount)
	}
	st, _ := h.analysts.Get(ctx, 7)
	if st.TotalSales != 1 || !st.TotalEarnings.Equal(eth("0.018")) {
		t.Fatalf("stats=%+v want 1 sale earning 0.018", st)
	}

	if _, err := h.purchases.Purchase(ctx, PurchaseInput{SignalID: "sig-2", BuyerFid: 42, Amount: eth("0.02"), TransactionHash: "0xdef"}); err != nil {
		t.Fatalf("fresh hash: %v", err)
	}
}
