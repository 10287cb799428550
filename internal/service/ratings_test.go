package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"signalshub/internal/apperr"
	"signalshub/internal/models"
)

func TestRatingService_QuickRatingMean(t *testing.T) {
	h := newHub(t)
	ctx := context.Background()
	h.createSignal(t, "sig-1", 7, "0.01", time.Time{})
	stars := []int{5, 4, 4}
	for i, s := range stars {
		p := h.buy(t, "sig-1", int64(100+i), "0.01")
		if err := h.ratings.RateQuick(ctx, p.ID, s, ""); err != nil {
			t.Fatalf("rate %d: %v", i, err)
		}
	}
	sig, _ := h.signals.Get(ctx, "sig-1")
	if sig.Rating != 4.3 || sig.ReviewCount != 3 {
		t.Fatalf("rating=%v reviewCount=%d want 4.3/3", sig.Rating, sig.ReviewCount)
	}
	st, _ := h.analysts.Get(ctx, 7)
	if st.Rating != 4.3 {
		t.Fatalf("analyst rating=%v want 4.3", st.Rating)
	}
}

func TestRatingService_QuickRatingRules(t *testing.T) {
	h := newHub(t)
	ctx := context.Background()
	h.createSignal(t, "sig-1", 7, "0.01", time.Time{})
	p := h.buy(t, "sig-1", 42, "0.01")

	for _, bad := range []int{0, 6, -1} {
		if err := h.ratings.RateQuick(ctx, p.ID, bad, ""); !errors.Is(err, apperr.ErrInvalidInput) {
			t.Fatalf("stars=%d err=%v want invalid input", bad, err)
		}
	}
	if err := h.ratings.RateQuick(ctx, "nope", 3, ""); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err=%v want not found", err)
	}
	if err := h.ratings.RateQuick(ctx, p.ID, 3, ""); err != nil {
		t.Fatalf("first rating: %v", err)
	}
	if err := h.ratings.RateQuick(ctx, p.ID, 1, ""); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("err=%v want conflict", err)
	}
	sig, _ := h.signals.Get(ctx, "sig-1")
	if sig.ReviewCount != 1 || sig.Rating != 3 {
		t.Fatalf("rating=%v reviewCount=%d want 3/1", sig.Rating, sig.ReviewCount)
	}
}

func TestRatingService_QuickRatingIdempotencyKey(t *testing.T) {
	h := newHub(t)
	ctx := context.Background()
	h.createSignal(t, "sig-1", 7, "0.01", time.Time{})
	p := h.buy(t, "sig-1", 42, "0.01")
	for i := 0; i < 2; i++ {
		if err := h.ratings.RateQuick(ctx, p.ID, 4, "retry-1"); err != nil {
			t.Fatalf("attempt %d: %v", i, err)
		}
	}
	ratings, _ := h.repo.ListSignalRatings(ctx, "sig-1")
	if len(ratings) != 1 {
		t.Fatalf("ratings=%v want one entry", ratings)
	}
}

func TestRatingService_FinalRatingRequiresExpiry(t *testing.T) {
	h := newHub(t)
	ctx := context.Background()
	h.createSignal(t, "sig-1", 7, "0.01", h.clock.now.Add(time.Hour))
	p := h.buy(t, "sig-1", 42, "0.01")
	err := h.ratings.RateFinal(ctx, p.ID, models.FinalRatingSuccess, "")
	if !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("err=%v want invalid input", err)
	}
	if err := h.ratings.RateFinal(ctx, p.ID, "maybe", ""); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("err=%v want invalid input for verdict", err)
	}
}

func TestRatingService_SuccessRateJoinsThroughSignalIndex(t *testing.T) {
	h := newHub(t)
	ctx := context.Background()
	h.createSignal(t, "s1", 7, "0.01", time.Time{})
	h.createSignal(t, "s2", 7, "0.01", time.Time{})
	h.createSignal(t, "other", 8, "0.01", time.Time{})

	verdicts := []struct {
		signal  string
		buyer   int64
		verdict models.FinalRating
	}{
		{"s1", 42, models.FinalRatingSuccess},
		{"s1", 43, models.FinalRatingLoss},
		{"s2", 44, models.FinalRatingSuccess},
		{"other", 45, models.FinalRatingLoss},
	}
	var ids []string
	for _, v := range verdicts {
		ids = append(ids, h.buy(t, v.signal, v.buyer, "0.01").ID)
	}
	for _, sig := range []string{"s1", "s2", "other"} {
		h.expire(t, sig)
	}
	for i, v := range verdicts {
		if err := h.ratings.RateFinal(ctx, ids[i], v.verdict, ""); err != nil {
			t.Fatalf("rate %s: %v", ids[i], err)
		}
	}

	st, _ := h.analysts.Get(ctx, 7)
	if st.SuccessRate != 67 {
		t.Fatalf("successRate=%d want 67", st.SuccessRate)
	}
	other, _ := h.analysts.Get(ctx, 8)
	if other.SuccessRate != 0 {
		t.Fatalf("other successRate=%d want 0", other.SuccessRate)
	}

	if err := h.ratings.RateFinal(ctx, ids[0], models.FinalRatingLoss, ""); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("err=%v want conflict", err)
	}
}

func TestSuccessPercent(t *testing.T) {
	cases := []struct {
		success, total, want int
	}{
		{0, 0, 0},
		{1, 1, 100},
		{1, 2, 50},
		{2, 3, 67},
		{1, 3, 33},
		{1, 8, 13},
	}
	for _, tc := range cases {
		if got := successPercent(tc.success, tc.total); got != tc.want {
			t.Fatalf("successPercent(%d,%d)=%d want %d", tc.success, tc.total, got, tc.want)
		}
	}
}
