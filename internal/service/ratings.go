package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/montanaflynn/stats"
	"go.uber.org/zap"

	"signalshub/internal/apperr"
	"signalshub/internal/lock"
	"signalshub/internal/metrics"
	"signalshub/internal/models"
	"signalshub/internal/repository"
)

const (
	idempotencyScopeQuickRating = "rate_quick"
	idempotencyScopeFinalRating = "rate_final"
)

// RatingService handles the two buyer feedback channels: a 1-5 star rating
// right after purchase and a success/loss verdict once the signal expired.
type RatingService struct {
	Repo     repository.Repository
	Analysts *AnalystService
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
	Now      func() time.Time

	inflight lock.Keyed
}

func (s *RatingService) RateQuick(ctx context.Context, purchaseID string, stars int, idempotencyKey string) error {
	if s == nil || s.Repo == nil {
		return fmt.Errorf("rating repo unavailable")
	}
	purchaseID = strings.TrimSpace(purchaseID)
	if purchaseID == "" {
		return fmt.Errorf("%w: purchaseId is required", apperr.ErrInvalidInput)
	}
	if stars < 1 || stars > 5 {
		return fmt.Errorf("%w: rating must be between 1 and 5", apperr.ErrInvalidInput)
	}
	done, release, err := s.begin(ctx, idempotencyScopeQuickRating, idempotencyKey)
	if err != nil || done {
		return err
	}
	defer release()

	p, err := s.Repo.UpdatePurchase(ctx, purchaseID, func(p *models.Purchase) error {
		if p.QuickRating != nil {
			return fmt.Errorf("%w: purchase %s already rated", apperr.ErrConflict, purchaseID)
		}
		p.QuickRating = &stars
		return nil
	})
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("%w: purchase %s", apperr.ErrNotFound, purchaseID)
	}

	if _, err := s.Repo.AppendSignalRating(ctx, p.SignalID, stars); err != nil {
		return err
	}
	// Read the ratings under the signal lock so a slower writer never
	// stores a shorter list than a faster one already did.
	sig, err := s.Repo.UpdateSignal(ctx, p.SignalID, func(sig *models.Signal) error {
		ratings, err := s.Repo.ListSignalRatings(ctx, sig.ID)
		if err != nil {
			return err
		}
		sig.Rating = roundedMean(stats.LoadRawData(ratings))
		sig.ReviewCount = len(ratings)
		return nil
	})
	if err != nil {
		return err
	}
	if sig != nil {
		if _, err := s.Analysts.RatingChanged(ctx, sig.AnalystFid); err != nil {
			return fmt.Errorf("update analyst rating: %w", err)
		}
	}

	s.Metrics.RatingRecorded("quick")
	return s.finish(ctx, idempotencyScopeQuickRating, idempotencyKey, purchaseID)
}

func (s *RatingService) RateFinal(ctx context.Context, purchaseID string, verdict models.FinalRating, idempotencyKey string) error {
	if s == nil || s.Repo == nil {
		return fmt.Errorf("rating repo unavailable")
	}
	purchaseID = strings.TrimSpace(purchaseID)
	if purchaseID == "" {
		return fmt.Errorf("%w: purchaseId is required", apperr.ErrInvalidInput)
	}
	if !verdict.Valid() {
		return fmt.Errorf("%w: rating must be success or loss", apperr.ErrInvalidInput)
	}
	done, release, err := s.begin(ctx, idempotencyScopeFinalRating, idempotencyKey)
	if err != nil || done {
		return err
	}
	defer release()

	current, err := s.Repo.GetPurchase(ctx, purchaseID)
	if err != nil {
		return err
	}
	if current == nil {
		return fmt.Errorf("%w: purchase %s", apperr.ErrNotFound, purchaseID)
	}
	sig, err := s.Repo.GetSignal(ctx, current.SignalID)
	if err != nil {
		return err
	}
	if sig == nil {
		return fmt.Errorf("%w: signal %s", apperr.ErrNotFound, current.SignalID)
	}
	if sig.Status == models.SignalStatusActive && !sig.ExpiredAt(nowFrom(s.Now)) {
		return fmt.Errorf("%w: signal %s has not expired yet", apperr.ErrInvalidInput, sig.ID)
	}

	_, err = s.Repo.UpdatePurchase(ctx, purchaseID, func(p *models.Purchase) error {
		if p.FinalRating != nil {
			return fmt.Errorf("%w: purchase %s already has a final rating", apperr.ErrConflict, purchaseID)
		}
		p.FinalRating = &verdict
		return nil
	})
	if err != nil {
		return err
	}
	st, err := s.Analysts.SuccessRateChanged(ctx, sig.AnalystFid)
	if err != nil {
		return fmt.Errorf("update analyst success rate: %w", err)
	}

	s.Metrics.RatingRecorded("final")
	if s.Logger != nil {
		s.Logger.Info("final rating recorded",
			zap.String("purchase_id", purchaseID),
			zap.String("verdict", string(verdict)),
			zap.Int64("analyst_fid", sig.AnalystFid),
			zap.Int("success_rate", st.SuccessRate),
		)
	}
	return s.finish(ctx, idempotencyScopeFinalRating, idempotencyKey, purchaseID)
}

// begin serializes requests sharing an idempotency key and reports whether
// the key was already used.
func (s *RatingService) begin(ctx context.Context, scope, key string) (bool, func(), error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return false, func() {}, nil
	}
	release := s.inflight.Lock(scope + ":" + key)
	prev, err := s.Repo.GetIdempotencyResult(ctx, scope, key)
	if err != nil {
		release()
		return false, nil, err
	}
	if prev != "" {
		release()
		return true, nil, nil
	}
	return false, release, nil
}

func (s *RatingService) finish(ctx context.Context, scope, key, purchaseID string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	return s.Repo.SaveIdempotencyResult(ctx, scope, key, purchaseID)
}
