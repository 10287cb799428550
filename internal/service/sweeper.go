package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"signalshub/internal/metrics"
	"signalshub/internal/models"
	"signalshub/internal/repository"
)

type SweepResult struct {
	Checked  int  `json:"checked"`
	Expired  int  `json:"expired"`
	Notified int  `json:"notified"`
	Skipped  bool `json:"skipped,omitempty"`
}

// ExpirySweeper flips active signals past their expiry to expired and asks
// each buyer for a final verdict, once per purchase.
type ExpirySweeper struct {
	Repo          repository.Repository
	Analysts      *AnalystService
	Notifications *NotificationService
	Logger        *zap.Logger
	Metrics       *metrics.Metrics

	running atomic.Bool
}

func (s *ExpirySweeper) Sweep(ctx context.Context, now time.Time) (SweepResult, error) {
	var res SweepResult
	if s == nil || s.Repo == nil {
		return res, fmt.Errorf("sweeper repo unavailable")
	}
	if !s.running.CompareAndSwap(false, true) {
		res.Skipped = true
		s.Metrics.SweepFinished("skipped", 0)
		return res, nil
	}
	defer s.running.Store(false)

	signals, err := s.Repo.ListSignals(ctx)
	if err != nil {
		s.Metrics.SweepFinished("error", 0)
		return res, err
	}
	now = now.UTC()
	for _, sig := range signals {
		if err := ctx.Err(); err != nil {
			s.Metrics.SweepFinished("error", res.Expired)
			return res, err
		}
		res.Checked++
		if sig.Status == models.SignalStatusExpired {
			// Retries buyers whose rating request was never delivered.
			n, err := s.requestRatings(ctx, &sig, now)
			res.Notified += n
			if err != nil {
				s.Metrics.SweepFinished("error", res.Expired)
				return res, err
			}
			continue
		}
		if sig.Status != models.SignalStatusActive || !sig.ExpiredAt(now) {
			continue
		}
		flipped := false
		updated, err := s.Repo.UpdateSignal(ctx, sig.ID, func(cur *models.Signal) error {
			if cur.Status != models.SignalStatusActive {
				return nil
			}
			cur.Status = models.SignalStatusExpired
			flipped = true
			return nil
		})
		if err != nil {
			s.Metrics.SweepFinished("error", res.Expired)
			return res, fmt.Errorf("expire signal %s: %w", sig.ID, err)
		}
		if !flipped || updated == nil {
			continue
		}
		res.Expired++
		if _, err := s.Analysts.SignalExpired(ctx, updated.AnalystFid); err != nil {
			s.Metrics.SweepFinished("error", res.Expired)
			return res, fmt.Errorf("update analyst %d: %w", updated.AnalystFid, err)
		}
		n, err := s.requestRatings(ctx, updated, now)
		res.Notified += n
		if err != nil {
			s.Metrics.SweepFinished("error", res.Expired)
			return res, err
		}
	}

	s.Metrics.SweepFinished("ok", res.Expired)
	if s.Logger != nil {
		s.Logger.Info("expiry sweep done",
			zap.Int("checked", res.Checked),
			zap.Int("expired", res.Expired),
			zap.Int("notified", res.Notified),
		)
	}
	return res, nil
}

func (s *ExpirySweeper) requestRatings(ctx context.Context, sig *models.Signal, now time.Time) (int, error) {
	ids, err := s.Repo.ListSignalPurchaseIDs(ctx, sig.ID)
	if err != nil {
		return 0, err
	}
	purchases, err := s.Repo.GetPurchases(ctx, ids)
	if err != nil {
		return 0, err
	}
	notified := 0
	for _, cur := range purchases {
		if cur.FinalRating != nil || cur.RatingRequestedAt != nil {
			continue
		}
		id := cur.ID
		claimed := false
		p, err := s.Repo.UpdatePurchase(ctx, id, func(p *models.Purchase) error {
			if p.FinalRating != nil || p.RatingRequestedAt != nil {
				return nil
			}
			at := now
			p.RatingRequestedAt = &at
			claimed = true
			return nil
		})
		if err != nil {
			return notified, fmt.Errorf("stamp purchase %s: %w", id, err)
		}
		if !claimed || p == nil {
			continue
		}
		_, err = s.Notifications.Push(ctx, models.Notification{
			UserFid:     p.BuyerFid,
			Type:        models.NotificationRatingRequest,
			SignalID:    sig.ID,
			AnalystName: sig.AnalystName,
			Message:     fmt.Sprintf("Rate the outcome: Was \"%s\" successful?", sig.Title),
		})
		if err != nil {
			s.unstamp(ctx, id, now)
			return notified, fmt.Errorf("rating request for %s: %w", id, err)
		}
		notified++
	}
	return notified, nil
}

// unstamp clears a rating request stamp whose notification was never stored
// so the next sweep retries it.
func (s *ExpirySweeper) unstamp(ctx context.Context, id string, at time.Time) {
	_, err := s.Repo.UpdatePurchase(ctx, id, func(p *models.Purchase) error {
		if p.RatingRequestedAt != nil && p.RatingRequestedAt.Equal(at) {
			p.RatingRequestedAt = nil
		}
		return nil
	})
	if err != nil && s.Logger != nil {
		s.Logger.Warn("clear rating request stamp failed", zap.String("purchase_id", id), zap.Error(err))
	}
}
