package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"signalshub/internal/apperr"
	"signalshub/internal/metrics"
	"signalshub/internal/models"
	"signalshub/internal/repository"
)

type SignalService struct {
	Repo     repository.Repository
	Analysts *AnalystService
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
	Now      func() time.Time
}

// Create stores a new signal. Counters and status are owned by the server
// and any client-supplied values for them are replaced.
func (s *SignalService) Create(ctx context.Context, in models.Signal) (*models.Signal, error) {
	if s == nil || s.Repo == nil {
		return nil, fmt.Errorf("signal repo unavailable")
	}
	in.ID = strings.TrimSpace(in.ID)
	if in.ID == "" {
		return nil, fmt.Errorf("%w: signal id is required", apperr.ErrInvalidInput)
	}
	if in.Type == "" {
		in.Type = models.SignalTypeGeneral
	}
	if !in.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown signal type %q", apperr.ErrInvalidInput, in.Type)
	}
	if in.Status != "" && in.Status != models.SignalStatusActive {
		return nil, fmt.Errorf("%w: new signals must be active", apperr.ErrInvalidInput)
	}
	if in.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price must not be negative", apperr.ErrInvalidInput)
	}
	if in.AnalystFid <= 0 {
		return nil, fmt.Errorf("%w: analystFid is required", apperr.ErrInvalidInput)
	}

	now := nowFrom(s.Now)
	in.Status = models.SignalStatusActive
	in.Rating = 0
	in.ReviewCount = 0
	in.PurchaseCount = 0
	if in.PublishDate.IsZero() {
		in.PublishDate = now
	}
	if st, err := s.Repo.GetAnalystStats(ctx, in.AnalystFid); err == nil && st != nil {
		in.AnalystSuccessRate = st.SuccessRate
	}

	created, err := s.Repo.CreateSignal(ctx, &in)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, fmt.Errorf("%w: signal %s already exists", apperr.ErrConflict, in.ID)
	}
	if _, err := s.Analysts.SignalCreated(ctx, in.AnalystFid); err != nil {
		return nil, fmt.Errorf("update analyst stats: %w", err)
	}
	s.Metrics.SignalCreated()
	if s.Logger != nil {
		s.Logger.Info("signal created",
			zap.String("signal_id", in.ID),
			zap.String("type", string(in.Type)),
			zap.Int64("analyst_fid", in.AnalystFid),
		)
	}
	return &in, nil
}

func (s *SignalService) Get(ctx context.Context, id string) (*models.Signal, error) {
	if s == nil || s.Repo == nil {
		return nil, fmt.Errorf("signal repo unavailable")
	}
	sig, err := s.Repo.GetSignal(ctx, id)
	if err != nil {
		return nil, err
	}
	if sig == nil {
		return nil, fmt.Errorf("%w: signal %s", apperr.ErrNotFound, id)
	}
	return sig, nil
}

func (s *SignalService) List(ctx context.Context) ([]models.Signal, error) {
	if s == nil || s.Repo == nil {
		return nil, fmt.Errorf("signal repo unavailable")
	}
	return s.Repo.ListSignals(ctx)
}

func (s *SignalService) ListByAnalyst(ctx context.Context, fid int64) ([]models.Signal, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Signal, 0)
	for _, sig := range all {
		if sig.AnalystFid == fid {
			out = append(out, sig)
		}
	}
	return out, nil
}
