package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"signalshub/internal/models"
	"signalshub/internal/repository"
)

// AnalystService owns analyst_stats. The incremental hooks keep the record
// current on the write path; Rebuild recomputes it from source records.
type AnalystService struct {
	Repo   repository.Repository
	Logger *zap.Logger
}

func (s *AnalystService) Get(ctx context.Context, fid int64) (*models.AnalystStats, error) {
	if s == nil || s.Repo == nil {
		return nil, fmt.Errorf("analyst repo unavailable")
	}
	st, err := s.Repo.GetAnalystStats(ctx, fid)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return models.NewAnalystStats(fid), nil
	}
	return st, nil
}

// List returns every stats record, best success rate first.
func (s *AnalystService) List(ctx context.Context) ([]models.AnalystStats, error) {
	if s == nil || s.Repo == nil {
		return nil, fmt.Errorf("analyst repo unavailable")
	}
	items, err := s.Repo.ListAnalystStats(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].SuccessRate != items[j].SuccessRate {
			return items[i].SuccessRate > items[j].SuccessRate
		}
		return items[i].Fid < items[j].Fid
	})
	return items, nil
}

func (s *AnalystService) SignalCreated(ctx context.Context, fid int64) (*models.AnalystStats, error) {
	return s.Repo.UpdateAnalystStats(ctx, fid, func(st *models.AnalystStats) error {
		st.TotalSignals++
		st.ActiveSignals++
		return nil
	})
}

func (s *AnalystService) SignalExpired(ctx context.Context, fid int64) (*models.AnalystStats, error) {
	return s.Repo.UpdateAnalystStats(ctx, fid, func(st *models.AnalystStats) error {
		if st.ActiveSignals > 0 {
			st.ActiveSignals--
		}
		return nil
	})
}

func (s *AnalystService) SaleRecorded(ctx context.Context, fid int64, amount decimal.Decimal) (*models.AnalystStats, error) {
	return s.Repo.UpdateAnalystStats(ctx, fid, func(st *models.AnalystStats) error {
		st.TotalEarnings = st.TotalEarnings.Add(amount.Mul(analystShare))
		st.TotalSales++
		return nil
	})
}

// SuccessRateChanged recomputes successRate from the final ratings of every
// purchase of every signal the analyst published.
// The source records are read under the stats lock so the last writer
// always sees every earlier change.
func (s *AnalystService) SuccessRateChanged(ctx context.Context, fid int64) (*models.AnalystStats, error) {
	return s.Repo.UpdateAnalystStats(ctx, fid, func(st *models.AnalystStats) error {
		signals, err := s.signalsOf(ctx, fid)
		if err != nil {
			return err
		}
		rate, err := s.successRate(ctx, signals)
		if err != nil {
			return err
		}
		st.SuccessRate = rate
		return nil
	})
}

// RatingChanged refreshes the analyst rating from the signal ratings.
func (s *AnalystService) RatingChanged(ctx context.Context, fid int64) (*models.AnalystStats, error) {
	return s.Repo.UpdateAnalystStats(ctx, fid, func(st *models.AnalystStats) error {
		signals, err := s.signalsOf(ctx, fid)
		if err != nil {
			return err
		}
		st.Rating = analystRating(signals)
		return nil
	})
}

// Rebuild recomputes every derivable field for fid and overwrites the stored
// record. Running it twice yields the same record.
func (s *AnalystService) Rebuild(ctx context.Context, fid int64) (*models.AnalystStats, error) {
	if s == nil || s.Repo == nil {
		return nil, fmt.Errorf("analyst repo unavailable")
	}
	follows, err := s.Repo.ListAllFollows(ctx)
	if err != nil {
		return nil, err
	}
	return s.rebuild(ctx, fid, follows)
}

func (s *AnalystService) rebuild(ctx context.Context, fid int64, follows map[int64][]int64) (*models.AnalystStats, error) {
	signals, err := s.signalsOf(ctx, fid)
	if err != nil {
		return nil, err
	}
	next := models.NewAnalystStats(fid)
	next.TotalSignals = len(signals)
	for _, sig := range signals {
		if sig.Status == models.SignalStatusActive {
			next.ActiveSignals++
		}
		purchases, err := s.purchasesOf(ctx, sig.ID)
		if err != nil {
			return nil, err
		}
		for _, p := range purchases {
			next.TotalSales++
			next.TotalEarnings = next.TotalEarnings.Add(p.Amount.Mul(analystShare))
		}
	}
	next.SuccessRate, err = s.successRate(ctx, signals)
	if err != nil {
		return nil, err
	}
	next.Rating = analystRating(signals)
	for _, list := range follows {
		for _, f := range list {
			if f == fid {
				next.Followers++
				break
			}
		}
	}
	return s.Repo.UpdateAnalystStats(ctx, fid, func(st *models.AnalystStats) error {
		*st = *next
		return nil
	})
}

// RebuildAll runs Rebuild for every analyst seen in signals or stats.
func (s *AnalystService) RebuildAll(ctx context.Context) (int, error) {
	if s == nil || s.Repo == nil {
		return 0, nil
	}
	signals, err := s.Repo.ListSignals(ctx)
	if err != nil {
		return 0, err
	}
	existing, err := s.Repo.ListAnalystStats(ctx)
	if err != nil {
		return 0, err
	}
	follows, err := s.Repo.ListAllFollows(ctx)
	if err != nil {
		return 0, err
	}
	seen := map[int64]struct{}{}
	var fids []int64
	add := func(fid int64) {
		if fid <= 0 {
			return
		}
		if _, ok := seen[fid]; ok {
			return
		}
		seen[fid] = struct{}{}
		fids = append(fids, fid)
	}
	for _, sig := range signals {
		add(sig.AnalystFid)
	}
	for _, st := range existing {
		add(st.Fid)
	}
	sort.Slice(fids, func(i, j int) bool { return fids[i] < fids[j] })

	for _, fid := range fids {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if _, err := s.rebuild(ctx, fid, follows); err != nil {
			return 0, fmt.Errorf("rebuild analyst %d: %w", fid, err)
		}
	}
	if s.Logger != nil {
		s.Logger.Info("analyst stats rebuilt", zap.Int("analysts", len(fids)))
	}
	return len(fids), nil
}

func (s *AnalystService) signalsOf(ctx context.Context, fid int64) ([]models.Signal, error) {
	all, err := s.Repo.ListSignals(ctx)
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

func (s *AnalystService) purchasesOf(ctx context.Context, signalID string) ([]models.Purchase, error) {
	ids, err := s.Repo.ListSignalPurchaseIDs(ctx, signalID)
	if err != nil {
		return nil, err
	}
	return s.Repo.GetPurchases(ctx, ids)
}

func (s *AnalystService) successRate(ctx context.Context, signals []models.Signal) (int, error) {
	var success, total int
	for _, sig := range signals {
		purchases, err := s.purchasesOf(ctx, sig.ID)
		if err != nil {
			return 0, err
		}
		for _, p := range purchases {
			if p.FinalRating == nil {
				continue
			}
			total++
			if *p.FinalRating == models.FinalRatingSuccess {
				success++
			}
		}
	}
	return successPercent(success, total), nil
}

func successPercent(success, total int) int {
	if total == 0 {
		return 0
	}
	pct, err := stats.Round(100*float64(success)/float64(total), 0)
	if err != nil {
		return 0
	}
	return int(pct)
}

func analystRating(signals []models.Signal) float64 {
	var ratings []float64
	for _, sig := range signals {
		if sig.ReviewCount > 0 {
			ratings = append(ratings, sig.Rating)
		}
	}
	return roundedMean(stats.Float64Data(ratings))
}

// roundedMean is the mean rounded to one decimal, 0 for no data.
func roundedMean(data stats.Float64Data) float64 {
	if data.Len() == 0 {
		return 0
	}
	mean, err := stats.Mean(data)
	if err != nil {
		return 0
	}
	out, err := stats.Round(mean, 1)
	if err != nil {
		return 0
	}
	return out
}
