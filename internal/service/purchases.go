package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"signalshub/internal/apperr"
	"signalshub/internal/lock"
	"signalshub/internal/metrics"
	"signalshub/internal/models"
	"signalshub/internal/repository"
)

const idempotencyScopePurchase = "purchase"

type PurchaseInput struct {
	SignalID        string
	BuyerFid        int64
	Amount          decimal.Decimal
	TransactionHash string
	IdempotencyKey  string
}

// PurchaseService is the ledger of signal sales.
type PurchaseService struct {
	Repo          repository.Repository
	Analysts      *AnalystService
	Notifications *NotificationService
	Verifier      PaymentVerifier
	Logger        *zap.Logger
	Metrics       *metrics.Metrics
	Now           func() time.Time

	inflight lock.Keyed
}

// Purchase records a sale and applies its side effects in order: purchase
// record, buyer and signal indexes, signal purchaseCount, analyst stats,
// analyst notification. Steps are not transactional across records.
func (s *PurchaseService) Purchase(ctx context.Context, in PurchaseInput) (*models.Purchase, error) {
	if s == nil || s.Repo == nil {
		return nil, fmt.Errorf("purchase repo unavailable")
	}
	in.SignalID = strings.TrimSpace(in.SignalID)
	in.IdempotencyKey = strings.TrimSpace(in.IdempotencyKey)
	if in.SignalID == "" {
		return nil, fmt.Errorf("%w: signalId is required", apperr.ErrInvalidInput)
	}
	if in.BuyerFid <= 0 {
		return nil, fmt.Errorf("%w: buyerFid must be positive", apperr.ErrInvalidInput)
	}
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", apperr.ErrInvalidInput)
	}

	if in.IdempotencyKey != "" {
		unlock := s.inflight.Lock(in.IdempotencyKey)
		defer unlock()
		prev, err := s.replay(ctx, in.IdempotencyKey)
		if err != nil || prev != nil {
			return prev, err
		}
	}

	sig, err := s.Repo.GetSignal(ctx, in.SignalID)
	if err != nil {
		return nil, err
	}
	if sig == nil {
		return nil, fmt.Errorf("%w: signal %s", apperr.ErrNotFound, in.SignalID)
	}

	// Verified payments bind their transaction hash to a single purchase.
	claimed := ""
	if s.Verifier != nil {
		if err := s.Verifier.VerifyPayment(ctx, in.TransactionHash, in.Amount); err != nil {
			return nil, fmt.Errorf("verify payment: %w", err)
		}
		hash := strings.ToLower(strings.TrimSpace(in.TransactionHash))
		ok, err := s.Repo.ClaimPaymentTx(ctx, hash, fmt.Sprintf("%d_%s", in.BuyerFid, in.SignalID))
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: transaction %s already used", apperr.ErrConflict, hash)
		}
		claimed = hash
	}

	p := &models.Purchase{
		SignalID:        in.SignalID,
		BuyerFid:        in.BuyerFid,
		Amount:          in.Amount,
		TransactionHash: in.TransactionHash,
		Timestamp:       nowFrom(s.Now),
	}
	ms := p.Timestamp.UnixMilli()
	for {
		p.ID = fmt.Sprintf("%d_%s_%d", in.BuyerFid, in.SignalID, ms)
		created, err := s.Repo.CreatePurchase(ctx, p)
		if err != nil {
			if claimed != "" {
				if rerr := s.Repo.ReleasePaymentTx(ctx, claimed); rerr != nil && s.Logger != nil {
					s.Logger.Warn("release payment tx failed", zap.String("tx", claimed), zap.Error(rerr))
				}
			}
			return nil, err
		}
		if created {
			break
		}
		ms++
	}

	if err := s.Repo.AppendBuyerPurchase(ctx, p.BuyerFid, p.ID); err != nil {
		return nil, err
	}
	if err := s.Repo.AppendSignalPurchase(ctx, p.SignalID, p.ID); err != nil {
		return nil, err
	}
	updated, err := s.Repo.UpdateSignal(ctx, p.SignalID, func(sig *models.Signal) error {
		sig.PurchaseCount++
		return nil
	})
	if err != nil {
		return nil, err
	}
	if updated != nil {
		sig = updated
	}
	if _, err := s.Analysts.SaleRecorded(ctx, sig.AnalystFid, p.Amount); err != nil {
		return nil, fmt.Errorf("update analyst stats: %w", err)
	}

	amount := p.Amount
	_, err = s.Notifications.Push(ctx, models.Notification{
		UserFid:  sig.AnalystFid,
		Type:     models.NotificationPurchaseSuccess,
		SignalID: sig.ID,
		BuyerFid: p.BuyerFid,
		Amount:   &amount,
		Message:  fmt.Sprintf("New sale! User purchased \"%s\" for %s ETH", sig.Title, p.Amount.StringFixed(3)),
	})
	if err != nil && s.Logger != nil {
		s.Logger.Warn("sale notification failed", zap.String("purchase_id", p.ID), zap.Error(err))
	}

	if in.IdempotencyKey != "" {
		if err := s.Repo.SaveIdempotencyResult(ctx, idempotencyScopePurchase, in.IdempotencyKey, p.ID); err != nil {
			return nil, err
		}
	}
	s.Metrics.PurchaseRecorded(p.Amount.InexactFloat64())
	if s.Logger != nil {
		s.Logger.Info("purchase recorded",
			zap.String("purchase_id", p.ID),
			zap.String("signal_id", p.SignalID),
			zap.Int64("buyer_fid", p.BuyerFid),
			zap.String("amount", p.Amount.String()),
		)
	}
	return p, nil
}

func (s *PurchaseService) replay(ctx context.Context, key string) (*models.Purchase, error) {
	id, err := s.Repo.GetIdempotencyResult(ctx, idempotencyScopePurchase, key)
	if err != nil || id == "" {
		return nil, err
	}
	return s.Repo.GetPurchase(ctx, id)
}

func (s *PurchaseService) ListByBuyer(ctx context.Context, buyerFid int64) ([]models.Purchase, error) {
	if s == nil || s.Repo == nil {
		return nil, fmt.Errorf("purchase repo unavailable")
	}
	ids, err := s.Repo.ListBuyerPurchaseIDs(ctx, buyerFid)
	if err != nil {
		return nil, err
	}
	return s.Repo.GetPurchases(ctx, ids)
}

// HasPurchased reports whether any of the buyer's purchases is for signalID.
func (s *PurchaseService) HasPurchased(ctx context.Context, buyerFid int64, signalID string) (bool, error) {
	items, err := s.ListByBuyer(ctx, buyerFid)
	if err != nil {
		return false, err
	}
	for _, p := range items {
		if p.SignalID == signalID {
			return true, nil
		}
	}
	return false, nil
}
