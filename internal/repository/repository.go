package repository

import (
	"context"
	"time"

	"signalshub/internal/models"
)

// IdempotencyTTL is how long a replayable result id is kept.
const IdempotencyTTL = 24 * time.Hour

// Repository is the typed view over the key-value namespace. Getters return
// nil, nil for missing records. Update* helpers run load-modify-save under a
// lock on that one key; fn may return an error to abort without saving.
type Repository interface {
	// signal:<id>
	GetSignal(ctx context.Context, id string) (*models.Signal, error)
	CreateSignal(ctx context.Context, item *models.Signal) (bool, error)
	UpdateSignal(ctx context.Context, id string, fn func(*models.Signal) error) (*models.Signal, error)
	ListSignals(ctx context.Context) ([]models.Signal, error)

	// purchase:<id>
	GetPurchase(ctx context.Context, id string) (*models.Purchase, error)
	CreatePurchase(ctx context.Context, item *models.Purchase) (bool, error)
	UpdatePurchase(ctx context.Context, id string, fn func(*models.Purchase) error) (*models.Purchase, error)
	GetPurchases(ctx context.Context, ids []string) ([]models.Purchase, error)

	// user_purchases:<fid> and signal_purchases:<signalId>
	ListBuyerPurchaseIDs(ctx context.Context, buyerFid int64) ([]string, error)
	AppendBuyerPurchase(ctx context.Context, buyerFid int64, purchaseID string) error
	ListSignalPurchaseIDs(ctx context.Context, signalID string) ([]string, error)
	AppendSignalPurchase(ctx context.Context, signalID string, purchaseID string) error

	// analyst_stats:<fid>; UpdateAnalystStats starts from a zeroed record.
	GetAnalystStats(ctx context.Context, fid int64) (*models.AnalystStats, error)
	UpdateAnalystStats(ctx context.Context, fid int64, fn func(*models.AnalystStats) error) (*models.AnalystStats, error)
	ListAnalystStats(ctx context.Context) ([]models.AnalystStats, error)

	// user_notifications:<fid>, newest first.
	ListNotifications(ctx context.Context, fid int64) ([]models.Notification, error)
	UpdateNotifications(ctx context.Context, fid int64, fn func([]models.Notification) ([]models.Notification, error)) ([]models.Notification, error)

	// user_follows:<fid>
	ListFollows(ctx context.Context, fid int64) ([]int64, error)
	UpdateFollows(ctx context.Context, fid int64, fn func([]int64) ([]int64, error)) ([]int64, error)
	ListAllFollows(ctx context.Context) (map[int64][]int64, error)

	// signal_ratings:<signalId>
	ListSignalRatings(ctx context.Context, signalID string) ([]int, error)
	AppendSignalRating(ctx context.Context, signalID string, stars int) ([]int, error)

	// idempotency:<scope>:<key>
	GetIdempotencyResult(ctx context.Context, scope, key string) (string, error)
	SaveIdempotencyResult(ctx context.Context, scope, key, resultID string) error

	// payment_tx:<hash>. Claim reports false when the hash is already bound
	// to another purchase.
	ClaimPaymentTx(ctx context.Context, hash, purchaseRef string) (bool, error)
	ReleasePaymentTx(ctx context.Context, hash string) error

	Ping(ctx context.Context) error
}
