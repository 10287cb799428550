package kvstore

import (
	"context"
	"encoding/json"
	"fmt"

	"signalshub/internal/kv"
	"signalshub/internal/lock"
	"signalshub/internal/models"
	"signalshub/internal/repository"
)

type Store struct {
	kv    kv.Store
	locks *lock.Keyed
}

var _ repository.Repository = (*Store)(nil)

func New(store kv.Store) *Store {
	return &Store{kv: store, locks: lock.NewKeyed()}
}

func (s *Store) Ping(ctx context.Context) error {
	if p, ok := s.kv.(kv.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func load[T any](ctx context.Context, s kv.Store, key string) (*T, error) {
	var out T
	found, err := kv.GetJSON(ctx, s, key, &out)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	if !found {
		return nil, nil
	}
	return &out, nil
}

func save(ctx context.Context, s kv.Store, key string, v any) error {
	if err := kv.SetJSON(ctx, s, key, v, 0); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func list[T any](ctx context.Context, s kv.Store, prefix string) ([]T, error) {
	entries, err := s.GetByPrefix(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", prefix, err)
	}
	out := make([]T, 0, len(entries))
	for _, e := range entries {
		var item T
		if err := json.Unmarshal(e.Value, &item); err != nil {
			return nil, fmt.Errorf("decode %s: %w", e.Key, err)
		}
		out = append(out, item)
	}
	return out, nil
}

// mutate applies fn to the record at key under the key lock. init supplies
// the starting value when the key is missing; a nil init makes a missing key
// return nil without calling fn.
func mutate[T any](ctx context.Context, s *Store, key string, init func() *T, fn func(*T) error) (*T, error) {
	unlock := s.locks.Lock(key)
	defer unlock()

	cur, err := load[T](ctx, s.kv, key)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		if init == nil {
			return nil, nil
		}
		cur = init()
	}
	if err := fn(cur); err != nil {
		return nil, err
	}
	if err := save(ctx, s.kv, key, cur); err != nil {
		return nil, err
	}
	return cur, nil
}

func (s *Store) insert(ctx context.Context, key string, v any) (bool, error) {
	unlock := s.locks.Lock(key)
	defer unlock()

	_, found, err := s.kv.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if found {
		return false, nil
	}
	if err := save(ctx, s.kv, key, v); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) GetSignal(ctx context.Context, id string) (*models.Signal, error) {
	return load[models.Signal](ctx, s.kv, signalKey(id))
}

func (s *Store) CreateSignal(ctx context.Context, item *models.Signal) (bool, error) {
	return s.insert(ctx, signalKey(item.ID), item)
}

func (s *Store) UpdateSignal(ctx context.Context, id string, fn func(*models.Signal) error) (*models.Signal, error) {
	return mutate(ctx, s, signalKey(id), nil, fn)
}

func (s *Store) ListSignals(ctx context.Context) ([]models.Signal, error) {
	return list[models.Signal](ctx, s.kv, prefixSignal)
}

func (s *Store) GetPurchase(ctx context.Context, id string) (*models.Purchase, error) {
	return load[models.Purchase](ctx, s.kv, purchaseKey(id))
}

func (s *Store) CreatePurchase(ctx context.Context, item *models.Purchase) (bool, error) {
	return s.insert(ctx, purchaseKey(item.ID), item)
}

func (s *Store) UpdatePurchase(ctx context.Context, id string, fn func(*models.Purchase) error) (*models.Purchase, error) {
	return mutate(ctx, s, purchaseKey(id), nil, fn)
}

// GetPurchases resolves ids in order, skipping ids whose record is gone.
func (s *Store) GetPurchases(ctx context.Context, ids []string) ([]models.Purchase, error) {
	out := make([]models.Purchase, 0, len(ids))
	for _, id := range ids {
		p, err := s.GetPurchase(ctx, id)
		if err != nil {
			return nil, err
		}
		if p != nil {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *Store) ListBuyerPurchaseIDs(ctx context.Context, buyerFid int64) ([]string, error) {
	return s.stringList(ctx, userPurchasesKey(buyerFid))
}

func (s *Store) AppendBuyerPurchase(ctx context.Context, buyerFid int64, purchaseID string) error {
	return s.appendString(ctx, userPurchasesKey(buyerFid), purchaseID)
}

func (s *Store) ListSignalPurchaseIDs(ctx context.Context, signalID string) ([]string, error) {
	return s.stringList(ctx, signalPurchasesKey(signalID))
}

func (s *Store) AppendSignalPurchase(ctx context.Context, signalID string, purchaseID string) error {
	return s.appendString(ctx, signalPurchasesKey(signalID), purchaseID)
}

func (s *Store) stringList(ctx context.Context, key string) ([]string, error) {
	ids, err := load[[]string](ctx, s.kv, key)
	if err != nil || ids == nil {
		return []string{}, err
	}
	return *ids, nil
}

func (s *Store) appendString(ctx context.Context, key, value string) error {
	_, err := mutate(ctx, s, key, func() *[]string { return &[]string{} }, func(ids *[]string) error {
		for _, id := range *ids {
			if id == value {
				return nil
			}
		}
		*ids = append(*ids, value)
		return nil
	})
	return err
}

func (s *Store) GetAnalystStats(ctx context.Context, fid int64) (*models.AnalystStats, error) {
	return load[models.AnalystStats](ctx, s.kv, statsKey(fid))
}

func (s *Store) UpdateAnalystStats(ctx context.Context, fid int64, fn func(*models.AnalystStats) error) (*models.AnalystStats, error) {
	return mutate(ctx, s, statsKey(fid), func() *models.AnalystStats { return models.NewAnalystStats(fid) }, fn)
}

func (s *Store) ListAnalystStats(ctx context.Context) ([]models.AnalystStats, error) {
	return list[models.AnalystStats](ctx, s.kv, prefixAnalystStats)
}

func (s *Store) ListNotifications(ctx context.Context, fid int64) ([]models.Notification, error) {
	items, err := load[[]models.Notification](ctx, s.kv, notificationsKey(fid))
	if err != nil || items == nil {
		return []models.Notification{}, err
	}
	return *items, nil
}

func (s *Store) UpdateNotifications(ctx context.Context, fid int64, fn func([]models.Notification) ([]models.Notification, error)) ([]models.Notification, error) {
	out, err := mutate(ctx, s, notificationsKey(fid),
		func() *[]models.Notification { return &[]models.Notification{} },
		func(items *[]models.Notification) error {
			next, err := fn(*items)
			if err != nil {
				return err
			}
			*items = next
			return nil
		})
	if err != nil {
		return nil, err
	}
	return *out, nil
}

func (s *Store) ListFollows(ctx context.Context, fid int64) ([]int64, error) {
	items, err := load[[]int64](ctx, s.kv, followsKey(fid))
	if err != nil || items == nil {
		return []int64{}, err
	}
	return *items, nil
}

func (s *Store) UpdateFollows(ctx context.Context, fid int64, fn func([]int64) ([]int64, error)) ([]int64, error) {
	out, err := mutate(ctx, s, followsKey(fid),
		func() *[]int64 { return &[]int64{} },
		func(items *[]int64) error {
			next, err := fn(*items)
			if err != nil {
				return err
			}
			*items = next
			return nil
		})
	if err != nil {
		return nil, err
	}
	return *out, nil
}

func (s *Store) ListAllFollows(ctx context.Context) (map[int64][]int64, error) {
	entries, err := s.kv.GetByPrefix(ctx, prefixFollows)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", prefixFollows, err)
	}
	out := make(map[int64][]int64, len(entries))
	for _, e := range entries {
		fid, ok := fidFromKey(e.Key, prefixFollows)
		if !ok {
			continue
		}
		var follows []int64
		if err := json.Unmarshal(e.Value, &follows); err != nil {
			return nil, fmt.Errorf("decode %s: %w", e.Key, err)
		}
		out[fid] = follows
	}
	return out, nil
}

func (s *Store) ListSignalRatings(ctx context.Context, signalID string) ([]int, error) {
	items, err := load[[]int](ctx, s.kv, signalRatingsKey(signalID))
	if err != nil || items == nil {
		return []int{}, err
	}
	return *items, nil
}

func (s *Store) AppendSignalRating(ctx context.Context, signalID string, stars int) ([]int, error) {
	out, err := mutate(ctx, s, signalRatingsKey(signalID),
		func() *[]int { return &[]int{} },
		func(items *[]int) error {
			*items = append(*items, stars)
			return nil
		})
	if err != nil {
		return nil, err
	}
	return *out, nil
}

func (s *Store) GetIdempotencyResult(ctx context.Context, scope, key string) (string, error) {
	id, err := load[string](ctx, s.kv, idempotencyKey(scope, key))
	if err != nil || id == nil {
		return "", err
	}
	return *id, nil
}

func (s *Store) SaveIdempotencyResult(ctx context.Context, scope, key, resultID string) error {
	return kv.SetJSON(ctx, s.kv, idempotencyKey(scope, key), resultID, repository.IdempotencyTTL)
}

func (s *Store) ClaimPaymentTx(ctx context.Context, hash, purchaseRef string) (bool, error) {
	return s.insert(ctx, paymentTxKey(hash), purchaseRef)
}

func (s *Store) ReleasePaymentTx(ctx context.Context, hash string) error {
	key := paymentTxKey(hash)
	unlock := s.locks.Lock(key)
	defer unlock()
	if err := s.kv.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
