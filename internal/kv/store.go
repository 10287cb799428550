package kv

import (
	"context"
	"encoding/json"
	"time"
)

// Store is the flat key-value namespace every record lives in.
// Keys are prefixed by record kind ("signal:", "purchase:", ...).
type Store interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// GetByPrefix returns live entries whose key starts with prefix, sorted by key.
	GetByPrefix(ctx context.Context, prefix string) ([]Entry, error)
}

type Entry struct {
	Key   string
	Value []byte
}

// Pinger is implemented by backends that can report connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

func GetJSON(ctx context.Context, s Store, key string, dst any) (bool, error) {
	b, found, err := s.Get(ctx, key)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return false, err
	}
	return true, nil
}

func SetJSON(ctx context.Context, s Store, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, b, ttl)
}
