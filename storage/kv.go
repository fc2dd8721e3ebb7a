package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key holds no value.
var ErrNotFound = errors.New("storage: key not found")

// ErrUnavailable wraps backend failures (network, driver, closed handle).
var ErrUnavailable = errors.New("storage: backend unavailable")

// KV is a durable byte store keyed by string.
//
// Implementations must be safe for concurrent use. Delete of a missing key is not
// an error.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Pinger is implemented by backends that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Ping checks kv when it implements Pinger and reports nil otherwise.
func Ping(ctx context.Context, kv KV) error {
	p, ok := kv.(Pinger)
	if !ok {
		return nil
	}
	return p.Ping(ctx)
}
