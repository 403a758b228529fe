package store

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// ErrStoreUnavailable is matched by every backend failure.
var ErrStoreUnavailable = errors.New("store unavailable")

// KeyValue is the durable store contract: atomic single key reads and writes,
// no transactions and no partial updates. Get returns nil for absent keys.
type KeyValue interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}

// UnavailableError wraps a backend failure for one key.
type UnavailableError struct {
	Op  string
	Key string
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Key, ErrStoreUnavailable, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

func (e *UnavailableError) Is(target error) bool { return target == ErrStoreUnavailable }

// Unavailable wraps err for backends implementing KeyValue.
func Unavailable(op, key string, err error) error {
	return &UnavailableError{Op: op, Key: key, Err: err}
}
