package state

import (
	"context"
	"time"
)

// TTL is how long a persisted value survives after its last write.
const TTL = 365 * 24 * time.Hour

// Store is the persistence backend behind a cell. Implementations are
// expected to honor TTL from the moment of each Set.
type Store interface {
	// Get returns the persisted bytes for name, or ok=false when no
	// value is stored under that name.
	Get(ctx context.Context, name string) (data []byte, ok bool, err error)
	Set(ctx context.Context, name string, data []byte) error
}
