// Package blacklist stores revoked tokens until they expire on their own.
package blacklist

import (
	"context"
	"time"
)

// Store is a set of revoked tokens with per-token expiry.
type Store interface {
	// Exists reports whether token is currently revoked.
	Exists(ctx context.Context, token string) (bool, error)
	// Add revokes token for ttl. Non-positive ttl is a no-op.
	Add(ctx context.Context, token string, ttl time.Duration) error
}
