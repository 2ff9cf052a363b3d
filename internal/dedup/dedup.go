// Package dedup suppresses re-emission of the same opportunity fingerprint
// within a time-to-live window.
package dedup

import (
	"context"
	"time"
)

// DefaultTTL is the dedup window used when none is configured.
const DefaultTTL = 180 * time.Second

// Cache remembers fingerprints for a TTL window.
//
// CheckAndAdd returns true exactly once per fingerprint per window; repeated
// calls inside the window return false and calls after it elapses return
// true again.
type Cache interface {
	Has(ctx context.Context, fingerprint string) (bool, error)
	Add(ctx context.Context, fingerprint string) error
	CheckAndAdd(ctx context.Context, fingerprint string) (bool, error)

	// Cleanup sweeps expired entries and returns how many were removed.
	Cleanup(ctx context.Context) (int, error)
	Size(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}
