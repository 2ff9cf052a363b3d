// Package cache provides a small TTL cache used for provider lookups.
package cache

import "time"

// Cache stores arbitrary values with a TTL.
type Cache interface {
	// Get returns (value, true) on a hit and (nil, false) on a miss or expiry.
	Get(key string) (any, bool)

	// Set stores value under key for ttl. It may be dropped by admission.
	Set(key string, value any, ttl time.Duration) bool

	Delete(key string)
	Clear()
	Close()
}
