package dedupe

import "time"

// Option configures the in-memory deduper.
type Option func(*inMemoryDeduper)

// WithMaxSize sets how many IDs are remembered. Once full the oldest ID is
// forgotten first. maxSize <= 0 keeps every ID.
func WithMaxSize(maxSize int) Option {
	return func(d *inMemoryDeduper) {
		d.maxSize = maxSize
	}
}

// FreecacheOption configures the freecache deduper.
type FreecacheOption func(*freecacheDeduper)

// WithExpiration forgets IDs after ttl. ttl below one second keeps them until
// the cache evicts them.
func WithExpiration(ttl time.Duration) FreecacheOption {
	return func(d *freecacheDeduper) {
		d.expiration = int(ttl / time.Second)
	}
}
