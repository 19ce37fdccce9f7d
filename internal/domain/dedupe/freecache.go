package dedupe

import (
	"context"

	"github.com/coocood/freecache"
)

const (
	megabyte = 1024 * 1024

	// DefaultCacheBytes sizes the freecache backend when no size is given.
	DefaultCacheBytes = 32 * megabyte

	// IDs carry no payload; a one byte marker keeps entries small.
	seenMarker = 1
)

// freecacheDeduper keeps IDs in a fixed-size freecache. Memory stays bounded
// by bytes rather than entries, and old IDs are evicted once a segment fills.
type freecacheDeduper struct {
	cache      *freecache.Cache
	expiration int // seconds, 0 keeps IDs until evicted
}

// NewFreecacheDeduper creates a deduper backed by a cache of sizeBytes.
// freecache enforces its own minimum size of 512KB.
func NewFreecacheDeduper(sizeBytes int, opts ...FreecacheOption) Deduper {
	if sizeBytes <= 0 {
		sizeBytes = DefaultCacheBytes
	}
	d := &freecacheDeduper{cache: freecache.NewCache(sizeBytes)}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SeenAndRecord implements Deduper.
func (d *freecacheDeduper) SeenAndRecord(_ context.Context, id string) bool {
	prev, err := d.cache.GetOrSet([]byte(id), []byte{seenMarker}, d.expiration)
	if err != nil {
		// the id is larger than a cache entry can hold; treat it as new
		return false
	}
	return prev != nil
}

// Unrecord implements Deduper.
func (d *freecacheDeduper) Unrecord(_ context.Context, id string) {
	d.cache.Del([]byte(id))
}

// Size returns the number of IDs currently remembered.
func (d *freecacheDeduper) Size() int64 {
	return d.cache.EntryCount()
}
