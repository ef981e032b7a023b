// Package intern provides a content-hash keyed dedup cache used while
// walking the DEX map.
//
// Several variable sections recur verbatim across many classes in a real
// DEX file: an empty type_list, a handful of common annotation sets, a
// class_data_item with no static fields. Decoding each occurrence
// independently is wasted work. intern.Cache keys decoded results by the
// xxHash64 of their source bytes, the same O(1) lookup idea the teacher
// corpus uses for metric-ID indexing, applied here to section payloads
// instead of metric names.
//
// A bare hash key lets two distinct payloads that happen to collide on
// xxHash64 silently return each other's decoded value. The teacher corpus
// hits this same "hash-to-value" shape in internal/collision.Tracker
// (metric-name hash collisions); Cache guards against it the same way
// Tracker's TrackMetric does: it keeps the raw bytes alongside the cached
// value and compares on lookup, so a same-hash/different-bytes payload is
// decoded fresh rather than trusted.
package intern

import (
	"bytes"

	"github.com/cespare/xxhash/v2"
)

// Key computes the xxHash64 of data, used to identify identical byte
// payloads within a single parse pass.
func Key(data []byte) uint64 {
	return xxhash.Sum64(data)
}

type entry[T any] struct {
	raw   []byte
	value T
}

// Cache deduplicates decoded values of type T by the hash of the raw bytes
// they were decoded from, verifying the raw bytes on every hit to guard
// against xxHash64 collisions between distinct payloads.
//
// Cache is not safe for concurrent use; each parse pass owns its own cache
// instance, matching the single-threaded, synchronous parser described in
// spec.md §5.
type Cache[T any] struct {
	entries    map[uint64]entry[T]
	collisions int
}

// New creates an empty Cache with capacity hint for the expected number of
// distinct payloads.
func New[T any](sizeHint int) *Cache[T] {
	return &Cache[T]{entries: make(map[uint64]entry[T], sizeHint)}
}

// Intern returns the cached value for raw if its bytes were already
// decoded, or calls decode, caches, and returns its result otherwise.
//
// raw must reference stable storage for the lifetime of the Cache (a slice
// into the immutable source image, not a reused scratch buffer), since a
// cache hit compares against the bytes recorded at the original Intern
// call rather than copying them.
//
// decode is only invoked on a cache miss, including a hash collision
// (same hash, different bytes) — the colliding payload is decoded fresh
// and left out of the cache rather than allowed to either evict or be
// mistaken for the entry already stored under that hash.
func (c *Cache[T]) Intern(raw []byte, decode func() (T, error)) (T, error) {
	h := Key(raw)
	if e, ok := c.entries[h]; ok {
		if bytes.Equal(e.raw, raw) {
			return e.value, nil
		}

		c.collisions++

		return decode()
	}

	v, err := decode()
	if err != nil {
		var zero T

		return zero, err
	}

	c.entries[h] = entry[T]{raw: raw, value: v}

	return v, nil
}

// Len reports the number of distinct payloads interned so far.
func (c *Cache[T]) Len() int { return len(c.entries) }

// Collisions reports how many Intern calls hit a hash match whose raw
// bytes differed from the cached entry and had to be decoded fresh.
func (c *Cache[T]) Collisions() int { return c.collisions }
