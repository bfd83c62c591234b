// Package index holds the in-memory lookup structures rebuilt from the store
// at startup. None of the types here lock; the owning service does.
package index

import "github.com/cespare/xxhash/v2"

// DefaultBuckets is the bucket count used for the student table
const DefaultBuckets = 1000

type entry[V any] struct {
	key   string
	value V
}

// HashTable is a fixed-size bucketed map keyed by string. Collisions chain
// into a per-bucket slice that is scanned linearly. It never resizes and
// has no removal.
type HashTable[V any] struct {
	buckets [][]entry[V]
	count   int
}

// NewHashTable creates a table with n buckets (DefaultBuckets when n < 1)
func NewHashTable[V any](n int) *HashTable[V] {
	if n < 1 {
		n = DefaultBuckets
	}
	return &HashTable[V]{buckets: make([][]entry[V], n)}
}

func (t *HashTable[V]) bucket(key string) int {
	return int(xxhash.Sum64String(key) % uint64(len(t.buckets)))
}

// Insert stores value under key, replacing any previous value for key
func (t *HashTable[V]) Insert(key string, value V) {
	b := t.bucket(key)
	for i := range t.buckets[b] {
		if t.buckets[b][i].key == key {
			t.buckets[b][i].value = value
			return
		}
	}
	t.buckets[b] = append(t.buckets[b], entry[V]{key: key, value: value})
	t.count++
}

// Find returns the value stored under key
func (t *HashTable[V]) Find(key string) (V, bool) {
	for _, e := range t.buckets[t.bucket(key)] {
		if e.key == key {
			return e.value, true
		}
	}
	var zero V
	return zero, false
}

// Len returns the number of distinct keys
func (t *HashTable[V]) Len() int {
	return t.count
}

// Each calls fn for every entry in bucket order
func (t *HashTable[V]) Each(fn func(key string, value V)) {
	for _, b := range t.buckets {
		for _, e := range b {
			fn(e.key, e.value)
		}
	}
}
