// Package bloom provides a redis-backed bloom filter over opaque byte keys,
// shared across service replicas. A negative answer means the key was
// definitely never added; a positive answer still requires confirmation by
// the caller.
package bloom

import (
	"context"
	_ "embed"
	"errors"

	"github.com/bananahana720/PHX-houses-Dec-2025-sub010/internal/pkg/hash"
	"github.com/bananahana720/PHX-houses-Dec-2025-sub010/internal/pkg/redis"
)

var (
	// ErrTooLargeOffset indicates the offset is too large in bitset.
	ErrTooLargeOffset = errors.New("too large offset")

	//go:embed set_script.lua
	setLuaScript string
	setScript    = redis.NewScript(setLuaScript)

	//go:embed get_script.lua
	getLuaScript string
	getScript    = redis.NewScript(getLuaScript)
)

// Filter is a bloom filter whose bitset lives in a BitSetProvider, by
// default a redis bitmap.
type Filter struct {
	bitSet         BitSetProvider
	bits           uint
	kHashFunctions uint
}

// New creates a Filter backed by the given cache under key.
func New(store redis.Cache, key string, bits, kHashFunctions uint) *Filter {
	return NewWithBitSet(newRedisBitSet(store, key, bits), bits, kHashFunctions)
}

// NewWithBitSet creates a Filter over an arbitrary bitset backend.
func NewWithBitSet(bitSet BitSetProvider, bits, kHashFunctions uint) *Filter {
	return &Filter{
		bitSet:         bitSet,
		bits:           bits,
		kHashFunctions: kHashFunctions,
	}
}

// locations computes the bit locations for the given key bytes.
func (f *Filter) locations(key []byte) []uint {
	locations := make([]uint, f.kHashFunctions)
	for i := uint(0); i < f.kHashFunctions; i++ {
		hashVal := hash.Hash(append(key, byte(i)))
		locations[i] = uint(hashVal % uint64(f.bits))
	}
	return locations
}

// Add records a key in the filter.
func (f *Filter) Add(ctx context.Context, key []byte) error {
	return f.bitSet.Set(ctx, f.locations(key))
}

// MayContain reports whether key may have been added. False is definitive.
func (f *Filter) MayContain(ctx context.Context, key []byte) (bool, error) {
	return f.bitSet.Check(ctx, f.locations(key))
}

// Reset drops the filter's backing bitset, e.g. before a full re-ingestion.
func (f *Filter) Reset(ctx context.Context) error {
	return f.bitSet.Del(ctx)
}
