package assess

import (
	"sort"
	"strconv"
	"sync"

	"github.com/bananahana720/PHX-houses-Dec-2025-sub010/internal/pkg/hash"
)

const ringReplicas = 100

// Ring distributes image IDs across assessment endpoints with consistent
// hashing, so the same image keeps hitting the same replica and replica
// changes only remap a small share of the keyspace.
type Ring struct {
	lock      sync.RWMutex
	ring      map[uint64]string
	endpoints map[string]struct{}
	keys      []uint64
}

// NewRing creates an empty ring.
func NewRing() *Ring {
	return &Ring{
		ring:      make(map[uint64]string),
		endpoints: make(map[string]struct{}),
	}
}

// Add inserts an endpoint with ringReplicas virtual nodes.
func (r *Ring) Add(endpoint string) {
	r.Remove(endpoint)

	r.lock.Lock()
	defer r.lock.Unlock()

	r.endpoints[endpoint] = struct{}{}
	for i := 0; i < ringReplicas; i++ {
		key := hash.Hash([]byte(endpoint + strconv.Itoa(i)))
		r.keys = append(r.keys, key)
		r.ring[key] = endpoint
	}
	sort.Slice(r.keys, func(i, j int) bool {
		return r.keys[i] < r.keys[j]
	})
}

// Remove deletes an endpoint and its virtual nodes.
func (r *Ring) Remove(endpoint string) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.endpoints[endpoint]; !ok {
		return
	}
	delete(r.endpoints, endpoint)

	for i := 0; i < ringReplicas; i++ {
		key := hash.Hash([]byte(endpoint + strconv.Itoa(i)))
		idx := sort.Search(len(r.keys), func(j int) bool {
			return r.keys[j] >= key
		})
		if idx < len(r.keys) && r.keys[idx] == key {
			r.keys = append(r.keys[:idx], r.keys[idx+1:]...)
		}
		delete(r.ring, key)
	}
}

// Get returns the endpoint responsible for the given image ID.
func (r *Ring) Get(imageID string) (string, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	if len(r.keys) == 0 {
		return "", false
	}

	key := hash.Hash([]byte(imageID))
	idx := sort.Search(len(r.keys), func(i int) bool {
		return r.keys[i] >= key
	}) % len(r.keys)

	return r.ring[r.keys[idx]], true
}
