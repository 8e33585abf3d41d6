// Package dedup implements the near-duplicate image index: registered
// fingerprint records, an LSH bucket map for sub-linear candidate retrieval,
// and a two-stage Hamming confirmation over independent hash families.
package dedup

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bananahana720/PHX-houses-Dec-2025-sub010/internal/pkg/hash"
	"github.com/bananahana720/PHX-houses-Dec-2025-sub010/internal/pkg/lsh"
)

// ErrThreshold indicates a similarity threshold outside the fingerprint's
// bit range.
var ErrThreshold = errors.New("similarity threshold out of range")

// ImageRecord is the unit stored per registered image.
type ImageRecord struct {
	ImageID      string
	PropertyID   string
	Source       string
	PHash        hash.Fingerprint
	DHash        hash.Fingerprint
	RegisteredAt time.Time

	// seq preserves insertion order so candidate walks are deterministic.
	seq uint64
	// hasDHash is false for records recovered from a degraded file that was
	// missing the secondary hash; such records are skipped by FindDuplicate.
	hasDHash bool
}

// Index owns the record store and the derived LSH bucket map. The bucket map
// is always rebuildable from the records plus the banding configuration and
// is never independently authoritative.
//
// All mutations take the write lock; queries take the read lock. Bucket and
// record state must move together, so there is no finer-grained locking.
type Index struct {
	mu        sync.RWMutex
	bander    *lsh.Bander
	threshold int
	records   map[string]*ImageRecord
	buckets   map[lsh.BandKey]map[string]struct{}
	nextSeq   uint64
}

// NewIndex creates an empty index. numBands must evenly divide the
// fingerprint hex length; threshold is the maximum Hamming distance in bits
// still considered a duplicate.
func NewIndex(numBands, threshold int) (*Index, error) {
	bander, err := lsh.NewBander(numBands)
	if err != nil {
		return nil, err
	}
	if threshold < 0 || threshold > hash.FingerprintBits {
		return nil, fmt.Errorf("%w: %d", ErrThreshold, threshold)
	}
	return &Index{
		bander:    bander,
		threshold: threshold,
		records:   make(map[string]*ImageRecord),
		buckets:   make(map[lsh.BandKey]map[string]struct{}),
	}, nil
}

// NumBands returns the configured band count.
func (idx *Index) NumBands() int { return idx.bander.NumBands() }

// Threshold returns the configured maximum Hamming distance.
func (idx *Index) Threshold() int { return idx.threshold }

// Register stores or overwrites the record for imageID and files it into the
// LSH buckets. Re-registering an existing ID removes its old bucket
// memberships first so no stale entries survive a hash change.
func (idx *Index) Register(imageID, propertyID, source string, pair hash.HashPair) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.insertLocked(&ImageRecord{
		ImageID:      imageID,
		PropertyID:   propertyID,
		Source:       source,
		PHash:        pair.PHash,
		DHash:        pair.DHash,
		RegisteredAt: time.Now().UTC(),
		hasDHash:     true,
	})
}

// insertLocked files rec under its image ID, evicting any previous bucket
// memberships for that ID. Caller holds the write lock.
func (idx *Index) insertLocked(rec *ImageRecord) {
	if old, ok := idx.records[rec.ImageID]; ok {
		idx.unbucketLocked(old)
	}
	rec.seq = idx.nextSeq
	idx.nextSeq++
	idx.records[rec.ImageID] = rec
	for _, key := range idx.bander.BandKeys(rec.PHash) {
		bucket, ok := idx.buckets[key]
		if !ok {
			bucket = make(map[string]struct{})
			idx.buckets[key] = bucket
		}
		bucket[rec.ImageID] = struct{}{}
	}
}

// unbucketLocked removes rec's ID from every bucket it was filed under,
// deleting buckets that become empty. Caller holds the write lock.
func (idx *Index) unbucketLocked(rec *ImageRecord) {
	for _, key := range idx.bander.BandKeys(rec.PHash) {
		bucket, ok := idx.buckets[key]
		if !ok {
			continue
		}
		delete(bucket, rec.ImageID)
		if len(bucket) == 0 {
			delete(idx.buckets, key)
		}
	}
}

// Remove deletes imageID from the record store and every bucket. Returns
// false if the ID was not registered; speculative removal is not an error.
func (idx *Index) Remove(imageID string) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	rec, ok := idx.records[imageID]
	if !ok {
		return false
	}
	idx.unbucketLocked(rec)
	delete(idx.records, imageID)
	return true
}

// Clear drops all records and all buckets.
func (idx *Index) Clear() {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.records = make(map[string]*ImageRecord)
	idx.buckets = make(map[lsh.BandKey]map[string]struct{})
}

// Len returns the number of registered records.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.records)
}

// Get returns a copy of the record for imageID.
func (idx *Index) Get(imageID string) (ImageRecord, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	rec, ok := idx.records[imageID]
	if !ok {
		return ImageRecord{}, false
	}
	return *rec, true
}

// Candidates returns the IDs of every registered image sharing at least one
// phash band with the query, in registration order. This is the only set the
// exact-distance comparison ever walks.
func (idx *Index) Candidates(phash hash.Fingerprint) []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.candidatesLocked(phash)
}

func (idx *Index) candidatesLocked(phash hash.Fingerprint) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, key := range idx.bander.BandKeys(phash) {
		for id := range idx.buckets[key] {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		return idx.records[ids[i]].seq < idx.records[ids[j]].seq
	})
	return ids
}

// FindDuplicate reports the first registered image, in registration order,
// whose phash is within the threshold of the query and whose dhash confirms
// the match. A single hash family can collide on featureless or repetitive
// photos; both families must agree before an image is called a duplicate.
func (idx *Index) FindDuplicate(pair hash.HashPair) (string, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	for _, id := range idx.candidatesLocked(pair.PHash) {
		rec := idx.records[id]
		if !rec.hasDHash {
			continue
		}
		if rec.PHash.Hamming(pair.PHash) > idx.threshold {
			continue
		}
		if rec.DHash.Hamming(pair.DHash) > idx.threshold {
			continue
		}
		return id, true
	}
	return "", false
}
