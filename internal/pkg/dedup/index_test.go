package dedup

import (
	"errors"
	"fmt"
	"testing"

	"github.com/bananahana720/PHX-houses-Dec-2025-sub010/internal/pkg/hash"
	"github.com/bananahana720/PHX-houses-Dec-2025-sub010/internal/pkg/lsh"
)

func mustIndex(t *testing.T, numBands, threshold int) *Index {
	t.Helper()
	idx, err := NewIndex(numBands, threshold)
	if err != nil {
		t.Fatalf("NewIndex(%d, %d) failed: %v", numBands, threshold, err)
	}
	return idx
}

func pair(phash, dhash hash.Fingerprint) hash.HashPair {
	return hash.HashPair{PHash: phash, DHash: dhash}
}

func TestNewIndex_InvalidConfig(t *testing.T) {
	if _, err := NewIndex(3, 10); !errors.Is(err, lsh.ErrBandCount) {
		t.Errorf("NewIndex(3, 10) error = %v; want ErrBandCount", err)
	}
	if _, err := NewIndex(4, -1); !errors.Is(err, ErrThreshold) {
		t.Errorf("NewIndex(4, -1) error = %v; want ErrThreshold", err)
	}
	if _, err := NewIndex(4, 65); !errors.Is(err, ErrThreshold) {
		t.Errorf("NewIndex(4, 65) error = %v; want ErrThreshold", err)
	}
}

func TestIndex_ExactDuplicate(t *testing.T) {
	idx := mustIndex(t, 4, 10)
	idx.Register("img1", "prop1", "zillow", pair(0, 0))

	id, ok := idx.FindDuplicate(pair(0, 0))
	if !ok || id != "img1" {
		t.Errorf("FindDuplicate = (%q, %v); want (\"img1\", true)", id, ok)
	}
}

func TestIndex_DistantHashesNotDuplicate(t *testing.T) {
	idx := mustIndex(t, 4, 10)
	idx.Register("img1", "prop1", "zillow", pair(0, 0))

	// 20 of 64 bits differ, well past the threshold of 10.
	far := hash.Fingerprint(0xFFFFF)
	if id, ok := idx.FindDuplicate(pair(far, far)); ok {
		t.Errorf("FindDuplicate = (%q, true); want no duplicate", id)
	}
}

func TestIndex_ThresholdBoundary(t *testing.T) {
	idx := mustIndex(t, 4, 10)
	base := hash.Fingerprint(0)
	idx.Register("img1", "prop1", "zillow", pair(base, base))

	// 10 differing bits confined to the first band: the query still shares
	// the other three bands, so img1 is retrieved as a candidate.
	atThreshold := hash.Fingerprint(0x3FF) << 54
	if _, ok := idx.FindDuplicate(pair(atThreshold, base)); !ok {
		t.Error("distance exactly at threshold should be a duplicate")
	}

	pastThreshold := hash.Fingerprint(0x7FF) << 53
	if id, ok := idx.FindDuplicate(pair(pastThreshold, base)); ok {
		t.Errorf("distance threshold+1 matched %q; want no duplicate", id)
	}
}

func TestIndex_DHashMustConfirm(t *testing.T) {
	idx := mustIndex(t, 4, 10)
	// phash identical, dhash wildly different: not a duplicate.
	idx.Register("img1", "prop1", "zillow", pair(0, 0))

	if id, ok := idx.FindDuplicate(pair(0, 0xFFFFFFFFFFFFFFFF)); ok {
		t.Errorf("FindDuplicate = (%q, true); dhash disagreement must reject", id)
	}
}

func TestIndex_CandidateSupersetForIdenticalPHash(t *testing.T) {
	idx := mustIndex(t, 4, 10)
	fp := hash.Fingerprint(0xDEADBEEF12345678)
	idx.Register("img1", "prop1", "zillow", pair(fp, 1))
	idx.Register("img2", "prop2", "redfin", pair(fp, 2))

	for _, want := range []string{"img1", "img2"} {
		found := false
		for _, id := range idx.Candidates(fp) {
			if id == want {
				found = true
			}
		}
		if !found {
			t.Errorf("Candidates(%v) missing %s", fp, want)
		}
	}
}

func TestIndex_DeterministicTieBreak(t *testing.T) {
	idx := mustIndex(t, 4, 10)
	fp := hash.Fingerprint(0xABCD)
	idx.Register("img1", "prop1", "zillow", pair(fp, fp))
	idx.Register("img2", "prop2", "redfin", pair(fp, fp))

	for i := 0; i < 10; i++ {
		id, ok := idx.FindDuplicate(pair(fp, fp))
		if !ok || id != "img1" {
			t.Fatalf("FindDuplicate = (%q, %v); want first-registered img1", id, ok)
		}
	}
}

func TestIndex_ReregisterEvictsOldBuckets(t *testing.T) {
	idx := mustIndex(t, 4, 10)
	oldFP := hash.Fingerprint(0x1111111111111111)
	newFP := hash.Fingerprint(0xEEEEEEEEEEEEEEEE)

	idx.Register("img1", "prop1", "zillow", pair(oldFP, oldFP))
	idx.Register("img1", "prop1", "zillow", pair(newFP, newFP))

	if idx.Len() != 1 {
		t.Fatalf("Len = %d after overwrite; want 1", idx.Len())
	}
	if ids := idx.Candidates(oldFP); len(ids) != 0 {
		t.Errorf("Candidates(old hash) = %v; want stale memberships removed", ids)
	}
	if ids := idx.Candidates(newFP); len(ids) != 1 || ids[0] != "img1" {
		t.Errorf("Candidates(new hash) = %v; want [img1]", ids)
	}
}

func TestIndex_RemoveRestoresBucketState(t *testing.T) {
	idx := mustIndex(t, 4, 10)
	idx.Register("keep", "prop1", "zillow", pair(0x1234, 0x1234))
	before := idx.Stats()

	idx.Register("gone", "prop2", "redfin", pair(0xFEDCBA9876543210, 0x0123456789ABCDEF))
	if !idx.Remove("gone") {
		t.Fatal("Remove existing record returned false")
	}

	after := idx.Stats()
	if after.TotalImages != before.TotalImages || after.BucketCount != before.BucketCount {
		t.Errorf("stats after register+remove = %+v; want %+v", after, before)
	}
	if ids := idx.Candidates(0xFEDCBA9876543210); len(ids) != 0 {
		t.Errorf("removed record left bucket entries: %v", ids)
	}
}

func TestIndex_RemoveAbsent(t *testing.T) {
	idx := mustIndex(t, 4, 10)
	if idx.Remove("nope") {
		t.Error("Remove of absent record returned true")
	}
}

func TestIndex_Clear(t *testing.T) {
	idx := mustIndex(t, 4, 10)
	idx.Register("img1", "prop1", "zillow", pair(1, 1))
	idx.Register("img2", "prop2", "redfin", pair(2, 2))

	idx.Clear()

	snap := idx.Stats()
	if snap.TotalImages != 0 || snap.BucketCount != 0 {
		t.Errorf("stats after Clear = %+v; want empty", snap)
	}
}

func TestIndex_Stats(t *testing.T) {
	idx := mustIndex(t, 4, 10)
	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("z%d", i)
		idx.Register(id, "prop1", "zillow", pair(hash.Fingerprint(i)<<40, hash.Fingerprint(i)))
	}
	for i := 0; i < 2; i++ {
		id := fmt.Sprintf("r%d", i)
		idx.Register(id, "prop2", "redfin", pair(hash.Fingerprint(i+7)<<20, hash.Fingerprint(i)))
	}

	snap := idx.Stats()
	if snap.TotalImages != 5 {
		t.Errorf("TotalImages = %d; want 5", snap.TotalImages)
	}
	if snap.BySource["zillow"] != 3 || snap.BySource["redfin"] != 2 {
		t.Errorf("BySource = %v; want zillow:3 redfin:2", snap.BySource)
	}
	if snap.DistinctProps != 2 {
		t.Errorf("DistinctProps = %d; want 2", snap.DistinctProps)
	}
	if snap.NumBands != 4 || snap.SimilarityCutoff != 10 {
		t.Errorf("config in snapshot = (%d, %d); want (4, 10)", snap.NumBands, snap.SimilarityCutoff)
	}
	if snap.BucketCount == 0 || snap.AvgBucketSize <= 0 {
		t.Errorf("bucket stats = (%d, %f); want non-zero", snap.BucketCount, snap.AvgBucketSize)
	}
}

func BenchmarkFindDuplicate(b *testing.B) {
	idx, _ := NewIndex(4, 10)
	for i := 0; i < 10000; i++ {
		fp := hash.Fingerprint(uint64(i) * 0x9E3779B97F4A7C15)
		idx.Register(fmt.Sprintf("img%d", i), fmt.Sprintf("prop%d", i/8), "zillow", pair(fp, fp))
	}
	query := pair(0xDEADBEEF12345678, 0xDEADBEEF12345678)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		idx.FindDuplicate(query)
	}
}
