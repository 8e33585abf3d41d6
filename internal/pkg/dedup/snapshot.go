package dedup

// Snapshot is a read-only aggregate view of the index, the only data the
// reporting layer sees.
type Snapshot struct {
	TotalImages       int            `json:"total_images"`
	BySource          map[string]int `json:"by_source"`
	DistinctProps     int            `json:"distinct_properties"`
	BucketCount       int            `json:"bucket_count"`
	AvgBucketSize     float64        `json:"avg_bucket_size"`
	NumBands          int            `json:"num_bands"`
	SimilarityCutoff  int            `json:"similarity_threshold"`
	IncompleteRecords int            `json:"incomplete_records"`
}

// Stats computes the current aggregate view. Pure read; no mutation, no I/O.
func (idx *Index) Stats() Snapshot {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	snap := Snapshot{
		TotalImages:      len(idx.records),
		BySource:         make(map[string]int),
		BucketCount:      len(idx.buckets),
		NumBands:         idx.bander.NumBands(),
		SimilarityCutoff: idx.threshold,
	}

	props := make(map[string]struct{})
	for _, rec := range idx.records {
		snap.BySource[rec.Source]++
		props[rec.PropertyID] = struct{}{}
		if !rec.hasDHash {
			snap.IncompleteRecords++
		}
	}
	snap.DistinctProps = len(props)

	if len(idx.buckets) > 0 {
		total := 0
		for _, bucket := range idx.buckets {
			total += len(bucket)
		}
		snap.AvgBucketSize = float64(total) / float64(len(idx.buckets))
	}
	return snap
}
