package biz

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/bananahana720/PHX-houses-Dec-2025-sub010/internal/conf"
	"github.com/bananahana720/PHX-houses-Dec-2025-sub010/internal/pkg/bloom"
	"github.com/bananahana720/PHX-houses-Dec-2025-sub010/internal/pkg/dedup"
	"github.com/bananahana720/PHX-houses-Dec-2025-sub010/internal/pkg/hash"
	"github.com/bananahana720/PHX-houses-Dec-2025-sub010/internal/pkg/lsh"
	"github.com/bananahana720/PHX-houses-Dec-2025-sub010/internal/pkg/redis"
)

// DedupUsecase owns the duplicate index: it is the single writer, loads the
// persisted snapshot at startup and saves at checkpoints. All other
// components reach the index through this usecase.
type DedupUsecase struct {
	index     *dedup.Index
	bander    *lsh.Bander
	indexPath string
	filter    *bloom.Filter
	log       *log.Helper
}

// NewDedupUsecase loads the index from the configured snapshot path and
// builds the bloom prefilter over it.
func NewDedupUsecase(c *conf.Dedup, cache redis.Cache, logger log.Logger) (*DedupUsecase, error) {
	helper := log.NewHelper(logger)
	threshold := c.Threshold()

	index, err := dedup.Load(c.IndexPath, c.NumBands, threshold, logger)
	if err != nil {
		return nil, fmt.Errorf("build duplicate index: %w", err)
	}
	bander, err := lsh.NewBander(c.NumBands)
	if err != nil {
		return nil, fmt.Errorf("build bander: %w", err)
	}
	helper.Infof("duplicate index loaded: %d records, %d bands, threshold %d",
		index.Len(), c.NumBands, threshold)

	var filter *bloom.Filter
	if cache != nil {
		filter = bloom.New(cache, c.BloomKey, c.BloomBits, c.BloomHashFuncs)
	}

	return &DedupUsecase{
		index:     index,
		bander:    bander,
		indexPath: c.IndexPath,
		filter:    filter,
		log:       helper,
	}, nil
}

// bandBloomKey is the filter key for one band of a phash. The filter holds
// band values, not whole fingerprints: any duplicate within the Hamming
// threshold shares at least one band with its original verbatim, so "no
// band of the query was ever registered" proves the candidate set is empty.
func bandBloomKey(k lsh.BandKey) []byte {
	return []byte(strconv.Itoa(k.Index) + ":" + k.Value)
}

// CheckDuplicate runs the two-stage duplicate query without mutating
// anything. The bloom prefilter answers "no registered image shares any
// band with this phash" cheaply; only when some band is present does the
// query go on to the candidate walk.
func (uc *DedupUsecase) CheckDuplicate(ctx context.Context, pair hash.HashPair) (string, bool) {
	if uc.filter != nil {
		anyBand := false
		for _, k := range uc.bander.BandKeys(pair.PHash) {
			seen, err := uc.filter.MayContain(ctx, bandBloomKey(k))
			if err != nil {
				uc.log.Warnf("bloom prefilter check failed, falling back to index: %v", err)
				anyBand = true
				break
			}
			if seen {
				anyBand = true
				break
			}
		}
		if !anyBand {
			return "", false
		}
	}
	return uc.index.FindDuplicate(pair)
}

// Register files an image into the index and the prefilter.
func (uc *DedupUsecase) Register(ctx context.Context, imageID, propertyID, source string, pair hash.HashPair) {
	uc.index.Register(imageID, propertyID, NormalizeSource(source), pair)
	if uc.filter != nil {
		for _, k := range uc.bander.BandKeys(pair.PHash) {
			if err := uc.filter.Add(ctx, bandBloomKey(k)); err != nil {
				uc.log.Warnf("bloom prefilter add failed: %v", err)
			}
		}
	}
}

// Remove drops an image from the index. The bloom filter keeps its bits;
// it only over-approximates, which stays correct.
func (uc *DedupUsecase) Remove(imageID string) bool {
	return uc.index.Remove(imageID)
}

// Candidates exposes the raw LSH candidate set for an operator query.
func (uc *DedupUsecase) Candidates(phash hash.Fingerprint) []string {
	return uc.index.Candidates(phash)
}

// Stats returns the read-only aggregate view of the index.
func (uc *DedupUsecase) Stats() dedup.Snapshot {
	return uc.index.Stats()
}

// Save checkpoints the index to its snapshot path.
func (uc *DedupUsecase) Save() error {
	if err := uc.index.Save(uc.indexPath); err != nil {
		return fmt.Errorf("save duplicate index: %w", err)
	}
	uc.log.Infof("duplicate index saved to %s (%d records)", uc.indexPath, uc.index.Len())
	return nil
}

// Reset clears the index and the bloom prefilter for a full re-ingestion.
func (uc *DedupUsecase) Reset(ctx context.Context) error {
	uc.index.Clear()
	if uc.filter != nil {
		if err := uc.filter.Reset(ctx); err != nil {
			return fmt.Errorf("reset bloom prefilter: %w", err)
		}
	}
	return nil
}
