// Package lsh implements locality-sensitive banding over perceptual
// fingerprints. Two fingerprints within a small Hamming distance of each
// other are overwhelmingly likely to share at least one band verbatim, so
// bucketing by band key retrieves near-duplicate candidates without pairwise
// comparison of the whole corpus.
package lsh

import (
	"errors"
	"fmt"

	"github.com/bananahana720/PHX-houses-Dec-2025-sub010/internal/pkg/hash"
)

// ErrBandCount indicates a band count that does not evenly divide the
// fingerprint's hex width. Checked once at construction, never per call.
var ErrBandCount = errors.New("band count must evenly divide fingerprint hex length")

// BandKey identifies one bucket: the band position within the fingerprint
// and the hex substring occupying it.
type BandKey struct {
	Index int
	Value string
}

// Bander splits fingerprints into fixed-width contiguous bands. More bands
// means higher near-duplicate recall at the cost of more, smaller buckets.
type Bander struct {
	numBands int
	bandSize int
}

// NewBander creates a Bander with the given band count.
func NewBander(numBands int) (*Bander, error) {
	if numBands <= 0 || hash.FingerprintHexLen%numBands != 0 {
		return nil, fmt.Errorf("%w: num_bands=%d, hex_length=%d", ErrBandCount, numBands, hash.FingerprintHexLen)
	}
	return &Bander{
		numBands: numBands,
		bandSize: hash.FingerprintHexLen / numBands,
	}, nil
}

// NumBands returns the configured band count.
func (b *Bander) NumBands() int {
	return b.numBands
}

// BandKeys splits the fingerprint's hex form into exactly NumBands
// contiguous equal-length substrings, in band order. Pure function.
func (b *Bander) BandKeys(fp hash.Fingerprint) []BandKey {
	hex := fp.String()
	keys := make([]BandKey, b.numBands)
	for i := 0; i < b.numBands; i++ {
		keys[i] = BandKey{
			Index: i,
			Value: hex[i*b.bandSize : (i+1)*b.bandSize],
		}
	}
	return keys
}
