package hash

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/corona10/goimagehash"
)

// ErrInvalidImage indicates pixel input that cannot be hashed: a nil image,
// zero dimensions, or undecodable bytes. Never converted to a default hash.
var ErrInvalidImage = errors.New("invalid image")

// HashPair holds the two independent fingerprints computed per image.
// PHash captures overall brightness structure (mean-threshold 8x8 grid),
// DHash captures local horizontal gradients (9x8 right-neighbor grid).
type HashPair struct {
	PHash Fingerprint
	DHash Fingerprint
}

// PerceptualHasher computes perceptual fingerprints from decoded images.
type PerceptualHasher struct{}

// NewPerceptualHasher creates a new PerceptualHasher.
func NewPerceptualHasher() *PerceptualHasher {
	return &PerceptualHasher{}
}

// ComputeHashes computes both perceptual fingerprints of a decoded image.
// Pure function of the pixel input; byte-identical images always yield
// byte-identical pairs.
func (ph *PerceptualHasher) ComputeHashes(img image.Image) (HashPair, error) {
	if img == nil {
		return HashPair{}, fmt.Errorf("%w: nil image", ErrInvalidImage)
	}
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return HashPair{}, fmt.Errorf("%w: zero-dimension image %dx%d", ErrInvalidImage, bounds.Dx(), bounds.Dy())
	}

	avg, err := goimagehash.AverageHash(img)
	if err != nil {
		return HashPair{}, fmt.Errorf("%w: phash: %v", ErrInvalidImage, err)
	}
	diff, err := goimagehash.DifferenceHash(img)
	if err != nil {
		return HashPair{}, fmt.Errorf("%w: dhash: %v", ErrInvalidImage, err)
	}

	return HashPair{
		PHash: Fingerprint(avg.GetHash()),
		DHash: Fingerprint(diff.GetHash()),
	}, nil
}

// ComputeHashesFromBytes decodes raw image bytes and computes both
// fingerprints. Decode failures surface as ErrInvalidImage.
func (ph *PerceptualHasher) ComputeHashesFromBytes(data []byte) (HashPair, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return HashPair{}, fmt.Errorf("%w: decode: %v", ErrInvalidImage, err)
	}
	return ph.ComputeHashes(img)
}
