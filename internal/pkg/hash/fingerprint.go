package hash

import (
	"errors"
	"fmt"
	"strconv"
)

// FingerprintBits is the width of a fingerprint in bits.
const FingerprintBits = 64

// FingerprintHexLen is the width of a fingerprint's external hex form.
const FingerprintHexLen = FingerprintBits / 4

// ErrMalformedFingerprint indicates a hex string that does not decode to
// exactly FingerprintBits bits.
var ErrMalformedFingerprint = errors.New("malformed fingerprint")

// Fingerprint is a 64-bit perceptual fingerprint of an image. Its external
// representation is a fixed-width lowercase hex string.
type Fingerprint uint64

// ParseFingerprint decodes the external hex form of a fingerprint.
// Strings of the wrong length or with non-hex characters are rejected,
// never truncated.
func ParseFingerprint(s string) (Fingerprint, error) {
	if len(s) != FingerprintHexLen {
		return 0, fmt.Errorf("%w: %q has length %d, want %d", ErrMalformedFingerprint, s, len(s), FingerprintHexLen)
	}
	v, err := strconv.ParseUint(s, 16, FingerprintBits)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedFingerprint, s)
	}
	return Fingerprint(v), nil
}

// String returns the fixed-width lowercase hex form.
func (f Fingerprint) String() string {
	return fmt.Sprintf("%016x", uint64(f))
}

// Hamming returns the number of differing bits between f and other
// (0 = identical).
func (f Fingerprint) Hamming(other Fingerprint) int {
	xor := uint64(f) ^ uint64(other)
	count := 0
	for xor != 0 {
		count++
		xor &= xor - 1
	}
	return count
}
