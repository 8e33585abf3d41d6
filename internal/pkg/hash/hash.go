package hash

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"github.com/cespare/xxhash/v2"
	"github.com/spaolacci/murmur3"
)

// Hash returns the hash value of data.
func Hash(data []byte) uint64 {
	return murmur3.Sum64(data)
}

// ContentHash returns the hex-encoded sha256 of raw image bytes, used to
// short-circuit byte-identical re-uploads before perceptual comparison.
func ContentHash(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// FastHash returns a short non-cryptographic digest of s, used for cache keys.
func FastHash(s string) string {
	h := xxhash.Sum64String(s)
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, h)
	return hex.EncodeToString(buf)
}
