package values

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Digest is a content digest of module bytes.
type Digest struct {
	algorithm string
	value     string
}

// NewDigest creates a digest from an algorithm and hex value.
func NewDigest(algorithm, value string) (Digest, error) {
	if algorithm == "" {
		return Digest{}, fmt.Errorf("digest algorithm cannot be empty")
	}
	if _, err := hex.DecodeString(value); err != nil {
		return Digest{}, fmt.Errorf("digest value is not hex: %w", err)
	}
	return Digest{algorithm: algorithm, value: strings.ToLower(value)}, nil
}

// NewDigestFromBytes computes the sha256 digest of data.
func NewDigestFromBytes(data []byte) Digest {
	sum := sha256.Sum256(data)
	return Digest{algorithm: "sha256", value: hex.EncodeToString(sum[:])}
}

// Algorithm returns the hash algorithm.
func (d Digest) Algorithm() string {
	return d.algorithm
}

// Value returns the hex encoded hash.
func (d Digest) Value() string {
	return d.value
}

// String returns "algorithm:value".
func (d Digest) String() string {
	if d.algorithm == "" {
		return ""
	}
	return d.algorithm + ":" + d.value
}

// Short returns the first 12 hex characters, enough for tables and logs.
func (d Digest) Short() string {
	if len(d.value) > 12 {
		return d.value[:12]
	}
	return d.value
}

// Equals checks if two digests are equal
func (d Digest) Equals(other Digest) bool {
	return d.algorithm == other.algorithm && d.value == other.value
}
