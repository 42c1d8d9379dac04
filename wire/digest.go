package wire

import (
	"encoding/hex"
	"fmt"
	"hash"
)

// DigestSize is the size of a message digest in bytes.
const DigestSize = 32

// Digest is the cryptographic digest of a decoded message.
type Digest [DigestSize]byte

// HashFunc constructs a fresh streaming hash. Any 256-bit hash.Hash works;
// the decoder never depends on a particular algorithm.
type HashFunc func() hash.Hash

// String returns the lowercase hex encoding of the digest.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// MarshalText encodes the digest as lowercase hex, so it reads naturally in
// JSON and CBOR renderings of decoded messages.
func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText parses a hex-encoded digest.
func (d *Digest) UnmarshalText(text []byte) error {
	parsed, err := ParseDigest(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// IsZero reports whether the digest is unset.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// ParseDigest parses a hex-encoded digest.
func ParseDigest(s string) (Digest, error) {
	var d Digest
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return d, fmt.Errorf("parsing digest: %w", err)
	}
	if len(decoded) != DigestSize {
		return d, fmt.Errorf("digest is %d bytes, want %d", len(decoded), DigestSize)
	}
	copy(d[:], decoded)
	return d, nil
}

// sumDigest finalizes h without disturbing its state.
func sumDigest(h hash.Hash) (Digest, error) {
	var d Digest
	if h.Size() != DigestSize {
		return d, newError(KindDigestUnavailable, 0, ElementValue,
			fmt.Sprintf("hash produces %d bytes, want %d", h.Size(), DigestSize))
	}
	copy(d[:], h.Sum(nil))
	return d, nil
}
