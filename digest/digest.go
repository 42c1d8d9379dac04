// Package digest names the hash algorithms a message digest can be computed
// with. Every algorithm produces 32 bytes.
package digest

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"hash"
	"sort"

	"github.com/anirudhraja/verilite/wire"
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// Algorithm names accepted by Lookup.
const (
	SHA256     = "sha256"
	SHA3_256   = "sha3-256"
	BLAKE2b256 = "blake2b-256"
	BLAKE3     = "blake3"
)

// Default is used when a definition does not name an algorithm.
const Default = SHA256

// ErrUnknownAlgorithm is returned for names Lookup does not recognize.
var ErrUnknownAlgorithm = errors.New("unknown digest algorithm")

var algorithms = map[string]wire.HashFunc{
	SHA256:   sha256.New,
	SHA3_256: sha3.New256,
	BLAKE2b256: func() hash.Hash {
		// Only a key longer than 64 bytes makes New256 fail.
		h, err := blake2b.New256(nil)
		if err != nil {
			panic("digest: blake2b initialization failed: " + err.Error())
		}
		return h
	},
	BLAKE3: func() hash.Hash { return blake3.New() },
}

// Lookup returns the constructor for the named algorithm. The empty name
// selects Default.
func Lookup(name string) (wire.HashFunc, error) {
	if name == "" {
		name = Default
	}
	fn, ok := algorithms[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %v)", ErrUnknownAlgorithm, name, Names())
	}
	return fn, nil
}

// MustLookup is like Lookup but panics on unknown names. Use it for
// constants.
func MustLookup(name string) wire.HashFunc {
	fn, err := Lookup(name)
	if err != nil {
		panic(err)
	}
	return fn
}

// Names lists the known algorithms in sorted order.
func Names() []string {
	names := make([]string, 0, len(algorithms))
	for name := range algorithms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sum hashes data in one shot with the named algorithm.
func Sum(name string, data []byte) (wire.Digest, error) {
	fn, err := Lookup(name)
	if err != nil {
		return wire.Digest{}, err
	}
	h := fn()
	h.Write(data)
	var d wire.Digest
	copy(d[:], h.Sum(nil))
	return d, nil
}
