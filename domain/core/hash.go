package core

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// ComputeMatrixHash hashes the shape and the exact bit patterns of every
// entry of the given matrices, in order. Two inputs hash equal only if
// they are bit-for-bit identical.
func ComputeMatrixHash(ms ...mat.Matrix) Hash {
	h := sha256.New()
	var buf [8]byte
	for _, m := range ms {
		if m == nil {
			continue
		}
		r, c := m.Dims()
		binary.LittleEndian.PutUint64(buf[:], uint64(r))
		h.Write(buf[:])
		binary.LittleEndian.PutUint64(buf[:], uint64(c))
		h.Write(buf[:])
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				binary.LittleEndian.PutUint64(buf[:], math.Float64bits(m.At(i, j)))
				h.Write(buf[:])
			}
		}
	}
	return Hash(hex.EncodeToString(h.Sum(nil)))
}

// ComputeFingerprint combines a base hash with a set of named parameters.
// Parameter order does not matter.
func ComputeFingerprint(base Hash, params map[string]interface{}) Hash {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var data strings.Builder
	data.WriteString(base.String())
	for _, key := range keys {
		data.WriteString("|")
		data.WriteString(key)
		data.WriteString("=")
		data.WriteString(fmt.Sprintf("%v", params[key]))
	}

	return NewHash([]byte(data.String()))
}
