// Package simhash condenses a winnow fingerprint into one 64-bit signature
// whose Hamming distance tracks how many selected hashes two documents share.
package simhash

import (
	"encoding/binary"
	"hash/fnv"
	"math/bits"
)

// FromHashes computes a 64-bit SimHash over a set of feature hashes.
//
// Polynomial k-gram hashes cluster in their high bits, so each one is first
// spread with FNV-64a over its little-endian bytes before bit-vector
// accumulation. An empty set yields 0.
func FromHashes(hashes []uint64) uint64 {
	if len(hashes) == 0 {
		return 0
	}

	var vector [64]int
	var buf [8]byte

	for _, feature := range hashes {
		binary.LittleEndian.PutUint64(buf[:], feature)
		h := fnv.New64a()
		h.Write(buf[:])
		mixed := h.Sum64()

		for i := 0; i < 64; i++ {
			if mixed&(1<<uint(i)) != 0 {
				vector[i]++
			} else {
				vector[i]--
			}
		}
	}

	var signature uint64
	for i := 0; i < 64; i++ {
		if vector[i] > 0 {
			signature |= 1 << uint(i)
		}
	}
	return signature
}

// Distance returns the Hamming distance between two signatures.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// Similar returns true if the Hamming distance between two signatures
// is less than or equal to the threshold.
func Similar(a, b uint64, threshold int) bool {
	return Distance(a, b) <= threshold
}
