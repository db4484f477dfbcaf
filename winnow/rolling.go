package winnow

import (
	"errors"
	"fmt"
)

// ErrInvalidInput reports a precondition violation, such as a rolling hash
// window whose length does not match k.
var ErrInvalidInput = errors.New("winnow: invalid input")

// RollingHash maintains the polynomial hash of a fixed-length window of runes:
//
//	h(c[0..k-1]) = c[0]*base^(k-1) + c[1]*base^(k-2) + ... + c[k-1]
//
// All arithmetic wraps modulo 2^64.
type RollingHash struct {
	k      int
	base   uint64
	topPow uint64 // base^(k-1), the weight of the oldest rune.
	hash   uint64

	// window is a circular buffer; head indexes the oldest rune.
	window []rune
	head   int
}

// NewRollingHash creates a rolling hash over initial, which must hold exactly
// k runes. The initial hash is computed by direct evaluation.
func NewRollingHash(k int, base uint64, initial []rune) (*RollingHash, error) {
	if k <= 0 {
		return nil, fmt.Errorf("rolling hash: k must be positive, got %d: %w", k, ErrInvalidInput)
	}
	if len(initial) != k {
		return nil, fmt.Errorf("rolling hash: window has %d runes, want %d: %w", len(initial), k, ErrInvalidInput)
	}

	window := make([]rune, k)
	copy(window, initial)

	var h uint64
	for _, r := range window {
		h = h*base + uint64(r)
	}

	return &RollingHash{
		k:      k,
		base:   base,
		topPow: pow(base, k-1),
		hash:   h,
		window: window,
	}, nil
}

// Advance drops the oldest rune, appends r and returns the new hash.
func (rh *RollingHash) Advance(r rune) uint64 {
	oldest := rh.window[rh.head]
	rh.hash = (rh.hash-uint64(oldest)*rh.topPow)*rh.base + uint64(r)

	rh.window[rh.head] = r
	rh.head++
	if rh.head == rh.k {
		rh.head = 0
	}
	return rh.hash
}

// Sum64 returns the hash of the current window.
func (rh *RollingHash) Sum64() uint64 { return rh.hash }

// Len returns the window length k.
func (rh *RollingHash) Len() int { return rh.k }

// Window returns a copy of the current window, oldest rune first.
func (rh *RollingHash) Window() []rune {
	out := make([]rune, 0, rh.k)
	out = append(out, rh.window[rh.head:]...)
	return append(out, rh.window[:rh.head]...)
}

// PolynomialHash evaluates the window polynomial from scratch, one explicit
// power per term. It is the reference the rolling update must agree with.
func PolynomialHash(base uint64, s []rune) uint64 {
	var h uint64
	k := len(s)
	for i, r := range s {
		h += uint64(r) * pow(base, k-1-i)
	}
	return h
}

func pow(base uint64, n int) uint64 {
	p := uint64(1)
	for i := 0; i < n; i++ {
		p *= base
	}
	return p
}
