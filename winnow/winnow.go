// Package winnow computes position-independent document fingerprints by
// winnowing rolling k-gram hashes, and scores documents by how many
// fingerprint hashes they share.
package winnow

import (
	"fmt"
	"slices"
)

// Default selection policy.
const (
	DefaultK      = 4
	DefaultWindow = 4
	// DefaultBase exceeds every byte value, so distinct ASCII k-grams never
	// share a positional encoding.
	DefaultBase uint64 = 257
)

// Config is the selection policy applied to every document of a comparison.
type Config struct {
	// K is the k-gram length in runes.
	K int
	// Window is the number of consecutive k-gram hashes each selection spans.
	Window int
	// Base is the polynomial base of the rolling hash. It should exceed the
	// largest rune value in use.
	Base uint64
	// Positional keeps the k-gram position of every selected hash.
	Positional bool
	// Selection picks the window minimum or maximum.
	Selection Extremum
}

// DefaultConfig returns K=4, Window=4, Base=257 with minimum selection.
func DefaultConfig() Config {
	return Config{
		K:         DefaultK,
		Window:    DefaultWindow,
		Base:      DefaultBase,
		Selection: Minimum,
	}
}

// Validate checks that K, Window and Base are positive and Selection is known.
func (c Config) Validate() error {
	switch {
	case c.K <= 0:
		return fmt.Errorf("k must be positive, got %d: %w", c.K, ErrInvalidInput)
	case c.Window <= 0:
		return fmt.Errorf("window must be positive, got %d: %w", c.Window, ErrInvalidInput)
	case c.Base == 0:
		return fmt.Errorf("base must be positive: %w", ErrInvalidInput)
	case !c.Selection.valid():
		return fmt.Errorf("unknown selection %v: %w", c.Selection, ErrInvalidInput)
	}
	return nil
}

// Entry is a selected hash tagged with the index of its k-gram.
type Entry struct {
	Hash     uint64 `json:"hash"`
	Position int    `json:"position"`
}

// Fingerprint is the set of hashes selected from one document. Only
// membership is significant; positions, when kept, are informational and
// never take part in matching.
type Fingerprint struct {
	hashes  map[uint64]struct{}
	entries []Entry
	kgrams  int
}

// Len returns the number of distinct selected hashes.
func (f *Fingerprint) Len() int { return len(f.hashes) }

// KGrams returns how many k-grams the document produced before selection.
func (f *Fingerprint) KGrams() int { return f.kgrams }

// Contains reports whether h was selected.
func (f *Fingerprint) Contains(h uint64) bool {
	_, ok := f.hashes[h]
	return ok
}

// Hashes returns the selected hashes in ascending order.
func (f *Fingerprint) Hashes() []uint64 {
	out := make([]uint64, 0, len(f.hashes))
	for h := range f.hashes {
		out = append(out, h)
	}
	slices.Sort(out)
	return out
}

// Entries returns a copy of the (hash, position) pairs ordered by position.
// It is nil unless the fingerprint was built with Config.Positional.
func (f *Fingerprint) Entries() []Entry { return slices.Clone(f.entries) }

// Intersect counts the hashes present in both fingerprints.
func (f *Fingerprint) Intersect(other *Fingerprint) int {
	small, large := f.hashes, other.hashes
	if len(small) > len(large) {
		small, large = large, small
	}
	n := 0
	for h := range small {
		if _, ok := large[h]; ok {
			n++
		}
	}
	return n
}

// Winnow fingerprints text: it hashes every k-gram, selects the extremum of
// every window of cfg.Window consecutive hashes and collapses the selected
// k-grams into a set. A k-gram chosen by several overlapping windows is
// counted once.
func Winnow(text string, cfg Config) (*Fingerprint, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("winnow: %w", err)
	}

	kgrams, err := ExtractKGrams(cfg.K, cfg.Base, text)
	if err != nil {
		return nil, fmt.Errorf("winnow: %w", err)
	}

	selected := SlidingExtremeIndices(kgrams, cfg.Window, cfg.Selection)

	fp := &Fingerprint{
		hashes: make(map[uint64]struct{}, len(selected)),
		kgrams: len(kgrams),
	}

	// Consecutive windows that share an extremum report the same index
	// back to back, and indices never decrease, so comparing against the
	// previous selection is enough to deduplicate positions.
	last := -1
	for _, idx := range selected {
		if idx == last {
			continue
		}
		last = idx
		fp.hashes[kgrams[idx]] = struct{}{}
		if cfg.Positional {
			fp.entries = append(fp.entries, Entry{Hash: kgrams[idx], Position: idx})
		}
	}
	return fp, nil
}

// Similarity returns the Jaccard index of two fingerprints' hash sets.
// Two empty fingerprints have similarity 0.
func Similarity(a, b *Fingerprint) float64 {
	inter := a.Intersect(b)
	union := a.Len() + b.Len() - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
