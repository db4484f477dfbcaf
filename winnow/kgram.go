package winnow

import "fmt"

// ExtractKGrams returns the hash of every k-rune substring of text, in order.
// The result has max(0, n-k+1) entries where n is the rune count of text.
// A text shorter than k yields an empty sequence, not an error.
func ExtractKGrams(k int, base uint64, text string) ([]uint64, error) {
	if k <= 0 {
		return nil, fmt.Errorf("extract k-grams: k must be positive, got %d: %w", k, ErrInvalidInput)
	}

	runes := []rune(text)
	if len(runes) < k {
		return []uint64{}, nil
	}

	rh, err := NewRollingHash(k, base, runes[:k])
	if err != nil {
		return nil, fmt.Errorf("extract k-grams: %w", err)
	}

	hashes := make([]uint64, 0, len(runes)-k+1)
	hashes = append(hashes, rh.Sum64())
	for _, r := range runes[k:] {
		hashes = append(hashes, rh.Advance(r))
	}
	return hashes, nil
}
