package winnow

import (
	"slices"
	"testing"
)

func TestSnapshot_RoundTrip(t *testing.T) {
	for _, positional := range []bool{false, true} {
		cfg := Config{K: 3, Window: 2, Base: 10, Positional: positional}
		fp, err := Winnow("abcdefgh abcdefgh", cfg)
		if err != nil {
			t.Fatalf("Winnow: %v", err)
		}

		back := FromSnapshot(fp.Snapshot())

		if !slices.Equal(back.Hashes(), fp.Hashes()) {
			t.Errorf("positional=%v: Hashes = %v, want %v", positional, back.Hashes(), fp.Hashes())
		}
		if !slices.Equal(back.Entries(), fp.Entries()) {
			t.Errorf("positional=%v: Entries = %v, want %v", positional, back.Entries(), fp.Entries())
		}
		if back.KGrams() != fp.KGrams() {
			t.Errorf("positional=%v: KGrams = %d, want %d", positional, back.KGrams(), fp.KGrams())
		}
		if back.Intersect(fp) != fp.Len() {
			t.Errorf("positional=%v: restored fingerprint does not fully match the original", positional)
		}
	}
}
