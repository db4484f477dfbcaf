package winnow

import (
	"errors"
	"math/rand"
	"testing"
)

func TestNewRollingHash_LengthMismatch(t *testing.T) {
	tests := []struct {
		name    string
		k       int
		initial string
	}{
		{"too short", 4, "abc"},
		{"too long", 2, "abc"},
		{"empty window", 3, ""},
		{"zero k", 0, ""},
		{"negative k", -1, "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRollingHash(tt.k, 26, []rune(tt.initial))
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("NewRollingHash(%d, %q) error = %v, want ErrInvalidInput", tt.k, tt.initial, err)
			}
		})
	}
}

func TestNewRollingHash_InitialHash(t *testing.T) {
	rh, err := NewRollingHash(4, 26, []rune("abcd"))
	if err != nil {
		t.Fatalf("NewRollingHash error: %v", err)
	}

	// 97*26^3 + 98*26^2 + 99*26 + 100
	const want = 1773794
	if got := rh.Sum64(); got != want {
		t.Errorf("initial hash = %d, want %d", got, want)
	}
	if rh.Len() != 4 {
		t.Errorf("Len() = %d, want 4", rh.Len())
	}
}

func TestRollingHash_Advance(t *testing.T) {
	rh, err := NewRollingHash(4, 26, []rune("abcd"))
	if err != nil {
		t.Fatalf("NewRollingHash error: %v", err)
	}

	if got := rh.Advance('e'); got != 1792073 {
		t.Errorf("Advance('e') = %d, want 1792073", got)
	}
	if got := rh.Advance('f'); got != 1810352 {
		t.Errorf("Advance('f') = %d, want 1810352", got)
	}
	if got := string(rh.Window()); got != "cdef" {
		t.Errorf("Window() = %q, want %q", got, "cdef")
	}
}

func TestRollingHash_DoesNotAliasInitialWindow(t *testing.T) {
	initial := []rune("wxyz")
	rh, err := NewRollingHash(4, 31, initial)
	if err != nil {
		t.Fatalf("NewRollingHash error: %v", err)
	}
	rh.Advance('a')

	if string(initial) != "wxyz" {
		t.Errorf("caller's window was modified: %q", string(initial))
	}
}

func TestRollingHash_MatchesRecompute(t *testing.T) {
	// A large base with a long window overflows 64 bits on every step, so
	// this also pins the wraparound semantics.
	tests := []struct {
		name string
		k    int
		base uint64
	}{
		{"small base", 3, 26},
		{"byte base", 5, 257},
		{"wrapping", 16, 1_000_003},
		{"k equals one", 1, 97},
	}

	rng := rand.New(rand.NewSource(7))
	alphabet := []rune("abcdefghij ÄÖÜ世界\n")
	text := make([]rune, 400)
	for i := range text {
		text[i] = alphabet[rng.Intn(len(alphabet))]
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rh, err := NewRollingHash(tt.k, tt.base, text[:tt.k])
			if err != nil {
				t.Fatalf("NewRollingHash error: %v", err)
			}
			if got, want := rh.Sum64(), PolynomialHash(tt.base, text[:tt.k]); got != want {
				t.Fatalf("initial hash = %d, want %d", got, want)
			}
			for i := tt.k; i < len(text); i++ {
				got := rh.Advance(text[i])
				want := PolynomialHash(tt.base, text[i-tt.k+1:i+1])
				if got != want {
					t.Fatalf("hash after advancing to %d = %d, want %d", i, got, want)
				}
			}
		})
	}
}
