package winnow

import (
	"context"
	"errors"
	"slices"
	"testing"
)

var referenceDocs = []string{
	"The Quick Grey Fox Jumps Over The Lazy Dog",
	"The Quick Brown Fox Jumps Over The Lazy Cat",
	"Hello From the Other Side",
	"The Lazy Cat Meows From The Other Side",
}

func TestCompare_Reference(t *testing.T) {
	tests := []struct {
		name      string
		base      uint64
		selection Extremum
		want      []int
	}{
		{"min base 26", 26, Minimum, []int{14, 15, 6, 13}},
		{"max base 26", 26, Maximum, []int{12, 13, 4, 9}},
		{"max base 2", 2, Maximum, []int{15, 16, 5, 12}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compare(referenceDocs, Config{K: 4, Window: 4, Base: tt.base, Selection: tt.selection})
			if err != nil {
				t.Fatalf("Compare error: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Compare() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComparator_ReferenceMatrix(t *testing.T) {
	c, err := NewComparator(Config{K: 4, Window: 4, Base: 26}, 2)
	if err != nil {
		t.Fatalf("NewComparator error: %v", err)
	}
	fps, err := c.Fingerprints(context.Background(), referenceDocs)
	if err != nil {
		t.Fatalf("Fingerprints error: %v", err)
	}

	sizes := make([]int, len(fps))
	for i, fp := range fps {
		sizes[i] = fp.Len()
	}
	if want := []int{15, 16, 9, 13}; !slices.Equal(sizes, want) {
		t.Errorf("fingerprint sizes = %v, want %v", sizes, want)
	}

	res := c.Score(fps)
	want := [][]int{
		{0, 11, 0, 3},
		{11, 0, 0, 4},
		{0, 0, 0, 6},
		{3, 4, 6, 0},
	}
	for i := range want {
		if !slices.Equal(res.Matches[i], want[i]) {
			t.Errorf("Matches[%d] = %v, want %v", i, res.Matches[i], want[i])
		}
	}

	// The two fox sentences share more with each other than with the
	// unrelated greeting.
	if res.Matches[0][1] <= res.Matches[0][2] || res.Matches[1][0] <= res.Matches[1][2] {
		t.Errorf("related documents should outscore unrelated ones: %v", res.Matches)
	}
}

func TestComparator_Symmetry(t *testing.T) {
	c, err := NewComparator(DefaultConfig(), 0)
	if err != nil {
		t.Fatalf("NewComparator error: %v", err)
	}
	docs := append(slices.Clone(referenceDocs), "The Quick Grey Fox Meows", "")
	fps, err := c.Fingerprints(context.Background(), docs)
	if err != nil {
		t.Fatalf("Fingerprints error: %v", err)
	}
	res := c.Score(fps)

	for i := range docs {
		sum := 0
		for j := range docs {
			if res.Matches[i][j] != res.Matches[j][i] {
				t.Errorf("Matches[%d][%d]=%d but Matches[%d][%d]=%d", i, j, res.Matches[i][j], j, i, res.Matches[j][i])
			}
			if want := fps[i].Intersect(fps[j]); i != j && res.Matches[i][j] != want {
				t.Errorf("Matches[%d][%d] = %d, want %d", i, j, res.Matches[i][j], want)
			}
			sum += res.Matches[i][j]
		}
		if res.Matches[i][i] != 0 {
			t.Errorf("diagonal Matches[%d][%d] = %d, want 0", i, i, res.Matches[i][i])
		}
		if res.Scores[i] != sum {
			t.Errorf("Scores[%d] = %d, want row sum %d", i, res.Scores[i], sum)
		}
	}
}

func TestCompare_SelfSimilarity(t *testing.T) {
	doc := "It was the best of times, it was the worst of times"
	cfg := DefaultConfig()

	fp, err := Winnow(doc, cfg)
	if err != nil {
		t.Fatalf("Winnow error: %v", err)
	}
	got, err := Compare([]string{doc, doc}, cfg)
	if err != nil {
		t.Fatalf("Compare error: %v", err)
	}
	if got[0] != fp.Len() || got[1] != fp.Len() {
		t.Errorf("Compare(doc, doc) = %v, want both %d", got, fp.Len())
	}
}

func TestCompare_Degenerate(t *testing.T) {
	tests := []struct {
		name string
		docs []string
		want []int
	}{
		{"no documents", nil, []int{}},
		{"one document", []string{"a single lonely document"}, []int{0}},
		{"shorter than k", []string{"ab", "ab", "abc"}, []int{0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compare(tt.docs, DefaultConfig())
			if err != nil {
				t.Fatalf("Compare error: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Compare() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompare_PositionalDoesNotChangeScores(t *testing.T) {
	plain := Config{K: 4, Window: 4, Base: 26}
	positional := plain
	positional.Positional = true

	a, err := Compare(referenceDocs, plain)
	if err != nil {
		t.Fatalf("Compare error: %v", err)
	}
	b, err := Compare(referenceDocs, positional)
	if err != nil {
		t.Fatalf("Compare error: %v", err)
	}
	if !slices.Equal(a, b) {
		t.Errorf("positional scores %v differ from plain scores %v", b, a)
	}
}

func TestComparator_CanceledContext(t *testing.T) {
	c, err := NewComparator(DefaultConfig(), 1)
	if err != nil {
		t.Fatalf("NewComparator error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Compare(ctx, referenceDocs); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestNewComparator_InvalidConfig(t *testing.T) {
	if _, err := NewComparator(Config{K: 4, Window: 0, Base: 26}, 1); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
