package winnow

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Result is the outcome of scoring a set of fingerprints.
type Result struct {
	// Scores[i] is the sum over every other document j of Matches[i][j].
	Scores []int
	// Matches[i][j] is the number of hashes documents i and j share.
	// The matrix is symmetric with a zero diagonal.
	Matches [][]int
}

// Comparator fingerprints and scores document collections under one Config.
// It holds no per-call state and is safe for concurrent use.
type Comparator struct {
	cfg     Config
	workers int
}

// NewComparator returns a Comparator. workers bounds how many documents are
// fingerprinted at once; values <= 0 mean GOMAXPROCS.
func NewComparator(cfg Config, workers int) (*Comparator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("comparator: %w", err)
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Comparator{cfg: cfg, workers: workers}, nil
}

// Config returns the selection policy in use.
func (c *Comparator) Config() Config { return c.cfg }

// Compare returns one score per text, in input order: the total number of
// fingerprint hashes the text shares with each of the others.
func (c *Comparator) Compare(ctx context.Context, texts []string) ([]int, error) {
	fps, err := c.Fingerprints(ctx, texts)
	if err != nil {
		return nil, err
	}
	return c.Score(fps).Scores, nil
}

// Fingerprints winnows every text exactly once. Documents are independent,
// so they are processed concurrently; the call returns once all are done.
func (c *Comparator) Fingerprints(ctx context.Context, texts []string) ([]*Fingerprint, error) {
	fps := make([]*Fingerprint, len(texts))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, text := range texts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fp, err := Winnow(text, c.cfg)
			if err != nil {
				return fmt.Errorf("document %d: %w", i, err)
			}
			fps[i] = fp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return fps, nil
}

// Score counts the hashes shared by every unordered pair of fingerprints
// and adds the count to both members of the pair. Large collections are
// scored through an inverted Index; smaller ones intersect pairs directly.
func (c *Comparator) Score(fps []*Fingerprint) *Result {
	if len(fps) >= indexThreshold {
		return newResult(NewIndex(fps).Matches())
	}
	return c.scorePairs(fps)
}

// scorePairs intersects every pair once. Rows are computed in parallel;
// each pair (i, j) with i < j is written by row i only.
func (c *Comparator) scorePairs(fps []*Fingerprint) *Result {
	n := len(fps)
	matches := make([][]int, n)
	for i := range matches {
		matches[i] = make([]int, n)
	}

	var g errgroup.Group
	g.SetLimit(c.workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			for j := i + 1; j < n; j++ {
				m := fps[i].Intersect(fps[j])
				matches[i][j] = m
				matches[j][i] = m
			}
			return nil
		})
	}
	_ = g.Wait()
	return newResult(matches)
}

func newResult(matches [][]int) *Result {
	scores := make([]int, len(matches))
	for i := range matches {
		for _, m := range matches[i] {
			scores[i] += m
		}
	}
	return &Result{Scores: scores, Matches: matches}
}

// Compare fingerprints texts under cfg and returns their scores.
func Compare(texts []string, cfg Config) ([]int, error) {
	c, err := NewComparator(cfg, 0)
	if err != nil {
		return nil, err
	}
	return c.Compare(context.Background(), texts)
}
