// Package pipeline turns API requests into fingerprints and comparison
// results: it resolves every document to text, winnows it through the
// cache and scores the collection.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/use-agent/winnow/cache"
	"github.com/use-agent/winnow/cleaner"
	"github.com/use-agent/winnow/config"
	"github.com/use-agent/winnow/engine"
	"github.com/use-agent/winnow/models"
	"github.com/use-agent/winnow/simhash"
	"github.com/use-agent/winnow/winnow"
)

// nearDuplicateBits is the largest simhash distance reported as a near
// duplicate.
const nearDuplicateBits = 3

// defaultFetchTimeout bounds a URL fetch when neither the request nor
// WithFetchTimeout sets a deadline.
const defaultFetchTimeout = 15 * time.Second

// Pipeline is safe for concurrent use.
type Pipeline struct {
	defaults     winnow.Config
	workers      int
	fetchTimeout time.Duration
	cleaner      *cleaner.Cleaner
	dispatcher   *engine.Dispatcher
	cache        *cache.Cache
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithFetchTimeout sets the deadline of URL fetches whose request leaves
// extract.timeout unset. Non-positive values keep the default.
func WithFetchTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.fetchTimeout = d
		}
	}
}

// New builds a Pipeline. d may be nil, in which case URL documents are
// rejected; cc may be nil to disable caching. An unknown selection in cfg
// falls back to minimum; callers that must reject it check
// cfg.Policy first.
func New(cfg config.WinnowConfig, workers int, cl *cleaner.Cleaner, d *engine.Dispatcher, cc *cache.Cache, opts ...Option) *Pipeline {
	sel, err := winnow.ParseExtremum(cfg.Selection)
	if err != nil {
		slog.Warn("unknown selection, using min", "selection", cfg.Selection)
		sel = winnow.Minimum
	}
	if cl == nil {
		cl = cleaner.NewCleaner()
	}
	p := &Pipeline{
		defaults: winnow.Config{
			K:          cfg.K,
			Window:     cfg.Window,
			Base:       cfg.Base,
			Selection:  sel,
			Positional: cfg.Positional,
		},
		workers:      workers,
		fetchTimeout: defaultFetchTimeout,
		cleaner:      cl,
		dispatcher:   d,
		cache:        cc,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Defaults returns the server-wide selection policy.
func (p *Pipeline) Defaults() winnow.Config { return p.defaults }

// Config overlays request options on the defaults and validates the result.
func (p *Pipeline) Config(opts models.WinnowOptions) (winnow.Config, error) {
	cfg := p.defaults
	if opts.K > 0 {
		cfg.K = opts.K
	}
	if opts.Window > 0 {
		cfg.Window = opts.Window
	}
	if opts.Base > 0 {
		cfg.Base = opts.Base
	}
	if opts.Selection != "" {
		sel, err := winnow.ParseExtremum(opts.Selection)
		if err != nil {
			return cfg, models.NewPipelineError(models.ErrCodeInvalidInput, err.Error(), err)
		}
		cfg.Selection = sel
	}
	if opts.Positional != nil {
		cfg.Positional = *opts.Positional
	}
	if err := cfg.Validate(); err != nil {
		return cfg, models.NewPipelineError(models.ErrCodeInvalidInput, err.Error(), err)
	}
	return cfg, nil
}

// Resolve returns the text a document stands for: inline text as is, inline
// HTML through the cleaner, and URLs through the dispatcher (then the
// cleaner, unless the server answered text/plain).
func (p *Pipeline) Resolve(ctx context.Context, doc models.Document, opts models.ExtractOptions) (string, error) {
	cleanOpts := cleaner.Options{
		ExtractMode: opts.ExtractMode,
		Format:      opts.Format,
		Selector:    opts.CSSSelector,
		ExcludeTags: opts.ExcludeTags,
	}

	switch doc.Source() {
	case "text":
		return *doc.Text, nil

	case "html":
		return p.cleaner.Text(doc.HTML, "", cleanOpts)

	case "url":
		if p.dispatcher == nil {
			return "", models.NewPipelineError(models.ErrCodeInvalidInput, "url documents are disabled", nil)
		}
		timeout := p.fetchTimeout
		if opts.Timeout > 0 {
			timeout = time.Duration(opts.Timeout) * time.Second
		}
		res, err := p.dispatcher.Dispatch(ctx, &engine.FetchRequest{URL: doc.URL, Timeout: timeout})
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return "", models.NewPipelineError(models.ErrCodeTimeout, "fetch timed out", err)
			}
			return "", models.NewPipelineError(models.ErrCodeFetch, "failed to fetch "+doc.URL, err)
		}
		if !res.IsHTML() {
			return res.Body, nil
		}
		return p.cleaner.Text(res.Body, res.FinalURL, cleanOpts)

	default:
		return "", models.NewPipelineError(models.ErrCodeInvalidInput, "exactly one of text, html or url must be set", nil)
	}
}

// Fingerprint resolves and winnows a single document.
func (p *Pipeline) Fingerprint(ctx context.Context, req *models.FingerprintRequest) (*models.FingerprintResponse, error) {
	cfg, err := p.Config(req.Winnow)
	if err != nil {
		return nil, err
	}

	text, err := p.Resolve(ctx, req.Document, req.Extract)
	if err != nil {
		return nil, err
	}

	fp, hit, err := p.winnow(text, cfg)
	if err != nil {
		return nil, models.NewPipelineError(models.ErrCodeInternal, "fingerprinting failed", err)
	}

	return describe(req.Document, text, fp, cfg, hit, true), nil
}

// Compare resolves, winnows and scores every document of req. Per-document
// failures abort the whole comparison and carry the document index.
func (p *Pipeline) Compare(ctx context.Context, req *models.CompareRequest) (*models.CompareResponse, error) {
	start := time.Now()

	cfg, err := p.Config(req.Winnow)
	if err != nil {
		return nil, err
	}

	texts, err := p.resolveAll(ctx, req.Documents, req.Extract)
	if err != nil {
		return nil, err
	}
	resolved := time.Now()

	cmp, err := winnow.NewComparator(cfg, p.workers)
	if err != nil {
		return nil, models.NewPipelineError(models.ErrCodeInvalidInput, err.Error(), err)
	}

	fps, hits, err := p.fingerprintAll(ctx, cmp, texts)
	if err != nil {
		if ctx.Err() != nil {
			return nil, models.NewPipelineError(models.ErrCodeTimeout, "comparison canceled", err)
		}
		return nil, models.NewPipelineError(models.ErrCodeInternal, "fingerprinting failed", err)
	}
	fingerprinted := time.Now()

	result := cmp.Score(fps)
	scored := time.Now()

	docs := make([]models.FingerprintResponse, len(fps))
	for i, fp := range fps {
		docs[i] = *describe(req.Documents[i], texts[i], fp, cfg, hits[i], req.IncludeFingerprints)
	}

	pairs := make([]models.PairResult, 0, len(fps)*(len(fps)-1)/2)
	for i := range fps {
		for j := i + 1; j < len(fps); j++ {
			near := fps[i].Len() > 0 && fps[j].Len() > 0 &&
				simhash.Similar(docs[i].SimHash, docs[j].SimHash, nearDuplicateBits)
			pairs = append(pairs, models.PairResult{
				A:               i,
				B:               j,
				Matches:         result.Matches[i][j],
				Jaccard:         winnow.Similarity(fps[i], fps[j]),
				SimHashDistance: simhash.Distance(docs[i].SimHash, docs[j].SimHash),
				NearDuplicate:   near,
			})
		}
	}

	slog.Debug("comparison complete",
		"documents", len(fps),
		"k", cfg.K,
		"window", cfg.Window,
		"selection", cfg.Selection.String(),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &models.CompareResponse{
		Success:   true,
		Scores:    result.Scores,
		Matches:   result.Matches,
		Pairs:     pairs,
		Documents: docs,
		Config:    effective(cfg),
		Timing: models.TimingInfo{
			TotalMs:       time.Since(start).Milliseconds(),
			ResolveMs:     resolved.Sub(start).Milliseconds(),
			FingerprintMs: fingerprinted.Sub(resolved).Milliseconds(),
			ScoringMs:     scored.Sub(fingerprinted).Milliseconds(),
		},
	}, nil
}

func (p *Pipeline) resolveAll(ctx context.Context, docs []models.Document, opts models.ExtractOptions) ([]string, error) {
	texts := make([]string, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	if p.workers > 0 {
		g.SetLimit(p.workers)
	}
	for i, doc := range docs {
		g.Go(func() error {
			text, err := p.Resolve(gctx, doc, opts)
			if err != nil {
				return atDocument(i, err)
			}
			texts[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return texts, nil
}

// fingerprintAll serves what it can from the cache and winnows the rest
// through cmp in one concurrent pass.
func (p *Pipeline) fingerprintAll(ctx context.Context, cmp *winnow.Comparator, texts []string) ([]*winnow.Fingerprint, []bool, error) {
	cfg := cmp.Config()
	fps := make([]*winnow.Fingerprint, len(texts))
	hits := make([]bool, len(texts))
	keys := make([]string, len(texts))

	var missing []int
	var missTexts []string
	for i, text := range texts {
		if p.cache != nil {
			keys[i] = cache.Key(text, cfg)
			if fp, ok := p.cache.Get(keys[i]); ok {
				fps[i], hits[i] = fp, true
				continue
			}
		}
		missing = append(missing, i)
		missTexts = append(missTexts, text)
	}

	computed, err := cmp.Fingerprints(ctx, missTexts)
	if err != nil {
		return nil, nil, err
	}
	for n, i := range missing {
		fps[i] = computed[n]
		if p.cache != nil {
			p.cache.Set(keys[i], computed[n])
		}
	}
	return fps, hits, nil
}

func (p *Pipeline) winnow(text string, cfg winnow.Config) (*winnow.Fingerprint, bool, error) {
	var key string
	if p.cache != nil {
		key = cache.Key(text, cfg)
		if fp, ok := p.cache.Get(key); ok {
			return fp, true, nil
		}
	}
	fp, err := winnow.Winnow(text, cfg)
	if err != nil {
		return nil, false, err
	}
	if p.cache != nil {
		p.cache.Set(key, fp)
	}
	return fp, false, nil
}

// atDocument tags err with the index of the document that caused it,
// keeping its code when it already has one.
func atDocument(i int, err error) error {
	var pe *models.PipelineError
	if errors.As(err, &pe) {
		return models.DocumentError(i, pe.Code, pe.Message, pe.Err)
	}
	return models.DocumentError(i, models.ErrCodeExtraction, fmt.Sprintf("document %d could not be resolved", i), err)
}

func describe(doc models.Document, text string, fp *winnow.Fingerprint, cfg winnow.Config, hit, include bool) *models.FingerprintResponse {
	resp := &models.FingerprintResponse{
		Success:     true,
		ID:          doc.ID,
		Source:      doc.Source(),
		Characters:  utf8.RuneCountInString(text),
		KGrams:      fp.KGrams(),
		Size:        fp.Len(),
		SimHash:     simhash.FromHashes(fp.Hashes()),
		CacheStatus: "miss",
		Config:      effective(cfg),
	}
	if hit {
		resp.CacheStatus = "hit"
	}
	if !include {
		return resp
	}
	if cfg.Positional {
		entries := fp.Entries()
		resp.Entries = make([]models.Selected, len(entries))
		for i, e := range entries {
			resp.Entries[i] = models.Selected{Hash: e.Hash, Position: e.Position}
		}
	} else {
		resp.Hashes = fp.Hashes()
	}
	return resp
}

func effective(cfg winnow.Config) models.EffectiveConfig {
	return models.EffectiveConfig{
		K:          cfg.K,
		Window:     cfg.Window,
		Base:       cfg.Base,
		Selection:  cfg.Selection.String(),
		Positional: cfg.Positional,
	}
}

// EffectiveDefaults reports the server-wide policy in API form.
func (p *Pipeline) EffectiveDefaults() models.EffectiveConfig {
	return effective(p.defaults)
}
