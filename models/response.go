package models

// Selected is a fingerprint hash tagged with the k-gram position it came from.
type Selected struct {
	Hash     uint64 `json:"hash"`
	Position int    `json:"position"`
}

// FingerprintResponse is the response for POST /api/v1/fingerprint and the
// per-document entry of CompareResponse.
type FingerprintResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`

	// Source is "text", "html" or "url".
	Source string `json:"source"`

	// Characters is the rune count of the text that was fingerprinted.
	Characters int `json:"characters"`

	// KGrams is the number of k-grams hashed.
	KGrams int `json:"kgrams"`

	// Size is the number of distinct selected hashes.
	Size int `json:"size"`

	// SimHash is a 64-bit signature of the selected hashes.
	SimHash uint64 `json:"simhash"`

	// Hashes lists the selected hashes in ascending order (plain mode).
	Hashes []uint64 `json:"hashes,omitempty"`

	// Entries lists (hash, position) pairs by position (positional mode).
	Entries []Selected `json:"entries,omitempty"`

	// CacheStatus is "hit" or "miss".
	CacheStatus string `json:"cache_status,omitempty"`

	Config EffectiveConfig `json:"config"`

	Error *ErrorDetail `json:"error,omitempty"`
}

// EffectiveConfig echoes the selection policy a response was computed with.
type EffectiveConfig struct {
	K          int    `json:"k"`
	Window     int    `json:"window"`
	Base       uint64 `json:"base"`
	Selection  string `json:"selection"`
	Positional bool   `json:"positional"`
}

// PairResult is the overlap between two documents.
type PairResult struct {
	A               int     `json:"a"`
	B               int     `json:"b"`
	Matches         int     `json:"matches"`
	Jaccard         float64 `json:"jaccard"`
	SimHashDistance int     `json:"simhash_distance"`

	// NearDuplicate is set when both fingerprints are non-empty and their
	// signatures differ in at most a few bits.
	NearDuplicate bool `json:"near_duplicate"`
}

// CompareResponse is the response for POST /api/v1/compare.
type CompareResponse struct {
	Success bool `json:"success"`

	// Scores holds one total per document, in request order: the number of
	// fingerprint hashes it shares with each other document, summed.
	Scores []int `json:"scores"`

	// Matches is the symmetric pairwise shared-hash matrix.
	Matches [][]int `json:"matches"`

	// Pairs lists every unordered pair (a < b).
	Pairs []PairResult `json:"pairs"`

	Documents []FingerprintResponse `json:"documents"`

	Config EffectiveConfig `json:"config"`

	Timing TimingInfo `json:"timing"`

	Error *ErrorDetail `json:"error,omitempty"`
}

// TimingInfo breaks down the time spent in each phase.
type TimingInfo struct {
	// TotalMs is the end-to-end duration in milliseconds.
	TotalMs int64 `json:"total_ms"`

	// ResolveMs is the time spent fetching and extracting document text.
	ResolveMs int64 `json:"resolve_ms"`

	// FingerprintMs is the time spent winnowing.
	FingerprintMs int64 `json:"fingerprint_ms"`

	// ScoringMs is the time spent intersecting fingerprints.
	ScoringMs int64 `json:"scoring_ms"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status  string          `json:"status"` // "healthy" or "degraded"
	Uptime  string          `json:"uptime"`
	Cache   CacheStats      `json:"cache"`
	Config  EffectiveConfig `json:"config"`
	Version string          `json:"version"`
}

// CacheStats reports fingerprint cache utilisation.
type CacheStats struct {
	Entries    int    `json:"entries"`
	MaxEntries int    `json:"max_entries"`
	Hits       uint64 `json:"hits"`
	Misses     uint64 `json:"misses"`
	// Persisted counts fingerprints in the on-disk store, when one is used.
	Persisted int `json:"persisted,omitempty"`
}
