package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/use-agent/winnow/winnow"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Winnow    WinnowConfig
	Compare   CompareConfig
	Fetch     FetchConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Log       LogConfig
}

// WinnowConfig is the default selection policy. Requests may override it.
type WinnowConfig struct {
	// K is the k-gram length in characters.
	K int // default: 4

	// Window is the number of consecutive k-grams per selection window.
	Window int // default: 4

	// Base is the rolling hash base. Should exceed the largest character
	// code in the corpus.
	Base uint64 // default: 257

	// Selection is "min" or "max".
	Selection string // default: "min"

	// Positional keeps the position of every selected hash.
	Positional bool // default: false
}

// Policy converts c into a validated winnow.Config.
func (c WinnowConfig) Policy() (winnow.Config, error) {
	sel, err := winnow.ParseExtremum(c.Selection)
	if err != nil {
		return winnow.Config{}, fmt.Errorf("WINNOW_SELECTION: %w", err)
	}
	policy := winnow.Config{
		K:          c.K,
		Window:     c.Window,
		Base:       c.Base,
		Selection:  sel,
		Positional: c.Positional,
	}
	if err := policy.Validate(); err != nil {
		return winnow.Config{}, err
	}
	return policy, nil
}

// CompareConfig bounds comparison work per request.
type CompareConfig struct {
	// Workers is how many documents are fingerprinted concurrently.
	// 0 means GOMAXPROCS.
	Workers int // default: 0

	// MaxDocuments caps the documents accepted per comparison.
	MaxDocuments int // default: 100

	// MaxDocumentBytes caps the size of each inline document.
	MaxDocumentBytes int // default: 4 MiB
}

// FetchConfig controls retrieval of URL documents.
type FetchConfig struct {
	// Timeout is the default per-URL deadline.
	Timeout time.Duration // default: 15s

	// EscalationDelays is the staged start delay for each engine tier.
	EscalationDelays []time.Duration // default: [0s, 2s]

	// DomainMemoryTTL is how long the winning engine is remembered per domain.
	DomainMemoryTTL time.Duration // default: 24h

	// Proxy is an optional http(s) proxy URL for every fetch.
	Proxy string
}

// CacheConfig controls the fingerprint cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached fingerprints.
	MaxEntries int // default: 10000

	// TTL is how long a cached fingerprint stays valid.
	TTL time.Duration // default: 1h

	// Path is a BoltDB file that persists fingerprints across restarts.
	// Empty keeps the cache in memory only.
	Path string
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per API key.
	Burst int // default: 10
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("WINNOW_HOST", "0.0.0.0"),
			Port: envIntOr("WINNOW_PORT", 8080),
			Mode: envOr("WINNOW_MODE", "release"),
		},
		Winnow: WinnowConfig{
			K:          envIntOr("WINNOW_K", 4),
			Window:     envIntOr("WINNOW_WINDOW", 4),
			Base:       envUintOr("WINNOW_BASE", 257),
			Selection:  envOr("WINNOW_SELECTION", "min"),
			Positional: envBoolOr("WINNOW_POSITIONAL", false),
		},
		Compare: CompareConfig{
			Workers:          envIntOr("WINNOW_WORKERS", 0),
			MaxDocuments:     envIntOr("WINNOW_MAX_DOCUMENTS", 100),
			MaxDocumentBytes: envIntOr("WINNOW_MAX_DOCUMENT_BYTES", 4<<20),
		},
		Fetch: FetchConfig{
			Timeout:          envDurationOr("WINNOW_FETCH_TIMEOUT", 15*time.Second),
			EscalationDelays: envDurationSliceOr("WINNOW_ESCALATION_DELAYS", []time.Duration{0, 2 * time.Second}),
			DomainMemoryTTL:  envDurationOr("WINNOW_DOMAIN_MEMORY_TTL", 24*time.Hour),
			Proxy:            os.Getenv("WINNOW_PROXY"),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("WINNOW_AUTH_ENABLED", true),
			APIKeys: envSliceOr("WINNOW_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("WINNOW_RATE_RPS", 5.0),
			Burst:             envIntOr("WINNOW_RATE_BURST", 10),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("WINNOW_CACHE_MAX_ENTRIES", 10000),
			TTL:        envDurationOr("WINNOW_CACHE_TTL", time.Hour),
			Path:       os.Getenv("WINNOW_CACHE_PATH"),
		},
		Log: LogConfig{
			Level:  envOr("WINNOW_LOG_LEVEL", "info"),
			Format: envOr("WINNOW_LOG_FORMAT", "json"),
		},
	}
}

func envDurationSliceOr(key string, fallback []time.Duration) []time.Duration {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]time.Duration, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				if d, err := time.ParseDuration(trimmed); err == nil {
					result = append(result, d)
				}
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envUintOr(key string, fallback uint64) uint64 {
	if v := os.Getenv(key); v != "" {
		if u, err := strconv.ParseUint(v, 10, 64); err == nil {
			return u
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
