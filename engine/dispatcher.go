package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"
)

// Dispatcher races fetch engines with staged escalation: engines[i] starts
// escalationDelays[i] after the race begins, and the first success wins.
type Dispatcher struct {
	engines          []Engine
	escalationDelays []time.Duration
	memory           *DomainMemory
}

// NewDispatcher creates a Dispatcher. Missing delays default to zero.
// memory may be nil to disable domain memory.
func NewDispatcher(engines []Engine, escalationDelays []time.Duration, memory *DomainMemory) *Dispatcher {
	delays := make([]time.Duration, len(engines))
	copy(delays, escalationDelays)
	return &Dispatcher{
		engines:          engines,
		escalationDelays: delays,
		memory:           memory,
	}
}

// Dispatch fetches req.URL. A domain's remembered engine is tried alone
// first; if it fails the memory is dropped and the full race runs.
func (d *Dispatcher) Dispatch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	if len(d.engines) == 0 {
		return nil, fmt.Errorf("dispatcher: no engines configured")
	}
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	domain := extractDomain(req.URL)

	if eng := d.remembered(domain); eng != nil {
		result, err := eng.Fetch(ctx, req)
		if err == nil {
			return result, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}
		slog.Info("remembered engine failed, running full race",
			"domain", domain, "engine", eng.Name(), "error", err)
		d.memory.Delete(domain)
	}

	return d.race(ctx, req, domain)
}

func (d *Dispatcher) remembered(domain string) Engine {
	if d.memory == nil {
		return nil
	}
	name := d.memory.Get(domain)
	if name == "" {
		return nil
	}
	for _, eng := range d.engines {
		if eng.Name() == name {
			slog.Debug("domain memory hit", "domain", domain, "engine", name)
			return eng
		}
	}
	return nil
}

type raceResult struct {
	result *FetchResult
	err    error
}

func (d *Dispatcher) race(ctx context.Context, req *FetchRequest, domain string) (*FetchResult, error) {
	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan raceResult, len(d.engines))
	var wg sync.WaitGroup

	for i, eng := range d.engines {
		wg.Add(1)
		go func(e Engine, delay time.Duration) {
			defer wg.Done()

			if delay > 0 {
				timer := time.NewTimer(delay)
				defer timer.Stop()
				select {
				case <-raceCtx.Done():
					return
				case <-timer.C:
				}
			}
			if raceCtx.Err() != nil {
				return
			}

			slog.Debug("engine starting", "engine", e.Name(), "url", req.URL)
			result, err := e.Fetch(raceCtx, req)
			if err != nil {
				slog.Debug("engine failed", "engine", e.Name(), "url", req.URL, "error", err)
			}
			results <- raceResult{result: result, err: err}
		}(eng, d.escalationDelays[i])
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var lastErr error
	for rr := range results {
		if rr.err != nil {
			lastErr = rr.err
			continue
		}
		cancel()
		slog.Debug("engine won race", "engine", rr.result.EngineName, "url", req.URL)
		if d.memory != nil {
			d.memory.Set(domain, rr.result.EngineName)
		}
		return rr.result, nil
	}

	if lastErr == nil {
		lastErr = ctx.Err()
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("dispatcher: all engines failed for %s", req.URL)
	}
	return nil, lastErr
}

// extractDomain parses the hostname from a URL string.
func extractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Hostname()
}
