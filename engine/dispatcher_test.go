package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type fakeEngine struct {
	name  string
	err   error
	delay time.Duration
	calls atomic.Int32
}

func (f *fakeEngine) Name() string { return f.name }

func (f *fakeEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &FetchResult{Body: f.name, ContentType: "text/plain", EngineName: f.name, FinalURL: req.URL}, nil
}

func TestDispatcher_FirstSuccessWins(t *testing.T) {
	fast := &fakeEngine{name: "fast"}
	slow := &fakeEngine{name: "slow", delay: time.Second}
	mem := NewDomainMemory(time.Hour)
	defer mem.Stop()

	d := NewDispatcher([]Engine{slow, fast}, []time.Duration{0, 0}, mem)
	res, err := d.Dispatch(context.Background(), &FetchRequest{URL: "https://example.com/a"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res.EngineName != "fast" {
		t.Errorf("winner = %q, want fast", res.EngineName)
	}
	if got := mem.Get("example.com"); got != "fast" {
		t.Errorf("remembered = %q, want fast", got)
	}
}

func TestDispatcher_Escalates(t *testing.T) {
	broken := &fakeEngine{name: "broken", err: errors.New("blocked")}
	backup := &fakeEngine{name: "backup"}

	d := NewDispatcher([]Engine{broken, backup}, []time.Duration{0, 10 * time.Millisecond}, nil)
	res, err := d.Dispatch(context.Background(), &FetchRequest{URL: "https://example.com/"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res.EngineName != "backup" {
		t.Errorf("winner = %q, want backup", res.EngineName)
	}
}

func TestDispatcher_EscalationSkippedAfterWin(t *testing.T) {
	first := &fakeEngine{name: "first"}
	late := &fakeEngine{name: "late"}

	d := NewDispatcher([]Engine{first, late}, []time.Duration{0, time.Minute}, nil)
	if _, err := d.Dispatch(context.Background(), &FetchRequest{URL: "https://example.com/"}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if n := late.calls.Load(); n != 0 {
		t.Errorf("late engine called %d times, want 0", n)
	}
}

func TestDispatcher_AllFail(t *testing.T) {
	want := errors.New("second failure")
	a := &fakeEngine{name: "a", err: errors.New("first failure")}
	b := &fakeEngine{name: "b", err: want, delay: 20 * time.Millisecond}

	d := NewDispatcher([]Engine{a, b}, nil, nil)
	_, err := d.Dispatch(context.Background(), &FetchRequest{URL: "https://example.com/"})
	if !errors.Is(err, want) {
		t.Errorf("err = %v, want last failure", err)
	}
}

func TestDispatcher_RememberedEngine(t *testing.T) {
	a := &fakeEngine{name: "a", delay: 50 * time.Millisecond}
	b := &fakeEngine{name: "b"}
	mem := NewDomainMemory(time.Hour)
	defer mem.Stop()
	mem.Set("example.com", "a")

	d := NewDispatcher([]Engine{a, b}, []time.Duration{0, 0}, mem)
	res, err := d.Dispatch(context.Background(), &FetchRequest{URL: "https://example.com/x"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res.EngineName != "a" {
		t.Errorf("winner = %q, want remembered engine a", res.EngineName)
	}
	if n := b.calls.Load(); n != 0 {
		t.Errorf("engine b called %d times, want 0", n)
	}
}

func TestDispatcher_RememberedEngineFails(t *testing.T) {
	a := &fakeEngine{name: "a", err: errors.New("gone")}
	b := &fakeEngine{name: "b"}
	mem := NewDomainMemory(time.Hour)
	defer mem.Stop()
	mem.Set("example.com", "a")

	d := NewDispatcher([]Engine{a, b}, []time.Duration{0, 0}, mem)
	res, err := d.Dispatch(context.Background(), &FetchRequest{URL: "https://example.com/x"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res.EngineName != "b" {
		t.Errorf("winner = %q, want b", res.EngineName)
	}
	if got := mem.Get("example.com"); got != "b" {
		t.Errorf("remembered = %q, want b", got)
	}
}

func TestDispatcher_Timeout(t *testing.T) {
	slow := &fakeEngine{name: "slow", delay: time.Minute}

	d := NewDispatcher([]Engine{slow}, nil, nil)
	_, err := d.Dispatch(context.Background(), &FetchRequest{URL: "https://example.com/", Timeout: 20 * time.Millisecond})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}

func TestDispatcher_NoEngines(t *testing.T) {
	d := NewDispatcher(nil, nil, nil)
	if _, err := d.Dispatch(context.Background(), &FetchRequest{URL: "https://example.com/"}); err == nil {
		t.Error("expected error with no engines")
	}
}

func TestDomainMemory_Expiry(t *testing.T) {
	mem := NewDomainMemory(time.Minute)
	defer mem.Stop()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mem.now = func() time.Time { return now }

	mem.Set("a.com", "tls")
	mem.Set("b.com", "plain")
	if got := mem.Get("a.com"); got != "tls" {
		t.Fatalf("Get = %q, want tls", got)
	}

	now = now.Add(2 * time.Minute)
	if got := mem.Get("a.com"); got != "" {
		t.Errorf("expired entry returned %q", got)
	}

	mem.prune()
	if n := mem.Len(); n != 0 {
		t.Errorf("Len after prune = %d, want 0", n)
	}
}

func TestExtractDomain(t *testing.T) {
	tests := map[string]string{
		"https://Example.com:8443/a?b": "Example.com",
		"http://sub.example.org":       "sub.example.org",
	}
	for in, want := range tests {
		if got := extractDomain(in); got != want {
			t.Errorf("extractDomain(%q) = %q, want %q", in, got, want)
		}
	}
}
