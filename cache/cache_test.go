package cache

import (
	"testing"
	"time"

	"github.com/use-agent/winnow/winnow"
)

func mustWinnow(t *testing.T, text string) *winnow.Fingerprint {
	t.Helper()
	fp, err := winnow.Winnow(text, winnow.DefaultConfig())
	if err != nil {
		t.Fatalf("Winnow: %v", err)
	}
	return fp
}

func TestKey_DependsOnPolicy(t *testing.T) {
	base := winnow.DefaultConfig()
	ref := Key("some text", base)

	if got := Key("some text", base); got != ref {
		t.Fatalf("Key is not deterministic: %s vs %s", got, ref)
	}

	variants := map[string]winnow.Config{
		"k":          {K: 5, Window: base.Window, Base: base.Base, Selection: base.Selection},
		"window":     {K: base.K, Window: 9, Base: base.Base, Selection: base.Selection},
		"base":       {K: base.K, Window: base.Window, Base: 26, Selection: base.Selection},
		"selection":  {K: base.K, Window: base.Window, Base: base.Base, Selection: winnow.Maximum},
		"positional": {K: base.K, Window: base.Window, Base: base.Base, Selection: base.Selection, Positional: true},
	}
	for name, cfg := range variants {
		t.Run(name, func(t *testing.T) {
			if Key("some text", cfg) == ref {
				t.Errorf("changing %s did not change the key", name)
			}
		})
	}

	if Key("other text", base) == ref {
		t.Error("changing the text did not change the key")
	}
}

func TestCache_GetSet(t *testing.T) {
	c := New(10, time.Hour)
	defer c.Close()

	key := Key("hello world", winnow.DefaultConfig())
	if _, ok := c.Get(key); ok {
		t.Fatal("expected miss on empty cache")
	}

	fp := mustWinnow(t, "hello world")
	c.Set(key, fp)

	got, ok := c.Get(key)
	if !ok {
		t.Fatal("expected hit after Set")
	}
	if got != fp {
		t.Error("Get returned a different fingerprint")
	}

	stats := c.Stats()
	if stats.Entries != 1 || stats.MaxEntries != 10 {
		t.Errorf("unexpected size stats: %+v", stats)
	}
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("hits/misses = %d/%d, want 1/1", stats.Hits, stats.Misses)
	}
}

func TestCache_EvictsAtCapacity(t *testing.T) {
	c := New(2, time.Hour)
	defer c.Close()

	fp := mustWinnow(t, "abcdefgh")
	for _, text := range []string{"a", "b", "c", "d"} {
		c.Set(Key(text, winnow.DefaultConfig()), fp)
	}

	if n := c.Stats().Entries; n != 2 {
		t.Errorf("Entries = %d, want 2", n)
	}
}

func TestCache_OverwriteDoesNotEvict(t *testing.T) {
	c := New(2, time.Hour)
	defer c.Close()

	fp := mustWinnow(t, "abcdefgh")
	k1 := Key("one", winnow.DefaultConfig())
	k2 := Key("two", winnow.DefaultConfig())
	c.Set(k1, fp)
	c.Set(k2, fp)
	c.Set(k2, fp)

	if _, ok := c.Get(k1); !ok {
		t.Error("overwriting an existing key evicted another entry")
	}
}

func TestCache_Disabled(t *testing.T) {
	c := New(0, time.Hour)
	defer c.Close()

	key := Key("x", winnow.DefaultConfig())
	c.Set(key, mustWinnow(t, "xxxxxxxx"))
	if _, ok := c.Get(key); ok {
		t.Error("cache with zero capacity should never hit")
	}
}

func TestCache_Expiry(t *testing.T) {
	c := New(10, time.Hour)
	defer c.Close()

	key := Key("expiring", winnow.DefaultConfig())
	c.Set(key, mustWinnow(t, "expiring"))

	c.evictExpired(time.Now().Add(2 * time.Hour))

	if _, ok := c.Get(key); ok {
		t.Error("expired entry should have been evicted")
	}
	if n := c.Stats().Entries; n != 0 {
		t.Errorf("Entries = %d, want 0", n)
	}
}
