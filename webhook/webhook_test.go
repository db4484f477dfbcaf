package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestDeliver_Signed(t *testing.T) {
	var (
		gotSig  string
		gotBody []byte
		gotType string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get(SignatureHeader)
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	event := &Event{Type: EventCompareCompleted, JobID: "batch-1", Timestamp: 1700000000, Data: map[string]int{"documents": 2}}
	if err := Deliver(context.Background(), srv.URL, "s3cret", event); err != nil {
		t.Fatalf("Deliver: %v", err)
	}

	if gotType != "application/json" {
		t.Errorf("Content-Type = %q", gotType)
	}
	if !Verify("s3cret", gotBody, gotSig) {
		t.Errorf("signature %q does not verify", gotSig)
	}
	if Verify("other", gotBody, gotSig) {
		t.Error("signature verified under the wrong secret")
	}

	var decoded Event
	if err := json.Unmarshal(gotBody, &decoded); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if decoded.Type != EventCompareCompleted || decoded.JobID != "batch-1" {
		t.Errorf("decoded event = %+v", decoded)
	}
}

func TestDeliver_Unsigned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sig := r.Header.Get(SignatureHeader); sig != "" {
			t.Errorf("unexpected signature %q", sig)
		}
	}))
	defer srv.Close()

	if err := Deliver(context.Background(), srv.URL, "", &Event{Type: EventCompareFailed}); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
}

func TestDeliver_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if err := Deliver(context.Background(), srv.URL, "", &Event{}); err == nil {
		t.Error("expected error for 500 response")
	}
}

func TestDeliverWithRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	delays := []time.Duration{0, time.Millisecond, time.Millisecond, time.Millisecond}
	if !deliverWithRetry(srv.URL, "", &Event{Type: EventCompareCompleted}, delays) {
		t.Fatal("delivery should succeed on the third attempt")
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("calls = %d, want 3", n)
	}

	calls.Store(-10)
	if deliverWithRetry(srv.URL, "", &Event{}, delays[:2]) {
		t.Error("delivery should fail once retries are exhausted")
	}
}

func TestSign(t *testing.T) {
	// HMAC-SHA256("key", "The quick brown fox jumps over the lazy dog")
	const want = "sha256=f7bc83f430538424b13298e6aa6fb143ef4d59a14946175997479dbc2d1a3cd8"
	if got := Sign("key", []byte("The quick brown fox jumps over the lazy dog")); got != want {
		t.Errorf("Sign = %s, want %s", got, want)
	}
}
