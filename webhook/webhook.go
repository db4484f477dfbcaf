package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Event types.
const (
	EventCompareCompleted = "compare.completed"
	EventCompareFailed    = "compare.failed"
)

// SignatureHeader carries the HMAC of the request body.
const SignatureHeader = "X-Winnow-Signature"

// Event is the payload sent to webhook endpoints.
type Event struct {
	Type      string `json:"type"`
	JobID     string `json:"job_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data"`
}

// retryDelays precede each delivery attempt.
var retryDelays = []time.Duration{0, 1 * time.Second, 5 * time.Second, 30 * time.Second}

var client = &http.Client{Timeout: 10 * time.Second}

// Sign returns the signature header value for body: "sha256=<hex>".
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature matches body under secret.
func Verify(secret string, body []byte, signature string) bool {
	return hmac.Equal([]byte(Sign(secret, body)), []byte(signature))
}

// Deliver sends a webhook event synchronously. The body is signed when
// secret is non-empty.
func Deliver(ctx context.Context, url, secret string, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Winnow-Webhook/1.0")
	if secret != "" {
		req.Header.Set(SignatureHeader, Sign(secret, body))
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// DeliverAsync sends a webhook event in the background, retrying after
// 1s, 5s and 30s.
func DeliverAsync(url, secret string, event *Event) {
	go deliverWithRetry(url, secret, event, retryDelays)
}

func deliverWithRetry(url, secret string, event *Event, delays []time.Duration) bool {
	for attempt, delay := range delays {
		if delay > 0 {
			time.Sleep(delay)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := Deliver(ctx, url, secret, event)
		cancel()
		if err == nil {
			slog.Info("webhook delivered",
				"url", url,
				"event", event.Type,
				"job_id", event.JobID,
				"attempt", attempt+1,
			)
			return true
		}
		slog.Warn("webhook delivery failed",
			"url", url,
			"event", event.Type,
			"job_id", event.JobID,
			"attempt", attempt+1,
			"error", err,
		)
	}
	slog.Error("webhook delivery exhausted all retries",
		"url", url,
		"event", event.Type,
		"job_id", event.JobID,
	)
	return false
}
