package main

import (
	"strings"
	"testing"
)

func TestFormatCompare(t *testing.T) {
	docs := []document{{Text: "a"}, {URL: "https://example.com/b"}}
	resp := &compareResponse{
		Success: true,
		Scores:  []int{3, 3},
	}
	resp.Documents = make([]struct {
		Size   int `json:"size"`
		KGrams int `json:"kgrams"`
	}, 2)
	resp.Documents[0].Size = 5
	resp.Documents[1].Size = 7

	got := formatCompare(docs, resp)
	for _, want := range []string{
		"[0] text #1: 3 (fingerprint size 5)",
		"[1] https://example.com/b: 3 (fingerprint size 7)",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Pairs:") {
		t.Error("no pairs section expected without pairs")
	}
}

func TestErrorMessage(t *testing.T) {
	idx := 2
	tests := []struct {
		name string
		err  *apiError
		want string
	}{
		{"nil", nil, "fallback"},
		{"plain", &apiError{Code: "INVALID_INPUT", Message: "bad"}, "[INVALID_INPUT] bad"},
		{"document", &apiError{Code: "FETCH_FAILED", Message: "down", Document: &idx}, "[FETCH_FAILED] document 2: down"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorMessage(tt.err, "fallback"); got != tt.want {
				t.Errorf("errorMessage = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatFingerprint(t *testing.T) {
	resp := &fingerprintResponse{Characters: 8, KGrams: 6, Size: 2, SimHash: 0xff, Hashes: []uint64{10, 20}}
	got := formatFingerprint(resp)
	if !strings.Contains(got, "SimHash: 00000000000000ff") || !strings.HasSuffix(got, "10\n20\n") {
		t.Errorf("unexpected output:\n%s", got)
	}
}
