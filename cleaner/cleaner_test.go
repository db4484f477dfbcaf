package cleaner

import (
	"errors"
	"strings"
	"testing"

	"github.com/use-agent/winnow/models"
)

const articlePage = `<!DOCTYPE html>
<html>
<head><title>Fingerprints</title><style>body { color: red; }</style></head>
<body>
<nav><a href="/">Home</a> <a href="/about">About</a></nav>
<article>
<h1>Document fingerprinting</h1>
<p>Winnowing selects a small subset of k-gram hashes from every document so that
shared passages between two documents can be found by intersecting the selected
hashes rather than comparing the full texts character by character.</p>
<p>Any shared substring at least as long as the guarantee threshold is detected,
because every window of consecutive hashes contributes one selected value.</p>
</article>
<script>var tracking = "do not fingerprint";</script>
<footer class="legal">Copyright notice</footer>
</body>
</html>`

func TestText_Raw(t *testing.T) {
	c := NewCleaner()

	got, err := c.Text(articlePage, "https://example.com/post", Options{ExtractMode: "raw", Format: "text"})
	if err != nil {
		t.Fatalf("Text: %v", err)
	}

	for _, want := range []string{"Document fingerprinting", "Home", "Copyright notice"} {
		if !strings.Contains(got, want) {
			t.Errorf("raw text missing %q", want)
		}
	}
	for _, unwanted := range []string{"do not fingerprint", "color: red"} {
		if strings.Contains(got, unwanted) {
			t.Errorf("raw text should not contain %q", unwanted)
		}
	}
}

func TestText_Readability(t *testing.T) {
	c := NewCleaner()

	got, err := c.Text(articlePage, "https://example.com/post", Options{ExtractMode: "readability", Format: "text"})
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if !strings.Contains(got, "intersecting the selected") {
		t.Errorf("readability text missing article body: %q", got)
	}
	if strings.Contains(got, "do not fingerprint") {
		t.Error("readability text should not contain script contents")
	}
}

func TestText_ShortContentFallsBack(t *testing.T) {
	c := NewCleaner()

	got, err := c.Text("<html><body><p>hi there</p></body></html>", "https://example.com/", Options{})
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if got != "hi there" {
		t.Errorf("Text = %q, want %q", got, "hi there")
	}
}

func TestText_SelectorAndExclude(t *testing.T) {
	c := NewCleaner()

	opts := Options{
		ExtractMode: "raw",
		Selector:    "article",
		ExcludeTags: []string{"h1"},
	}
	got, err := c.Text(articlePage, "https://example.com/post", opts)
	if err != nil {
		t.Fatalf("Text: %v", err)
	}

	if !strings.Contains(got, "Winnowing selects") {
		t.Errorf("selected text missing article body: %q", got)
	}
	for _, unwanted := range []string{"Home", "Copyright notice", "Document fingerprinting"} {
		if strings.Contains(got, unwanted) {
			t.Errorf("selected text should not contain %q", unwanted)
		}
	}
}

func TestText_InvalidSelector(t *testing.T) {
	c := NewCleaner()

	_, err := c.Text(articlePage, "https://example.com/post", Options{Selector: "[[["})
	if err == nil {
		t.Fatal("expected error for invalid selector")
	}
	var pe *models.PipelineError
	if !errors.As(err, &pe) {
		t.Fatalf("error %T is not a *models.PipelineError", err)
	}
	if pe.Code != models.ErrCodeInvalidInput {
		t.Errorf("Code = %q, want %q", pe.Code, models.ErrCodeInvalidInput)
	}
}

func TestText_Markdown(t *testing.T) {
	c := NewCleaner()

	opts := Options{ExtractMode: "raw", Format: "markdown", Selector: "h1"}
	got, err := c.Text(articlePage, "https://example.com/post", opts)
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if strings.TrimSpace(got) != "# Document fingerprinting" {
		t.Errorf("markdown = %q", got)
	}
}

func TestNarrow(t *testing.T) {
	page := `<div><p class="keep">keep me <span class="ad">buy now</span></p><p>drop me</p></div>`

	tests := []struct {
		name     string
		selector string
		exclude  []string
		want     []string
		absent   []string
	}{
		{"selector", "p.keep", nil, []string{"keep me", "buy now"}, []string{"drop me"}},
		{"no match keeps page", "section", nil, []string{"keep me", "drop me"}, nil},
		{"exclude only", "", []string{".ad", "  "}, []string{"keep me", "drop me"}, []string{"buy now"}},
		{"selector and exclude", "p.keep", []string{".ad"}, []string{"keep me"}, []string{"buy now", "drop me"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Narrow(page, tt.selector, tt.exclude)
			if err != nil {
				t.Fatalf("Narrow: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("result %q missing %q", got, w)
				}
			}
			for _, a := range tt.absent {
				if strings.Contains(got, a) {
					t.Errorf("result %q still contains %q", got, a)
				}
			}
		})
	}
}

func TestNarrow_Passthrough(t *testing.T) {
	page := `<p>untouched</p>`
	got, err := Narrow(page, "", []string{" "})
	if err != nil {
		t.Fatalf("Narrow: %v", err)
	}
	if got != page {
		t.Errorf("Narrow() = %q, want input unchanged", got)
	}

	if _, err := Narrow(page, "p[", nil); err == nil {
		t.Error("malformed selector should fail")
	}
}
