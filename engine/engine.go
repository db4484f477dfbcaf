package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// ErrUnsupportedContent is returned when a server answers with a body that
// is neither HTML nor plain text.
var ErrUnsupportedContent = errors.New("engine: unsupported content type")

// maxBody caps how much of a response is read.
const maxBody = 10 << 20

// userAgent is sent by every engine unless the request overrides it.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36"

// Engine is the interface that all fetch engines must implement.
type Engine interface {
	// Name returns the engine identifier ("tls", "plain").
	Name() string

	// Fetch retrieves the document at req.URL.
	Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error)
}

// FetchRequest describes one document to retrieve.
type FetchRequest struct {
	URL     string
	Headers map[string]string
	Timeout time.Duration
}

// FetchResult is the output of a successful engine fetch.
type FetchResult struct {
	Body        string
	ContentType string
	Title       string
	StatusCode  int
	FinalURL    string
	EngineName  string
}

// IsHTML reports whether the body should go through HTML extraction.
// Plain text bodies are fingerprinted as they are.
func (r *FetchResult) IsHTML() bool {
	return r.ContentType != "text/plain"
}

// fetch performs a GET with client and validates the response. It is shared
// by every engine; they differ only in transport.
func fetch(ctx context.Context, client *http.Client, name string, req *FetchRequest) (*FetchResult, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", name, err)
	}

	httpReq.Header.Set("User-Agent", userAgent)
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.5")
	httpReq.Header.Set("Accept-Language", "en-US,en;q=0.9")
	httpReq.Header.Set("Accept-Encoding", "identity")
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s: do request: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%s: status %d", name, resp.StatusCode)
	}

	ct := mediaType(resp.Header.Get("Content-Type"))
	switch ct {
	case "text/html", "application/xhtml+xml", "text/plain":
	default:
		return nil, fmt.Errorf("%s: %w: %q", name, ErrUnsupportedContent, ct)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", name, err)
	}

	result := &FetchResult{
		Body:        string(body),
		ContentType: ct,
		StatusCode:  resp.StatusCode,
		FinalURL:    resp.Request.URL.String(),
		EngineName:  name,
	}
	if result.IsHTML() {
		result.Title = extractTitle(result.Body)
	}
	return result, nil
}

// mediaType returns the lower-cased media type of a Content-Type header,
// without parameters. A missing header is treated as HTML.
func mediaType(header string) string {
	if header == "" {
		return "text/html"
	}
	mt, _, err := mime.ParseMediaType(header)
	if err != nil {
		mt, _, _ = strings.Cut(header, ";")
	}
	return strings.ToLower(strings.TrimSpace(mt))
}

// extractTitle uses the Go HTML tokenizer to find the first <title> element.
func extractTitle(body string) string {
	z := html.NewTokenizer(strings.NewReader(body))
	inTitle := false
	for {
		switch z.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			tn, _ := z.TagName()
			inTitle = string(tn) == "title"
		case html.TextToken:
			if inTitle {
				return strings.TrimSpace(string(z.Text()))
			}
		case html.EndTagToken:
			if inTitle {
				return ""
			}
		}
	}
}

func redirectPolicy(req *http.Request, via []*http.Request) error {
	if len(via) >= 10 {
		return fmt.Errorf("too many redirects")
	}
	return nil
}
