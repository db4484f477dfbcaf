package engine

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// PlainEngine fetches with the standard library TLS stack. It reaches
// servers that reject the Chrome hello and is the only engine that honours
// a proxy.
type PlainEngine struct {
	client *http.Client
}

// NewPlainEngine creates a PlainEngine. proxy may be empty.
func NewPlainEngine(proxy string) (*PlainEngine, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxy != "" {
		u, err := url.Parse(proxy)
		if err != nil {
			return nil, fmt.Errorf("plain: parse proxy: %w", err)
		}
		transport.Proxy = http.ProxyURL(u)
	}
	return &PlainEngine{
		client: &http.Client{
			Transport:     transport,
			CheckRedirect: redirectPolicy,
		},
	}, nil
}

func (e *PlainEngine) Name() string { return "plain" }

func (e *PlainEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	return fetch(ctx, e.client, e.Name(), req)
}
