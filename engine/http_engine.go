package engine

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	tls "github.com/refraction-networking/utls"
)

// HTTPEngine fetches over a Chrome-like TLS ClientHello so that servers
// fingerprinting TLS clients answer it like a browser.
type HTTPEngine struct {
	client *http.Client
}

// chromeH1Spec is a Chrome-like TLS ClientHello with ALPN forced to http/1.1
// only. Computed once at init time and reused for every connection.
var chromeH1Spec tls.ClientHelloSpec

func init() {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		return
	}
	// http.Transport cannot speak h2 over a utls connection.
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	chromeH1Spec = spec
}

// NewHTTPEngine creates an HTTPEngine. Plain http:// URLs use the default
// dialer; only TLS connections carry the custom hello.
func NewHTTPEngine() *HTTPEngine {
	transport := &http.Transport{
		DialTLSContext:    dialChromeTLS,
		ForceAttemptHTTP2: false,
		IdleConnTimeout:   90 * time.Second,
	}
	return &HTTPEngine{
		client: &http.Client{
			Transport:     transport,
			CheckRedirect: redirectPolicy,
		},
	}
}

func dialChromeTLS(ctx context.Context, network, addr string) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	host, _, _ := net.SplitHostPort(addr)
	tlsConn := tls.UClient(conn, &tls.Config{ServerName: host}, tls.HelloCustom)
	if err := tlsConn.ApplyPreset(&chromeH1Spec); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tls: apply client hello: %w", err)
	}
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return tlsConn, nil
}

func (e *HTTPEngine) Name() string { return "tls" }

func (e *HTTPEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	return fetch(ctx, e.client, e.Name(), req)
}
