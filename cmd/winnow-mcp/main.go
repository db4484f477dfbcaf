package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// document mirrors the API document model.
type document struct {
	Text string `json:"text,omitempty"`
	URL  string `json:"url,omitempty"`
}

// winnowOptions mirrors the API selection overrides.
type winnowOptions struct {
	K          int    `json:"k,omitempty"`
	Window     int    `json:"window,omitempty"`
	Selection  string `json:"selection,omitempty"`
	Positional *bool  `json:"positional,omitempty"`
}

type apiError struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Document *int   `json:"document"`
}

// compareResponse mirrors the parts of the API compare response shown to
// the model.
type compareResponse struct {
	Success bool  `json:"success"`
	Scores  []int `json:"scores"`
	Pairs   []struct {
		A       int     `json:"a"`
		B       int     `json:"b"`
		Matches int     `json:"matches"`
		Jaccard float64 `json:"jaccard"`
	} `json:"pairs"`
	Documents []struct {
		Size   int `json:"size"`
		KGrams int `json:"kgrams"`
	} `json:"documents"`
	Error *apiError `json:"error"`
}

// fingerprintResponse mirrors the API fingerprint response.
type fingerprintResponse struct {
	Success    bool     `json:"success"`
	Characters int      `json:"characters"`
	KGrams     int      `json:"kgrams"`
	Size       int      `json:"size"`
	SimHash    uint64   `json:"simhash"`
	Hashes     []uint64 `json:"hashes"`
	Entries    []struct {
		Hash     uint64 `json:"hash"`
		Position int    `json:"position"`
	} `json:"entries"`
	Error *apiError `json:"error"`
}

func main() {
	apiURL := os.Getenv("WINNOW_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("WINNOW_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "WINNOW_API_KEY is required")
		os.Exit(1)
	}

	s := server.NewMCPServer(
		"winnow",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	compareTool := mcp.NewTool("compare_documents",
		mcp.WithDescription("Compare documents for shared passages using winnowing fingerprints. Returns, per document, how many fingerprint hashes it shares with the others, plus pairwise overlap."),
		mcp.WithArray("texts",
			mcp.Description("Inline documents to compare"),
		),
		mcp.WithArray("urls",
			mcp.Description("URLs of documents to fetch and compare, after the inline texts"),
		),
		mcp.WithNumber("k",
			mcp.Description("K-gram length in characters (default: server setting)"),
		),
		mcp.WithNumber("window",
			mcp.Description("Selection window in k-grams (default: server setting)"),
		),
		mcp.WithString("selection",
			mcp.Description("Which hash each window keeps: 'min' or 'max'"),
			mcp.Enum("min", "max"),
		),
	)
	s.AddTool(compareTool, handleCompare(apiURL, apiKey))

	fingerprintTool := mcp.NewTool("fingerprint_document",
		mcp.WithDescription("Compute the winnowing fingerprint of one document, given inline text or a URL."),
		mcp.WithString("text",
			mcp.Description("Inline document text"),
		),
		mcp.WithString("url",
			mcp.Description("URL of the document, when no text is given"),
		),
		mcp.WithNumber("k",
			mcp.Description("K-gram length in characters (default: server setting)"),
		),
		mcp.WithNumber("window",
			mcp.Description("Selection window in k-grams (default: server setting)"),
		),
		mcp.WithBoolean("positional",
			mcp.Description("Return (hash, position) pairs instead of bare hashes"),
		),
	)
	s.AddTool(fingerprintTool, handleFingerprint(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiPost sends a POST request to the winnow API and returns the response body.
func apiPost(ctx context.Context, client *http.Client, apiURL, apiKey, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

func optionsFrom(request mcp.CallToolRequest) winnowOptions {
	opts := winnowOptions{
		K:         request.GetInt("k", 0),
		Window:    request.GetInt("window", 0),
		Selection: request.GetString("selection", ""),
	}
	if args := request.GetArguments(); args != nil {
		if _, ok := args["positional"]; ok {
			positional := request.GetBool("positional", false)
			opts.Positional = &positional
		}
	}
	return opts
}

func handleCompare(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 300 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var docs []document
		for _, t := range request.GetStringSlice("texts", nil) {
			docs = append(docs, document{Text: t})
		}
		for _, u := range request.GetStringSlice("urls", nil) {
			docs = append(docs, document{URL: u})
		}
		if len(docs) == 0 {
			return mcp.NewToolResultError("at least one of texts or urls is required"), nil
		}

		payload := map[string]any{
			"documents": docs,
			"winnow":    optionsFrom(request),
		}
		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/compare", payload)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var resp compareResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if !resp.Success {
			return mcp.NewToolResultError(errorMessage(resp.Error, "compare failed")), nil
		}

		return mcp.NewToolResultText(formatCompare(docs, &resp)), nil
	}
}

func handleFingerprint(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 120 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		doc := document{
			Text: request.GetString("text", ""),
			URL:  request.GetString("url", ""),
		}
		if doc.Text != "" {
			doc.URL = ""
		}
		if doc.Text == "" && doc.URL == "" {
			return mcp.NewToolResultError("text or url is required"), nil
		}

		payload := map[string]any{
			"document": doc,
			"winnow":   optionsFrom(request),
		}
		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/fingerprint", payload)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var resp fingerprintResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if !resp.Success {
			return mcp.NewToolResultError(errorMessage(resp.Error, "fingerprint failed")), nil
		}

		return mcp.NewToolResultText(formatFingerprint(&resp)), nil
	}
}

func errorMessage(e *apiError, fallback string) string {
	if e == nil {
		return fallback
	}
	if e.Document != nil {
		return fmt.Sprintf("[%s] document %d: %s", e.Code, *e.Document, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func label(docs []document, i int) string {
	if i < len(docs) && docs[i].URL != "" {
		return docs[i].URL
	}
	return fmt.Sprintf("text #%d", i+1)
}

func formatCompare(docs []document, resp *compareResponse) string {
	var sb strings.Builder
	sb.WriteString("Scores (shared fingerprint hashes with all other documents):\n")
	for i, score := range resp.Scores {
		size := 0
		if i < len(resp.Documents) {
			size = resp.Documents[i].Size
		}
		fmt.Fprintf(&sb, "  [%d] %s: %d (fingerprint size %d)\n", i, label(docs, i), score, size)
	}
	if len(resp.Pairs) > 0 {
		sb.WriteString("\nPairs:\n")
		for _, p := range resp.Pairs {
			fmt.Fprintf(&sb, "  %d-%d: %d shared, jaccard %.3f\n", p.A, p.B, p.Matches, p.Jaccard)
		}
	}
	return sb.String()
}

func formatFingerprint(resp *fingerprintResponse) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Characters: %d\nK-grams: %d\nFingerprint size: %d\nSimHash: %016x\n\n",
		resp.Characters, resp.KGrams, resp.Size, resp.SimHash)
	if len(resp.Entries) > 0 {
		for _, e := range resp.Entries {
			fmt.Fprintf(&sb, "%d@%d\n", e.Hash, e.Position)
		}
		return sb.String()
	}
	for _, h := range resp.Hashes {
		fmt.Fprintf(&sb, "%d\n", h)
	}
	return sb.String()
}
