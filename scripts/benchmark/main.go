package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"slices"
	"strings"
	"text/tabwriter"
	"time"
)

// CLI flags
var (
	apiURL = flag.String("api-url", "http://localhost:8080", "winnow API base URL")
	apiKey = flag.String("api-key", "", "API key for authenticated requests")
	runs   = flag.Int("runs", 3, "Number of runs per scenario for averaging")
	output = flag.String("output", "benchmark-results.json", "JSON output file path")
)

var referenceDocs = []string{
	"The Quick Grey Fox Jumps Over The Lazy Dog",
	"The Quick Brown Fox Jumps Over The Lazy Cat",
	"Hello From the Other Side",
	"The Lazy Cat Meows From The Other Side",
}

// --- Request / Response types (mirrors models package) ---

type document struct {
	Text string `json:"text"`
}

type winnowOptions struct {
	K         int    `json:"k,omitempty"`
	Window    int    `json:"window,omitempty"`
	Base      uint64 `json:"base,omitempty"`
	Selection string `json:"selection,omitempty"`
}

type compareRequest struct {
	Documents []document    `json:"documents"`
	Winnow    winnowOptions `json:"winnow"`
}

type compareResponse struct {
	Success bool         `json:"success"`
	Scores  []int        `json:"scores"`
	Timing  timingInfo   `json:"timing"`
	Error   *errorDetail `json:"error,omitempty"`
}

type timingInfo struct {
	TotalMs       int64 `json:"total_ms"`
	FingerprintMs int64 `json:"fingerprint_ms"`
	ScoringMs     int64 `json:"scoring_ms"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// scenario is one comparison sent repeatedly to the API.
type scenario struct {
	Label  string
	Docs   []string
	Winnow winnowOptions
	// Want, when set, are the scores the API must return.
	Want []int
}

func scenarios() []scenario {
	return []scenario{
		{Label: "Reference/min", Docs: referenceDocs, Winnow: winnowOptions{K: 4, Window: 4, Base: 26, Selection: "min"}, Want: []int{14, 15, 6, 13}},
		{Label: "Reference/max", Docs: referenceDocs, Winnow: winnowOptions{K: 4, Window: 4, Base: 26, Selection: "max"}, Want: []int{12, 13, 4, 9}},
		{Label: "Synthetic 10x10k", Docs: synthetic(10, 10_000, 1), Winnow: winnowOptions{K: 8, Window: 16}},
		{Label: "Synthetic 50x20k", Docs: synthetic(50, 20_000, 2), Winnow: winnowOptions{K: 8, Window: 16}},
	}
}

// synthetic builds n documents of size characters drawn from a small
// vocabulary, so that documents share passages by chance.
func synthetic(n, size int, seed int64) []string {
	words := []string{"winnow", "hash", "window", "select", "minimum", "document", "passage", "shared", "fingerprint", "gram"}
	rng := rand.New(rand.NewSource(seed))
	docs := make([]string, n)
	for i := range docs {
		var sb strings.Builder
		for sb.Len() < size {
			sb.WriteString(words[rng.Intn(len(words))])
			sb.WriteByte(' ')
		}
		docs[i] = sb.String()[:size]
	}
	return docs
}

// --- Benchmark result types ---

type runResult struct {
	Run           int    `json:"run"`
	LatencyMs     int64  `json:"latency_ms"`
	TotalMs       int64  `json:"total_ms"`
	FingerprintMs int64  `json:"fingerprint_ms"`
	ScoringMs     int64  `json:"scoring_ms"`
	Scores        []int  `json:"scores"`
	Correct       *bool  `json:"correct,omitempty"`
	Success       bool   `json:"success"`
	Error         string `json:"error,omitempty"`
}

type scenarioAverages struct {
	LatencyMs     float64 `json:"latency_ms"`
	TotalMs       float64 `json:"total_ms"`
	FingerprintMs float64 `json:"fingerprint_ms"`
	ScoringMs     float64 `json:"scoring_ms"`
}

type scenarioResult struct {
	Label     string            `json:"label"`
	Documents int               `json:"documents"`
	Runs      []runResult       `json:"runs"`
	Averages  *scenarioAverages `json:"averages,omitempty"`
}

type benchmarkReport struct {
	Timestamp       string           `json:"timestamp"`
	APIURL          string           `json:"api_url"`
	RunsPerScenario int              `json:"runs_per_scenario"`
	Results         []scenarioResult `json:"results"`
}

func main() {
	flag.Parse()

	fmt.Println("=== winnow Benchmark Suite ===")
	fmt.Printf("API URL:   %s\n", *apiURL)
	fmt.Printf("Runs:      %d\n", *runs)
	fmt.Printf("Output:    %s\n", *output)
	fmt.Println()

	if err := checkAPI(*apiURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reach API at %s: %v\n", *apiURL, err)
		os.Exit(1)
	}

	report := benchmarkReport{
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
		APIURL:          *apiURL,
		RunsPerScenario: *runs,
	}

	for _, sc := range scenarios() {
		fmt.Printf("Benchmarking [%s] %d documents ...\n", sc.Label, len(sc.Docs))
		sr := scenarioResult{Label: sc.Label, Documents: len(sc.Docs)}

		for i := 1; i <= *runs; i++ {
			fmt.Printf("  Run %d/%d ... ", i, *runs)
			rr := runScenario(sc, i)
			switch {
			case !rr.Success:
				fmt.Printf("FAILED: %s\n", rr.Error)
			case rr.Correct != nil && !*rr.Correct:
				fmt.Printf("WRONG SCORES %v (want %v)\n", rr.Scores, sc.Want)
			default:
				fmt.Printf("OK  %dms\n", rr.LatencyMs)
			}
			sr.Runs = append(sr.Runs, rr)
		}

		sr.Averages = computeAverages(sr.Runs)
		report.Results = append(report.Results, sr)
		fmt.Println()
	}

	printTable(report.Results)

	if err := writeJSON(*output, report); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing JSON output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDetailed results written to %s\n", *output)
}

func checkAPI(baseURL string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(baseURL + "/api/v1/health")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func runScenario(sc scenario, run int) runResult {
	rr := runResult{Run: run}

	req := compareRequest{Winnow: sc.Winnow}
	for _, d := range sc.Docs {
		req.Documents = append(req.Documents, document{Text: d})
	}
	body, err := json.Marshal(req)
	if err != nil {
		rr.Error = fmt.Sprintf("marshal error: %v", err)
		return rr
	}

	httpReq, err := http.NewRequest(http.MethodPost, *apiURL+"/api/v1/compare", bytes.NewReader(body))
	if err != nil {
		rr.Error = fmt.Sprintf("request error: %v", err)
		return rr
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if *apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+*apiKey)
	}

	client := &http.Client{Timeout: 120 * time.Second}
	start := time.Now()
	resp, err := client.Do(httpReq)
	if err != nil {
		rr.Error = fmt.Sprintf("request failed: %v", err)
		return rr
	}
	defer resp.Body.Close()

	var cr compareResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		rr.Error = fmt.Sprintf("decode error: %v", err)
		return rr
	}
	rr.LatencyMs = time.Since(start).Milliseconds()

	rr.Success = cr.Success
	rr.TotalMs = cr.Timing.TotalMs
	rr.FingerprintMs = cr.Timing.FingerprintMs
	rr.ScoringMs = cr.Timing.ScoringMs
	rr.Scores = cr.Scores
	if sc.Want != nil && cr.Success {
		ok := slices.Equal(cr.Scores, sc.Want)
		rr.Correct = &ok
	}
	if cr.Error != nil {
		rr.Error = fmt.Sprintf("[%s] %s", cr.Error.Code, cr.Error.Message)
	}

	return rr
}

func computeAverages(runs []runResult) *scenarioAverages {
	var successCount int
	var avg scenarioAverages

	for _, r := range runs {
		if !r.Success {
			continue
		}
		successCount++
		avg.LatencyMs += float64(r.LatencyMs)
		avg.TotalMs += float64(r.TotalMs)
		avg.FingerprintMs += float64(r.FingerprintMs)
		avg.ScoringMs += float64(r.ScoringMs)
	}

	if successCount == 0 {
		return nil
	}

	n := float64(successCount)
	avg.LatencyMs /= n
	avg.TotalMs /= n
	avg.FingerprintMs /= n
	avg.ScoringMs /= n
	return &avg
}

func printTable(results []scenarioResult) {
	fmt.Println(strings.Repeat("─", 85))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Scenario\tDocs\tAvg Latency\tFingerprint\tScoring\tScores\n")
	fmt.Fprintf(w, "────────\t────\t───────────\t───────────\t───────\t──────\n")

	for _, r := range results {
		if r.Averages == nil {
			fmt.Fprintf(w, "%s\t%d\tFAILED\t-\t-\t-\n", r.Label, r.Documents)
			continue
		}
		fmt.Fprintf(w, "%s\t%d\t%dms\t%dms\t%dms\t%s\n",
			r.Label,
			r.Documents,
			int64(r.Averages.LatencyMs),
			int64(r.Averages.FingerprintMs),
			int64(r.Averages.ScoringMs),
			verdict(r.Runs),
		)
	}

	w.Flush()
	fmt.Println(strings.Repeat("─", 85))
}

// verdict summarises the score checks of a scenario's runs.
func verdict(runs []runResult) string {
	checked, wrong := 0, 0
	for _, r := range runs {
		if r.Correct == nil {
			continue
		}
		checked++
		if !*r.Correct {
			wrong++
		}
	}
	switch {
	case checked == 0:
		return "-"
	case wrong > 0:
		return fmt.Sprintf("WRONG (%d/%d)", wrong, checked)
	default:
		return "ok"
	}
}

func writeJSON(path string, report benchmarkReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
