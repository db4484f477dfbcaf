package cleaner

import (
	"log/slog"
	nurl "net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// minContentLength is the minimum TextContent length (in characters) for
// readability output to be considered valid. Below this threshold we assume
// the algorithm failed to locate the main content and fall back to the
// whole page.
const minContentLength = 50

// ExtractContent runs the Mozilla Readability algorithm on rawHTML.
//
// Fallback behaviour:
//   - If URL parsing fails           → whole page
//   - If readability.FromReader errs → whole page
//   - If extracted TextContent < 50  → whole page
//
// The boolean reports whether readability output was used.
func ExtractContent(rawHTML string, sourceURL string) (readability.Article, bool) {
	parsedURL, err := nurl.Parse(sourceURL)
	if err != nil {
		slog.Warn("readability: invalid source URL, falling back to whole page",
			"url", sourceURL, "error", err,
		)
		return fallbackArticle(rawHTML), false
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
	if err != nil {
		slog.Warn("readability: extraction failed, falling back to whole page",
			"url", sourceURL, "error", err,
		)
		return fallbackArticle(rawHTML), false
	}

	if n := len([]rune(strings.TrimSpace(article.TextContent))); n < minContentLength {
		slog.Debug("readability: extracted content too short, falling back to whole page",
			"url", sourceURL, "length", n,
		)
		return fallbackArticle(rawHTML), false
	}

	return article, true
}

// fallbackArticle wraps a whole page into an Article so the pipeline can
// proceed uniformly regardless of whether readability succeeded.
func fallbackArticle(rawHTML string) readability.Article {
	return readability.Article{
		Content:     rawHTML,
		TextContent: visibleText(rawHTML),
	}
}

// visibleText returns the rendered text of an HTML fragment, without the
// contents of script, style and similar non-visible elements.
func visibleText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	doc.Find("script, style, noscript, template, head").Remove()
	return strings.TrimSpace(doc.Text())
}
