package cleaner

import (
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	readability "github.com/go-shiori/go-readability"

	"github.com/use-agent/winnow/models"
)

// Cleaner reduces HTML documents to the text that gets fingerprinted:
//
//	Stage 1 (narrow):   optional CSS selector and exclude filters
//	Stage 2 (extract):  readability main-content extraction, or the raw page
//	Stage 3 (render):   plain text or Markdown
//
// The converter is created once and reused across all requests (goroutine-safe).
type Cleaner struct {
	mdConverter *converter.Converter
}

// NewCleaner initialises the Cleaner with a pre-configured Markdown converter.
func NewCleaner() *Cleaner {
	return &Cleaner{
		mdConverter: newMarkdownConverter(),
	}
}

// Options selects how a page is reduced to text.
type Options struct {
	// ExtractMode is "readability" (default) or "raw".
	ExtractMode string

	// Format is "text" (default) or "markdown".
	Format string

	// Selector narrows the page to the matching elements.
	Selector string

	// ExcludeTags lists CSS selectors removed before extraction.
	ExcludeTags []string
}

// Text runs the pipeline on rawHTML and returns the resulting text.
// The characters are not normalized: what the page renders to is what gets
// fingerprinted.
func (c *Cleaner) Text(rawHTML string, sourceURL string, opts Options) (string, error) {
	html, err := Narrow(rawHTML, opts.Selector, opts.ExcludeTags)
	if err != nil {
		return "", models.NewPipelineError(
			models.ErrCodeInvalidInput,
			"invalid css_selector",
			err,
		)
	}

	var article readability.Article
	switch opts.ExtractMode {
	case "raw":
		article = fallbackArticle(html)
	default:
		article, _ = ExtractContent(html, sourceURL)
	}

	switch opts.Format {
	case "markdown":
		return c.markdown(article.Content, sourceURL)
	default:
		return article.TextContent, nil
	}
}
