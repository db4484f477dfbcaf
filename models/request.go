package models

// Document is one input of a comparison. Exactly one of Text, HTML or URL
// must be set. Text is a pointer so that an empty text is a valid,
// present document.
type Document struct {
	// ID is an optional caller label echoed back in responses.
	ID string `json:"id,omitempty"`

	// Text is used verbatim.
	Text *string `json:"text,omitempty"`

	// HTML is reduced to its main text content before fingerprinting.
	HTML string `json:"html,omitempty"`

	// URL is fetched, then handled like HTML (or used verbatim when the
	// server answers text/plain).
	URL string `json:"url,omitempty" binding:"omitempty,url"`
}

// Source reports which field carries the document: "text", "html", "url",
// or "" when none or several are set.
func (d *Document) Source() string {
	source := ""
	set := 0
	if d.Text != nil {
		source, set = "text", set+1
	}
	if d.HTML != "" {
		source, set = "html", set+1
	}
	if d.URL != "" {
		source, set = "url", set+1
	}
	if set != 1 {
		return ""
	}
	return source
}

// TextDocument returns a Document carrying text verbatim.
func TextDocument(text string) Document {
	return Document{Text: &text}
}

// WinnowOptions overrides the server's selection policy for one request.
// Zero values keep the server default.
type WinnowOptions struct {
	// K is the k-gram length in characters.
	K int `json:"k,omitempty" binding:"omitempty,min=1,max=1024"`

	// Window is the selection window length in k-grams.
	Window int `json:"window,omitempty" binding:"omitempty,min=1,max=4096"`

	// Base is the polynomial base of the rolling hash.
	Base uint64 `json:"base,omitempty" binding:"omitempty,min=1"`

	// Selection is "min" (default) or "max".
	Selection string `json:"selection,omitempty" binding:"omitempty,oneof=min max"`

	// Positional returns (hash, position) pairs instead of bare hashes.
	Positional *bool `json:"positional,omitempty"`
}

// ExtractOptions controls how HTML and URL documents become text.
type ExtractOptions struct {
	// ExtractMode is "readability" (default) or "raw".
	ExtractMode string `json:"extract_mode,omitempty" binding:"omitempty,oneof=readability raw"`

	// Format is the text rendering fingerprinted: "text" (default) or "markdown".
	Format string `json:"format,omitempty" binding:"omitempty,oneof=text markdown"`

	// CSSSelector narrows HTML to the matching elements before extraction.
	CSSSelector string `json:"css_selector,omitempty"`

	// ExcludeTags lists CSS selectors removed before extraction.
	ExcludeTags []string `json:"exclude_tags,omitempty"`

	// Timeout is the per-URL fetch timeout in seconds. Zero uses the server's
	// WINNOW_FETCH_TIMEOUT. Max: 120.
	Timeout int `json:"timeout,omitempty" binding:"omitempty,min=1,max=120"`
}

// Defaults applies default values to unset fields.
func (o *ExtractOptions) Defaults() {
	if o.ExtractMode == "" {
		o.ExtractMode = "readability"
	}
	if o.Format == "" {
		o.Format = "text"
	}
}

// CompareRequest is the payload for POST /api/v1/compare.
type CompareRequest struct {
	// Documents to compare. Required.
	Documents []Document `json:"documents" binding:"required,min=1,dive"`

	Winnow  WinnowOptions  `json:"winnow"`
	Extract ExtractOptions `json:"extract"`

	// IncludeFingerprints adds every document's selected hashes to the response.
	IncludeFingerprints bool `json:"include_fingerprints,omitempty"`
}

// Defaults applies default values to unset fields.
func (r *CompareRequest) Defaults() {
	r.Extract.Defaults()
}

// FingerprintRequest is the payload for POST /api/v1/fingerprint.
type FingerprintRequest struct {
	Document Document       `json:"document"`
	Winnow   WinnowOptions  `json:"winnow"`
	Extract  ExtractOptions `json:"extract"`
}

// Defaults applies default values to unset fields.
func (r *FingerprintRequest) Defaults() {
	r.Extract.Defaults()
}
