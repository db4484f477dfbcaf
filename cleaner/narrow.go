package cleaner

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Narrow reduces rawHTML to the elements matching selector and strips every
// element matching one of exclude from what is left. An empty selector, or
// one that matches nothing, keeps the whole document.
//
// Only a malformed selector is an error. Malformed exclude entries match
// nothing.
func Narrow(rawHTML, selector string, exclude []string) (string, error) {
	exclude = compactSelectors(exclude)
	if selector == "" && len(exclude) == 0 {
		return rawHTML, nil
	}

	var sel cascadia.Sel
	if selector != "" {
		var err error
		if sel, err = cascadia.Parse(selector); err != nil {
			return "", err
		}
	}

	root, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return "", err
	}

	roots := []*html.Node{root}
	if sel != nil {
		if matched := cascadia.QueryAll(root, sel); len(matched) > 0 {
			roots = matched
		}
	}

	var b strings.Builder
	for _, n := range roots {
		s := goquery.NewDocumentFromNode(n).Selection
		for _, ex := range exclude {
			s.Find(ex).Remove()
		}
		if err := html.Render(&b, n); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

func compactSelectors(in []string) []string {
	out := in[:0:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
