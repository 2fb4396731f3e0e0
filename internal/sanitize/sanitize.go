// Package sanitize strips unsafe markup from rich-text post content.
//
// The same allow-list is applied when content changes in the editor, before
// it is submitted and before it is rendered as trusted HTML.
package sanitize

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// AllowedTags is the markup a post body may contain.
var AllowedTags = []string{
	"p", "br", "strong", "b", "em", "i", "u",
	"ul", "ol", "li",
	"a",
	"h2", "h3", "h4",
}

var (
	hrefPattern   = regexp.MustCompile(`^(?i)(?:(?:https?|mailto):|#)`)
	targetPattern = regexp.MustCompile(`^_(?:blank|self|parent|top)$`)
	relPattern    = regexp.MustCompile(`^[a-zA-Z ]+$`)
)

func basePolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(AllowedTags...)
	p.AllowAttrs("href").Matching(hrefPattern).OnElements("a")
	p.AllowAttrs("target").Matching(targetPattern).OnElements("a")
	p.AllowAttrs("rel").Matching(relPattern).OnElements("a")
	p.AllowURLSchemes("http", "https", "mailto")
	p.AllowRelativeURLs(true)
	p.RequireParseableURLs(true)
	return p
}

var (
	storePolicy   = basePolicy()
	previewPolicy = func() *bluemonday.Policy {
		p := basePolicy()
		p.AddTargetBlankToFullyQualifiedLinks(true)
		p.RequireNoReferrerOnFullyQualifiedLinks(true)
		return p
	}()
)

// HTML returns dirty restricted to the allow-list. Event handlers, data-*
// attributes, data: URIs and schemes other than http, https and mailto are
// removed; #fragment links survive. HTML(HTML(x)) == HTML(x).
func HTML(dirty string) string {
	if dirty == "" {
		return ""
	}
	return storePolicy.Sanitize(dirty)
}

// Preview sanitizes for display: on top of HTML, external links open in a
// new tab with rel noopener noreferrer.
func Preview(dirty string) string {
	cleaned := HTML(dirty)
	if cleaned == "" {
		return ""
	}
	return previewPolicy.Sanitize(cleaned)
}
