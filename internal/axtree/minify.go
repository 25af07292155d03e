package axtree

import (
	"strings"
	"sync"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/html"
)

var (
	minifier     *minify.M
	minifierOnce sync.Once
)

func getMinifier() *minify.M {
	minifierOnce.Do(func() {
		minifier = minify.New()
		minifier.Add("text/html", &html.Minifier{
			KeepDocumentTags: true,
			KeepEndTags:      true,
			KeepQuotes:       true,
		})
	})
	return minifier
}

// normalizeMarkup strips insignificant whitespace so that indentation in the
// source never turns into text nodes that shift child indices.
func normalizeMarkup(markup string) string {
	if !strings.Contains(markup, "<") {
		return collapse(markup)
	}
	minified, err := getMinifier().String("text/html", markup)
	if err != nil {
		return markup
	}
	return minified
}
