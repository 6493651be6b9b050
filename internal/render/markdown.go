// Package render turns message markdown into HTML for the web surface.
package render

import (
	"html/template"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// GitHub-flavoured subset: tables, fenced code, strikethrough, autolinks.
const extensions = parser.CommonExtensions | parser.NoEmptyLineBeforeBlock

const flags = html.CommonFlags | html.SkipHTML | html.HrefTargetBlank | html.NoopenerLinks | html.NoreferrerLinks

// HTML renders md. Raw HTML in the source is dropped, so the result is safe to embed.
func HTML(md string) template.HTML {
	if strings.TrimSpace(md) == "" {
		return ""
	}

	// Parsers keep state between calls and must not be reused.
	p := parser.NewWithExtensions(extensions)
	doc := p.Parse(markdown.NormalizeNewlines([]byte(md)))
	renderer := html.NewRenderer(html.RendererOptions{Flags: flags})

	return template.HTML(markdown.Render(doc, renderer))
}
