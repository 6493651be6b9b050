package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTMLInlineFormatting(t *testing.T) {
	got := string(HTML("Hello **world** and `code`"))
	assert.Contains(t, got, "<strong>world</strong>")
	assert.Contains(t, got, "<code>code</code>")
}

func TestHTMLLists(t *testing.T) {
	got := string(HTML("1. first\n2. second\n\n- a\n- b\n"))
	assert.Contains(t, got, "<ol>")
	assert.Contains(t, got, "<ul>")
	assert.Equal(t, 4, strings.Count(got, "<li>"))
}

func TestHTMLTables(t *testing.T) {
	got := string(HTML("| a | b |\n|---|---|\n| 1 | 2 |\n"))
	assert.Contains(t, got, "<table>")
	assert.Contains(t, got, "<td>1</td>")
}

func TestHTMLDropsRawHTML(t *testing.T) {
	got := string(HTML("hi <script>alert(1)</script>"))
	assert.NotContains(t, got, "<script>")
}

func TestHTMLEmpty(t *testing.T) {
	assert.Empty(t, HTML("   "))
}
