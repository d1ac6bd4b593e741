// Package formatter turns raw assistant text into markup that is safe to embed in the chat page.
package formatter

import (
	"html"
	"html/template"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
)

const (
	VariantMarkdown = "markdown"
	VariantManual   = "manual"
)

type Formatter interface {
	Format(content string) template.HTML
}

// New returns the formatter for name, falling back to Markdown for unknown names.
func New(name string) Formatter {
	if name == VariantManual {
		return Manual{}
	}
	return NewMarkdown()
}

// Manual handles fenced blocks and inline code spans itself and escapes everything else.
type Manual struct{}

var langHint = regexp.MustCompile(`^[A-Za-z0-9_+#.-]+$`)

func (Manual) Format(content string) template.HTML {
	var b strings.Builder
	parts := strings.Split(content, "```")
	// an odd number of fences leaves the last one unterminated
	closed := len(parts)
	if closed%2 == 0 {
		closed--
	}
	for i, part := range parts {
		switch {
		case i >= closed:
			b.WriteString(plain("```" + part))
		case i%2 == 1:
			b.WriteString(codeBlock(part))
		default:
			b.WriteString(inline(part))
		}
	}
	return template.HTML(b.String())
}

func codeBlock(block string) string {
	lang, body := "", block
	if nl := strings.IndexByte(block, '\n'); nl >= 0 {
		lang, body = strings.TrimSpace(block[:nl]), block[nl+1:]
	}
	body = strings.TrimSuffix(body, "\n")
	if lang != "" && langHint.MatchString(lang) {
		return `<pre><code class="language-` + lang + `">` + html.EscapeString(body) + `</code></pre>`
	}
	return "<pre><code>" + html.EscapeString(body) + "</code></pre>"
}

func inline(text string) string {
	var b strings.Builder
	spans := strings.Split(text, "`")
	closed := len(spans)
	if closed%2 == 0 {
		closed--
	}
	for i, span := range spans {
		switch {
		case i >= closed:
			b.WriteString(plain("`" + span))
		case i%2 == 1:
			b.WriteString("<code>" + html.EscapeString(span) + "</code>")
		default:
			b.WriteString(plain(span))
		}
	}
	return b.String()
}

func plain(text string) string {
	return strings.ReplaceAll(html.EscapeString(text), "\n", "<br>")
}

// Markdown renders CommonMark-style content and sanitizes the result.
type Markdown struct {
	policy *bluemonday.Policy
}

func NewMarkdown() Markdown {
	p := bluemonday.UGCPolicy()
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return Markdown{policy: p}
}

func (m Markdown) Format(content string) template.HTML {
	if m.policy == nil {
		m = NewMarkdown()
	}
	// parser and renderer keep per-document state
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.HardLineBreak)
	r := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.FlagsNone, RenderNodeHook: escapeRawHTML})
	out := m.policy.SanitizeBytes(markdown.ToHTML([]byte(content), p, r))
	return template.HTML(unwrapParagraph(string(out)))
}

// escapeRawHTML prints raw HTML from the message as text, so "<Durham Food Bank>" stays visible.
func escapeRawHTML(w io.Writer, node ast.Node, entering bool) (ast.WalkStatus, bool) {
	switch n := node.(type) {
	case *ast.HTMLSpan:
		mdhtml.EscapeHTML(w, n.Literal)
		return ast.GoToNext, true
	case *ast.HTMLBlock:
		io.WriteString(w, "<p>")
		mdhtml.EscapeHTML(w, n.Literal)
		io.WriteString(w, "</p>\n")
		return ast.GoToNext, true
	}
	return ast.GoToNext, false
}

// unwrapParagraph strips the <p> around output that is a single paragraph.
func unwrapParagraph(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "<p>") && strings.HasSuffix(s, "</p>") && strings.Count(s, "<p>") == 1 {
		return s[len("<p>") : len(s)-len("</p>")]
	}
	return s
}

// FormatTimestamp renders an ISO-8601 timestamp as local hour:minute.
func FormatTimestamp(ts string) string {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return ""
	}
	return t.Local().Format("15:04")
}
