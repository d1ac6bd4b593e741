package formatter

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPlainTextHasNoStructuralMarkup(t *testing.T) {
	for name, f := range map[string]Formatter{"manual": Manual{}, "markdown": NewMarkdown()} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, "no special chars", string(f.Format("no special chars")))

			out := string(f.Format("line one\nline two"))
			assert.Contains(t, out, "line one")
			assert.Contains(t, out, "<br")
			assert.NotContains(t, out, "<p>")
		})
	}
}

func TestManualFencedBlockStripsLanguageLine(t *testing.T) {
	out := string(Manual{}.Format("Try this:\n```go\nfmt.Println(\"hi\")\n```\ndone"))
	assert.Equal(t,
		`Try this:<br><pre><code class="language-go">fmt.Println(&#34;hi&#34;)</code></pre><br>done`,
		out)
}

func TestManualFenceWithoutLanguage(t *testing.T) {
	out := string(Manual{}.Format("```\nls -la\n```"))
	assert.Equal(t, "<pre><code>ls -la</code></pre>", out)
}

func TestManualInlineCode(t *testing.T) {
	out := string(Manual{}.Format("run `make test` now"))
	assert.Equal(t, "run <code>make test</code> now", out)
}

func TestManualEscapesEverything(t *testing.T) {
	out := string(Manual{}.Format("<script>alert(1)</script>\n```html\n<b>x</b>\n```\n`<i>`"))
	assert.NotContains(t, out, "<script>")
	assert.NotContains(t, out, "<b>")
	assert.NotContains(t, out, "<i>")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.Contains(t, out, "<code>&lt;i&gt;</code>")
}

func TestManualUnterminatedFenceIsLiteral(t *testing.T) {
	out := string(Manual{}.Format("a ```b"))
	assert.Equal(t, "a ```b", out)

	out = string(Manual{}.Format("a `b"))
	assert.Equal(t, "a `b", out)
}

func TestManualUnsafeLanguageHintDropped(t *testing.T) {
	out := string(Manual{}.Format("```\"><x\ncode\n```"))
	assert.Equal(t, "<pre><code>code</code></pre>", out)
}

func TestMarkdownRendersCodeAndEscapesHTML(t *testing.T) {
	f := NewMarkdown()

	out := string(f.Format("# Title\n\n```go\nx := 1\n```\n"))
	assert.Contains(t, out, "<h1")
	assert.Contains(t, out, "<pre>")
	assert.Contains(t, out, "x := 1")

	out = string(f.Format("hello <script>alert(1)</script>"))
	assert.NotContains(t, out, "<script")
	assert.Contains(t, out, "&lt;script&gt;alert(1)")

	out = string(f.Format("use `a < b`"))
	assert.Contains(t, out, "<code>a &lt; b</code>")
}

func TestMarkdownKeepsAngleBracketText(t *testing.T) {
	f := NewMarkdown()

	assert.Equal(t, "a &lt;div&gt; b", string(f.Format("a <div> b")))
	assert.Equal(t, "Call 919-555-0100 &lt;Durham Food Bank&gt; for help",
		string(f.Format("Call 919-555-0100 <Durham Food Bank> for help")))

	out := string(f.Format("<b>Open</b> Mon-Fri"))
	assert.Contains(t, out, "&lt;b&gt;Open&lt;/b&gt;")
	assert.Contains(t, out, "Mon-Fri")

	out = string(f.Format("<div>\nhours\n</div>"))
	assert.Contains(t, out, "&lt;div&gt;")
	assert.Contains(t, out, "hours")
	assert.NotContains(t, out, "<div>")
}

func TestMarkdownIsDeterministic(t *testing.T) {
	f := NewMarkdown()
	in := "* one\n* two\n\n[link](https://example.org)"
	assert.Equal(t, f.Format(in), f.Format(in))
	assert.True(t, strings.Contains(string(f.Format(in)), "<li>"))
}

func TestNewPicksVariant(t *testing.T) {
	assert.IsType(t, Manual{}, New(VariantManual))
	assert.IsType(t, Markdown{}, New(VariantMarkdown))
	assert.IsType(t, Markdown{}, New("unknown"))
}

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2024, 5, 6, 9, 7, 0, 0, time.Local).UTC().Format("2006-01-02T15:04:05.000Z07:00")
	assert.Equal(t, "09:07", FormatTimestamp(ts))
	assert.Equal(t, "", FormatTimestamp("not a time"))
}

func TestTerminalText(t *testing.T) {
	md := NewMarkdown()

	assert.Equal(t, "a & b", Terminal(md.Format("a & b")))
	assert.Equal(t, "Options:\n\n- one\n- two", Terminal(md.Format("Options:\n\n- one\n- two")))
	assert.Equal(t, "line one\nline two", Terminal(Manual{}.Format("line one\nline two")))

	out := Terminal(md.Format("Use:\n\n```go\nif x {\n    y()\n}\n```"))
	assert.True(t, strings.HasPrefix(out, "Use:\n\n"))
	assert.Contains(t, out, "if x {\n    y()\n}")
}
