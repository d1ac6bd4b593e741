package formatter

import (
	"html/template"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	blankRuns     = regexp.MustCompile(`\n{3,}`)
	trailingSpace = regexp.MustCompile(` +\n`)
)

// Terminal turns formatted message HTML back into text for a terminal:
// block elements become line breaks, list items get a dash and code keeps its layout.
func Terminal(h template.HTML) string {
	z := html.NewTokenizer(strings.NewReader(string(h)))
	var b strings.Builder
	inPre := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			out := trailingSpace.ReplaceAllString(b.String(), "\n")
			return strings.TrimSpace(blankRuns.ReplaceAllString(out, "\n\n"))
		case html.TextToken:
			text := string(z.Text())
			if inPre == 0 {
				text = strings.ReplaceAll(strings.TrimLeft(text, "\n"), "\n", " ")
				if strings.TrimSpace(text) == "" {
					continue
				}
			}
			b.WriteString(text)
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.Br:
				b.WriteByte('\n')
			case atom.Li:
				b.WriteString("\n- ")
			case atom.Pre:
				inPre++
				b.WriteString("\n\n")
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.Pre:
				if inPre > 0 {
					inPre--
				}
				b.WriteString("\n\n")
			case atom.P, atom.Ul, atom.Ol, atom.Blockquote, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
				b.WriteString("\n\n")
			}
		}
	}
}
