// Package render turns chat text into the HTML stored in transcripts.
package render

import (
	"strings"

	"github.com/russross/blackfriday/v2"
)

const (
	preOpen  = "<pre"
	preClose = "</pre>"
)

// Func renders message text to HTML.
type Func func(text string) string

var htmlRenderer = blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{
	Flags: blackfriday.CommonHTMLFlags | blackfriday.SkipHTML |
		blackfriday.Safelink | blackfriday.NofollowLinks | blackfriday.NoreferrerLinks,
})

// Markdown renders text as HTML on a single line.
//
// Raw HTML in the input is dropped, and links outside http, https, ftp,
// mailto and relative paths are rendered as plain <tt> text. Newlines between and inside blocks become
// spaces; newlines inside <pre> become "&#10;" so code keeps its layout. The
// result therefore never contains a newline and fits one transcript line.
func Markdown(text string) string {
	text = strings.ReplaceAll(text, "\r", "")
	out := blackfriday.Run([]byte(text),
		blackfriday.WithExtensions(blackfriday.CommonExtensions),
		blackfriday.WithRenderer(htmlRenderer),
	)
	return flatten(string(out))
}

func flatten(html string) string {
	var b strings.Builder
	b.Grow(len(html))

	rest := html
	for rest != "" {
		i := strings.Index(rest, preOpen)
		if i < 0 {
			b.WriteString(collapse(rest))
			break
		}
		b.WriteString(collapse(rest[:i]))
		rest = rest[i:]

		j := strings.Index(rest, preClose)
		if j < 0 {
			j = len(rest)
		} else {
			j += len(preClose)
		}
		b.WriteString(strings.ReplaceAll(rest[:j], "\n", "&#10;"))
		rest = rest[j:]
	}
	return strings.TrimSpace(b.String())
}

// collapse replaces every run of newlines with one space.
func collapse(s string) string {
	if !strings.Contains(s, "\n") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	inRun := false
	for _, r := range s {
		if r == '\n' {
			if !inRun {
				b.WriteByte(' ')
			}
			inRun = true
			continue
		}
		inRun = false
		b.WriteRune(r)
	}
	return b.String()
}
