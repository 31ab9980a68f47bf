package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// sentenceElements end with a sentence break in extracted text.
var sentenceElements = map[string]bool{
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"p": true, "li": true, "tr": true, "dt": true, "dd": true,
	"blockquote": true, "caption": true, "figcaption": true,
}

// blockElements start a new line without forcing a sentence break.
var blockElements = map[string]bool{
	"div": true, "section": true, "article": true, "main": true, "pre": true,
	"ul": true, "ol": true, "dl": true, "table": true, "thead": true,
	"tbody": true, "tfoot": true, "form": true, "br": true, "hr": true,
	"details": true, "summary": true, "figure": true,
}

// cellElements are separated by a space inside a table row.
var cellElements = map[string]bool{"td": true, "th": true}

// renderText flattens sel into plain text, one block per line.
func renderText(sel *goquery.Selection) string {
	var b textBuilder
	for _, n := range sel.Nodes {
		b.walk(n)
	}
	b.flush(false)
	return strings.Join(b.lines, "\n")
}

type textBuilder struct {
	lines []string
	cur   strings.Builder
}

func (b *textBuilder) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.cur.WriteString(n.Data)
		return
	case html.CommentNode:
		return
	case html.ElementNode:
	default:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			b.walk(c)
		}
		return
	}

	name := n.Data
	sentence := sentenceElements[name]
	block := sentence || blockElements[name]

	if block {
		b.flush(false)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.walk(c)
	}
	switch {
	case block:
		b.flush(sentence)
	case cellElements[name]:
		b.cur.WriteByte(' ')
	}
}

// flush ends the current line. With sentence set, a period is added unless
// the line already ends in punctuation.
func (b *textBuilder) flush(sentence bool) {
	line := strings.Join(strings.Fields(b.cur.String()), " ")
	b.cur.Reset()
	if line == "" {
		return
	}
	if sentence && !strings.ContainsAny(line[len(line)-1:], ".!?:;") {
		line += "."
	}
	b.lines = append(b.lines, line)
}
