package markdown

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// PlainText strips tags from rendered HTML and collapses whitespace.
// Script, style, code blocks and mermaid diagrams are dropped.
func PlainText(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	var skipTag string // element being dropped, with its nesting depth
	depth := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.StartTagToken:
			name, hasAttr := z.TagName()
			switch {
			case depth > 0:
				if string(name) == skipTag {
					depth++
				}
			case isSkipped(z, string(name), hasAttr):
				skipTag, depth = string(name), 1
			}
			b.WriteByte(' ')
		case html.EndTagToken:
			name, _ := z.TagName()
			if depth > 0 && string(name) == skipTag {
				depth--
			}
			b.WriteByte(' ')
		case html.TextToken:
			if depth == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func isSkipped(z *html.Tokenizer, name string, hasAttr bool) bool {
	switch name {
	case "script", "style", "pre":
		return true
	case "div":
		for hasAttr {
			var key, val []byte
			key, val, hasAttr = z.TagAttr()
			if string(key) == "class" && strings.Contains(" "+string(val)+" ", " mermaid ") {
				return true
			}
		}
	}
	return false
}

// Excerpt returns at most n runes of the plain text of s, cut on a word
// boundary and suffixed with an ellipsis when shortened.
func Excerpt(s string, n int) string {
	text := PlainText(s)
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	cut := string(runes[:n])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " .,;:") + "…"
}
