package markdown

import (
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// annotateLinks makes every anchor open in a new context without a referrer.
// Markup the tokenizer cannot read is returned unchanged.
func annotateLinks(markup string) string {
	if !strings.Contains(markup, "<a") && !strings.Contains(markup, "<A") {
		return markup
	}
	z := html.NewTokenizer(strings.NewReader(markup))
	var out strings.Builder
	out.Grow(len(markup) + 64)
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return out.String()
			}
			return markup
		case html.StartTagToken, html.SelfClosingTagToken:
			raw := string(z.Raw())
			tok := z.Token()
			if tok.DataAtom != atom.A {
				out.WriteString(raw)
				continue
			}
			setAttr(&tok, "target", "_blank")
			setAttr(&tok, "rel", "noopener noreferrer")
			out.WriteString(tok.String())
		default:
			out.Write(z.Raw())
		}
	}
}

func setAttr(tok *html.Token, key, val string) {
	for i := range tok.Attr {
		if tok.Attr[i].Namespace == "" && tok.Attr[i].Key == key {
			tok.Attr[i].Val = val
			return
		}
	}
	tok.Attr = append(tok.Attr, html.Attribute{Key: key, Val: val})
}
