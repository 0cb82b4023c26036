// Package markdown renders buffer text into the preview view.
package markdown

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
	"pkt.systems/inkwell/schema"
	"pkt.systems/pslog"
)

// Placeholder is the preview markup for an empty buffer.
const Placeholder = `<p class="preview-placeholder">Start writing to see the preview...</p>`

// Renderer converts markdown to preview HTML. It is safe for concurrent use.
type Renderer struct {
	md  goldmark.Markdown
	log pslog.Logger
}

// New returns a renderer with GitHub-flavoured extensions and code highlighting.
func New() *Renderer {
	return NewWithLogger(nil)
}

// NewWithLogger returns a renderer that reports contained failures to log.
func NewWithLogger(log pslog.Logger) *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Footnote),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(
			gmhtml.WithHardWraps(),
			gmhtml.WithUnsafe(),
			renderer.WithNodeRenderers(util.Prioritized(newCodeBlockRenderer(), 100)),
		),
	)
	return &Renderer{md: md, log: log}
}

var defaultRenderer = New()

// Render renders text with the default renderer.
func Render(text string) schema.View {
	return defaultRenderer.Render(text)
}

// Render returns the view for text. It never fails: conversion errors and
// panics are reported inline in the HTML.
func (r *Renderer) Render(text string) schema.View {
	words, chars, lines := Stats(text)
	view := schema.View{Words: words, Chars: chars, Lines: lines}
	if strings.TrimSpace(text) == "" {
		view.Empty = true
		view.HTML = Placeholder
		return view
	}
	out, err := r.convert(text)
	if err != nil {
		if r.log != nil {
			r.log.Warn("markdown render failed", "err", err, "chars", chars)
		}
		view.HTML = ErrorHTML(err)
		return view
	}
	view.HTML = out
	return view
}

func (r *Renderer) convert(text string) (out string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%v", rec)
		}
	}()
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(text), &buf); err != nil {
		return "", err
	}
	return annotateLinks(buf.String()), nil
}

// ErrorHTML returns the inline markup shown in place of a failed render.
func ErrorHTML(err error) string {
	return `<p class="render-error">Render error: ` + html.EscapeString(err.Error()) + `</p>`
}

// Stats returns whitespace-separated word count, rune count and
// newline-separated line count. An empty text has one line.
func Stats(text string) (words, chars, lines int) {
	if strings.TrimSpace(text) != "" {
		words = len(strings.Fields(text))
	}
	return words, utf8.RuneCountInString(text), strings.Count(text, "\n") + 1
}
