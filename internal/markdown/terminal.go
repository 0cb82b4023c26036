package markdown

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// DefaultTerminalWidth is the wrap width used when none is given.
const DefaultTerminalWidth = 80

// TerminalOptions controls ANSI rendering.
type TerminalOptions struct {
	Width int
	// Style is a glamour standard style name. Empty picks one from the terminal background.
	Style string
}

// RenderTerminal renders text as ANSI-styled output for a terminal preview.
func RenderTerminal(text string, opts TerminalOptions) (string, error) {
	width := opts.Width
	if width <= 0 {
		width = DefaultTerminalWidth
	}
	styleOpt := glamour.WithAutoStyle()
	if style := strings.TrimSpace(opts.Style); style != "" {
		styleOpt = glamour.WithStandardStyle(style)
	}
	r, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
	if err != nil {
		return "", err
	}
	return r.Render(text)
}
