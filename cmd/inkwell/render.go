package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pkt.systems/inkwell/internal/markdown"
)

type renderOptions struct {
	ansi  bool
	width int
	style string
	stats bool
	css   bool
}

func newRenderCmd() *cobra.Command {
	var opts renderOptions
	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render markdown to HTML or an ANSI terminal preview",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if opts.css {
				css, err := markdown.HighlightCSS()
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(out, css)
				return err
			}
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			text, err := readInput(cmd.InOrStdin(), path)
			if err != nil {
				return err
			}
			rendered, err := renderText(text, opts)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(out, rendered)
			return err
		},
	}
	cmd.Flags().BoolVar(&opts.ansi, "ansi", false, "render an ANSI terminal preview instead of HTML")
	cmd.Flags().IntVar(&opts.width, "width", markdown.DefaultTerminalWidth, "wrap width for --ansi")
	cmd.Flags().StringVar(&opts.style, "style", "", "glamour style for --ansi (dark, light, notty, ...)")
	cmd.Flags().BoolVar(&opts.stats, "stats", false, "print word, character and line counts")
	cmd.Flags().BoolVar(&opts.css, "css", false, "print the code highlighting stylesheet")
	return cmd
}

func renderText(text string, opts renderOptions) (string, error) {
	if opts.stats {
		view := markdown.Render(text)
		return fmt.Sprintf("words %d\nchars %d\nlines %d\n", view.Words, view.Chars, view.Lines), nil
	}
	if opts.ansi {
		return markdown.RenderTerminal(text, markdown.TerminalOptions{Width: opts.width, Style: opts.style})
	}
	return markdown.Render(text).HTML, nil
}
