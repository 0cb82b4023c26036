package main

import (
	"fmt"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"pkt.systems/inkwell/core"
	"pkt.systems/inkwell/internal/prompts"
	"pkt.systems/inkwell/schema"
	"pkt.systems/pslog"
)

func newAICmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "ai",
		Short: "Run AI text actions",
	}
	cmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.AddCommand(newAIListCmd())
	cmd.AddCommand(newAIRunCmd(&cfgPath))
	return cmd
}

func newAIListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available actions",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ID\tTITLE\tINPUT")
			for _, action := range prompts.All() {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", action.ID, action.Title, action.Label)
			}
			return w.Flush()
		},
	}
}

func newAIRunCmd(cfgPath *string) *cobra.Command {
	var text string
	var insert bool
	cmd := &cobra.Command{
		Use:   "run <action> [file]",
		Short: "Run an action on text, a file, stdin (-) or the active project",
		Long:  "Without --text or a file the whole active project is the input. " +
			"With --insert the result is appended to the active project and saved.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := pslog.Ctx(ctx)
			id := schema.ActionID(args[0])
			if _, ok := prompts.Lookup(id); !ok {
				return fmt.Errorf("%w: %q", schema.ErrUnknownAction, id)
			}
			input := text
			if input == "" && len(args) == 2 {
				read, err := readInput(cmd.InOrStdin(), args[1])
				if err != nil {
					return err
				}
				input = read
			}
			session, _, closeFn, err := openSession(ctx, *cfgPath)
			if err != nil {
				return err
			}
			defer closeFn()
			if input == "" {
				// Whole project as the selection.
				state := session.State()
				if _, err := session.Edit(ctx, core.EditRequest{
					Op:        core.EditSelect,
					Selection: &schema.Selection{Start: 0, End: utf8.RuneCountInString(state.Text)},
				}); err != nil {
					return err
				}
			}
			result, err := session.RunAction(ctx, id, input)
			if err != nil {
				return err
			}
			logger.Info("completion ok", "action", id, "input_tokens", result.Usage.InputTokens, "output_tokens", result.Usage.OutputTokens, "session_cost", session.Usage().Cost)
			if insert {
				end := utf8.RuneCountInString(session.State().Text)
				if _, err := session.Edit(ctx, core.EditRequest{
					Op:        core.EditSelect,
					Selection: &schema.Selection{Start: end, End: end},
				}); err != nil {
					return err
				}
				if _, err := session.InsertCompletion(ctx, result.Text); err != nil {
					return err
				}
				if _, err := session.Save(ctx); err != nil {
					return err
				}
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), result.Text)
			return err
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "input text")
	cmd.Flags().BoolVar(&insert, "insert", false, "insert the result into the active project")
	return cmd
}
