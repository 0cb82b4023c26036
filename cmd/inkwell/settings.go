package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pkt.systems/inkwell/httpapi"
	"pkt.systems/inkwell/schema"
)

func newSettingsCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change editor settings",
	}
	cmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.AddCommand(newSettingsShowCmd(&cfgPath))
	cmd.AddCommand(newSettingsSetCmd(&cfgPath))
	return cmd
}

func newSettingsShowCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the settings in effect",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, stack, closeFn, err := openSession(cmd.Context(), *cfgPath)
			if err != nil {
				return err
			}
			defer closeFn()
			_, source := stack.Settings.EnvCredential()
			return printSettings(cmd, session.Settings(), source)
		},
	}
}

func newSettingsSetCmd(cfgPath *string) *cobra.Command {
	var autoSave bool
	var fontSize int
	var apiKey string
	var apiKeyStdin bool
	var clearKey bool
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change settings; unchanged flags keep their value",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if apiKeyStdin {
				read, err := readInput(cmd.InOrStdin(), "-")
				if err != nil {
					return err
				}
				apiKey = strings.TrimSpace(read)
			}
			session, stack, closeFn, err := openSession(cmd.Context(), *cfgPath)
			if err != nil {
				return err
			}
			defer closeFn()
			next := session.Settings()
			if flags.Changed("autosave") {
				next.AutoSave = autoSave
			}
			if flags.Changed("font-size") {
				next.FontSize = fontSize
			}
			if flags.Changed("api-key") || apiKeyStdin {
				next.APIKey = apiKey
			}
			if clearKey {
				next.APIKey = ""
			}
			applied, err := session.ApplySettings(cmd.Context(), next)
			if err != nil {
				return err
			}
			_, source := stack.Settings.EnvCredential()
			return printSettings(cmd, applied, source)
		},
	}
	cmd.Flags().BoolVar(&autoSave, "autosave", true, "enable periodic auto-save")
	cmd.Flags().IntVar(&fontSize, "font-size", schema.DefaultFontSize, "editor font size")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "completion API key")
	cmd.Flags().BoolVar(&apiKeyStdin, "api-key-stdin", false, "read the API key from stdin")
	cmd.Flags().BoolVar(&clearKey, "clear-api-key", false, "remove the stored API key")
	return cmd
}

func printSettings(cmd *cobra.Command, settings schema.Settings, envSource string) error {
	out := cmd.OutOrStdout()
	key := httpapi.MaskCredential(settings.APIKey)
	if key == "" {
		key = "(not set)"
	}
	if envSource != "" {
		key += " (overridden by $" + envSource + ")"
	}
	_, err := fmt.Fprintf(out, "autosave   %t\nfont_size  %d\napi_key    %s\n", settings.AutoSave, settings.FontSize, key)
	return err
}
