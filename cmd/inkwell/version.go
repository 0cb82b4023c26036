package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pkt.systems/inkwell/internal/version"
)

// newVersionCmd prints the inkwell build. With --long it adds the toolchain
// and VCS revision the binary was built from.
func newVersionCmd() *cobra.Command {
	var long bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the inkwell build version",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if !long {
				_, err := fmt.Fprintf(out, "%s %s\n", version.Module(), version.Current())
				return err
			}
			info := version.Get()
			revision := info.Revision
			if revision == "" {
				revision = "unknown"
			}
			if info.Modified {
				revision += " (modified)"
			}
			_, err := fmt.Fprintf(out, "module     %s\nversion    %s\ngo         %s\nrevision   %s\n",
				info.Module, info.Version, info.GoVersion, revision)
			return err
		},
	}
	cmd.Flags().BoolVarP(&long, "long", "l", false, "include toolchain and revision")
	return cmd
}
