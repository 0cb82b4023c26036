package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"pkt.systems/inkwell/core"
	"pkt.systems/inkwell/schema"
)

func newProjectsCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Manage stored projects",
	}
	cmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file")

	cmd.AddCommand(newProjectsListCmd(&cfgPath))
	cmd.AddCommand(newProjectsNewCmd(&cfgPath))
	cmd.AddCommand(newProjectsShowCmd(&cfgPath))
	cmd.AddCommand(newProjectsRenameCmd(&cfgPath))
	cmd.AddCommand(newProjectsRemoveCmd(&cfgPath))
	cmd.AddCommand(newProjectsImportCmd(&cfgPath))
	cmd.AddCommand(newProjectsExportCmd(&cfgPath))

	return cmd
}

func newProjectsListCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, _, closeFn, err := openSession(cmd.Context(), *cfgPath)
			if err != nil {
				return err
			}
			defer closeFn()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "\tID\tNAME\tCHARS\tUPDATED")
			for _, p := range session.Projects() {
				marker := ""
				if p.Active {
					marker = "*"
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", marker, p.ID, p.Name, p.Chars, p.Updated)
			}
			return w.Flush()
		},
	}
}

func newProjectsNewCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "new [name]",
		Short: "Create a project and make it active",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, _, closeFn, err := openSession(cmd.Context(), *cfgPath)
			if err != nil {
				return err
			}
			defer closeFn()
			var name schema.ProjectName
			if len(args) == 1 {
				name = schema.ProjectName(args[0])
			}
			state, err := session.NewProject(cmd.Context(), name)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), state.ProjectID)
			return err
		},
	}
}

func newProjectsShowCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Print a project's content (the active project by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, stack, closeFn, err := openSession(cmd.Context(), *cfgPath)
			if err != nil {
				return err
			}
			defer closeFn()
			project, err := lookupProject(stack.Projects.ActiveID(), args, stack.Projects.Get)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), project.Content)
			return err
		},
	}
}

func newProjectsRenameCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, _, closeFn, err := openSession(cmd.Context(), *cfgPath)
			if err != nil {
				return err
			}
			defer closeFn()
			_, err = session.RenameProject(cmd.Context(), schema.ProjectID(args[0]), schema.ProjectName(args[1]))
			return err
		},
	}
}

func newProjectsRemoveCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a project",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, _, closeFn, err := openSession(cmd.Context(), *cfgPath)
			if err != nil {
				return err
			}
			defer closeFn()
			_, err = session.DeleteProject(cmd.Context(), schema.ProjectID(args[0]))
			return err
		},
	}
}

func newProjectsImportCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a markdown or text file as a new active project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			session, _, closeFn, err := openSession(cmd.Context(), *cfgPath)
			if err != nil {
				return err
			}
			defer closeFn()
			state, err := session.Import(cmd.Context(), filepath.Base(args[0]), content)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), state.ProjectID)
			return err
		},
	}
}

func newProjectsExportCmd(cfgPath *string) *cobra.Command {
	var outDir string
	var stdout bool
	cmd := &cobra.Command{
		Use:   "export [id]",
		Short: "Write a project to <name>.md (the active project by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, stack, closeFn, err := openSession(cmd.Context(), *cfgPath)
			if err != nil {
				return err
			}
			defer closeFn()
			project, err := lookupProject(stack.Projects.ActiveID(), args, stack.Projects.Get)
			if err != nil {
				return err
			}
			if stdout {
				_, err = fmt.Fprint(cmd.OutOrStdout(), project.Content)
				return err
			}
			path := filepath.Join(outDir, core.ExportName(project.Name))
			if err := os.WriteFile(path, []byte(project.Content), 0o644); err != nil {
				return fmt.Errorf("export %s: %w", path, err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
			return err
		},
	}
	cmd.Flags().StringVarP(&outDir, "output-dir", "o", ".", "directory to write the file to")
	cmd.Flags().BoolVar(&stdout, "stdout", false, "print the content instead of writing a file")
	return cmd
}

func lookupProject(active schema.ProjectID, args []string, get func(schema.ProjectID) (schema.Project, bool)) (schema.Project, error) {
	id := active
	if len(args) == 1 {
		id = schema.ProjectID(args[0])
	}
	project, ok := get(id)
	if !ok {
		return schema.Project{}, fmt.Errorf("%w: %q", schema.ErrProjectNotFound, id)
	}
	return project, nil
}
