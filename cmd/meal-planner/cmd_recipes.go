package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newRecipesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recipes",
		Short: "Manage the recipe catalog",
	}

	cmd.AddCommand(newRecipesImportCommand())
	cmd.AddCommand(newRecipesListCommand())

	return cmd
}

func newRecipesImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import recipes from a YAML or JSON file",
		Long: `Import recipes from a YAML or JSON list. Existing recipes with the same id
are replaced; entries without an id get a generated one. Nothing is saved if
any entry is invalid.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open catalog: %w", err)
			}
			defer f.Close()

			e, err := newEnv(cmd.Context(), envOptions{})
			if err != nil {
				return err
			}
			defer e.Close()

			n, err := e.app.ImportCatalog(cmd.Context(), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d recipes.\n", n)
			return nil
		},
	}
}

func newRecipesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the recipe catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd.Context(), envOptions{})
			if err != nil {
				return err
			}
			defer e.Close()

			recipes, err := e.app.ListRecipes(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNOME\tTIPO\tCATEGORIA\tSTAGIONI")
			for _, r := range recipes {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					r.ID, r.Name, dash(string(r.Type)), dash(string(r.Category)), dash(strings.Join(r.Seasons, ",")))
			}
			return tw.Flush()
		},
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
