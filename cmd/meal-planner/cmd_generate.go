package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"meal-planner/internal/app"
	"meal-planner/internal/format"
	"meal-planner/internal/planner"
	"meal-planner/internal/shopping"
)

func newGenerateCommand() *cobra.Command {
	var (
		seed         uint64
		outputFormat string
		dryRun       bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the menu for the coming week",
		Long: `Generate a weekly menu from the stored recipe catalog and history.

Saturday dinner is always pizza and Sunday dinner is left free. The menu and
its shopping list are saved unless --dry-run is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validFormat(outputFormat); err != nil {
				return err
			}

			opts := envOptions{}
			if cmd.Flags().Changed("seed") {
				opts.seed = &seed
			}
			e, err := newEnv(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer e.Close()

			gen, err := e.app.GenerateMenu(cmd.Context(), dryRun)
			if err != nil {
				return err
			}
			reportRelaxations(cmd.ErrOrStderr(), gen.Report)
			return writeMenu(cmd.OutOrStdout(), outputFormat, gen)
		},
	}

	cmd.Flags().Uint64Var(&seed, "seed", 0, "Seed for reproducible menus")
	cmd.Flags().StringVar(&outputFormat, "format", "text", "Output format: text, html or json")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Do not save the menu")

	return cmd
}

func validFormat(f string) error {
	switch f {
	case "text", "html", "json":
		return nil
	}
	return fmt.Errorf("unknown format %q: want text, html or json", f)
}

func reportRelaxations(w io.Writer, report planner.Report) {
	if report.EmptyCatalog {
		fmt.Fprintln(w, "Warning: the recipe catalog is empty, import recipes first")
		return
	}
	if len(report.UnknownQuotaKeys) > 0 {
		fmt.Fprintf(w, "Warning: quota keys match no categoria: %v\n", report.UnknownQuotaKeys)
	}
	if n := report.Relaxed(); n > 0 {
		fmt.Fprintf(w, "Note: %d meals needed relaxed rules\n", n)
	}
	if n := report.Unfilled(); n > 0 {
		fmt.Fprintf(w, "Warning: %d meals have no recipe\n", n)
	}
}

type menuOutput struct {
	Menu     planner.Menu   `json:"menu"`
	Report   planner.Report `json:"report"`
	Shopping shopping.List  `json:"shopping_list"`
}

func writeMenu(w io.Writer, outputFormat string, gen *app.Generated) error {
	switch outputFormat {
	case "html":
		html, err := format.HTMLEmail(gen.Menu, gen.Recipes)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, html)
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(menuOutput{Menu: gen.Menu, Report: gen.Report, Shopping: gen.Shopping})
	default:
		if gen.Menu.ID != 0 {
			fmt.Fprintf(w, "Menu #%d\n\n", gen.Menu.ID)
		}
		fmt.Fprint(w, format.PlainText(gen.Menu))
		fmt.Fprintln(w)
		fmt.Fprint(w, format.ShoppingText(gen.Shopping))
		return nil
	}
}
