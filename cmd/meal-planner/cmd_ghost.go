package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newIngestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest",
		Short: "Import recipe posts from Ghost",
		Long: `Fetch every post from the Ghost Content API and store it as a recipe.
Tags named pranzo/cena, a food group or a season fill the recipe fields.
Recipes whose post was deleted are removed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd.Context(), envOptions{})
			if err != nil {
				return err
			}
			defer e.Close()
			if err := e.cfg.RequireGhost(); err != nil {
				return err
			}

			res, err := e.app.IngestFromGhost(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d recipes, skipped %d posts, removed %d stale recipes.\n",
				res.Saved, res.Skipped, res.Removed)
			return nil
		},
	}
}

func newClipCommand() *cobra.Command {
	var publish bool

	cmd := &cobra.Command{
		Use:   "clip <url>",
		Short: "Save a recipe from a web page",
		Long: `Read a recipe from a web page and add it to the catalog. Pages without
structured ingredient data are read by Gemini when GEMINI_API_KEY is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd.Context(), envOptions{withLLM: true})
			if err != nil {
				return err
			}
			defer e.Close()
			if publish {
				if err := e.cfg.RequireGhostAdmin(); err != nil {
					return err
				}
			}

			clipped, err := e.app.Clip(cmd.Context(), args[0], publish)
			if err != nil {
				return err
			}
			r := clipped.Recipe
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %q as %s with %d ingredients.\n", r.Name, r.ID, len(r.Ingredients))
			return nil
		},
	}

	cmd.Flags().BoolVar(&publish, "publish", false, "Also create a draft post on Ghost")

	return cmd
}

func newPublishCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "publish [menu-id]",
		Short: "Publish a menu to Ghost as a draft post",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := menuIDArg(args)
			if err != nil {
				return err
			}

			e, err := newEnv(cmd.Context(), envOptions{})
			if err != nil {
				return err
			}
			defer e.Close()
			if err := e.cfg.RequireGhostAdmin(); err != nil {
				return err
			}

			post, err := e.app.Publish(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created draft %q (%s).\n", post.Title, post.ID)
			return nil
		},
	}
}
