package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"meal-planner/internal/format"
)

func newHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently generated menus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd.Context(), envOptions{})
			if err != nil {
				return err
			}
			defer e.Close()

			menus, err := e.app.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(menus) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No menus yet.")
				return nil
			}
			for _, m := range menus {
				fmt.Fprintf(cmd.OutOrStdout(), "Menu #%d (%s)\n", m.ID, m.CreatedAt.Format("2006-01-02"))
				fmt.Fprintln(cmd.OutOrStdout(), format.PlainText(m))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 4, "Number of menus to show")

	return cmd
}
