package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMetricsCleanupCommand() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "metrics-cleanup",
		Short: "Remove old metric records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 1 {
				return fmt.Errorf("--days must be at least 1")
			}

			e, err := newEnv(cmd.Context(), envOptions{})
			if err != nil {
				return err
			}
			defer e.Close()

			affected, err := e.app.CleanupMetrics(cmd.Context(), days)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Successfully removed %d old metric records.\n", affected)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 30, "Keep records for the last N days")

	return cmd
}
