package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"meal-planner/internal/format"
)

func newShoppingListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shopping-list [menu-id]",
		Short: "Print the shopping list of a saved menu",
		Long:  `Print the shopping list of the given menu, or of the latest one.`,
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

			menu, list, err := e.app.ShoppingList(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Menu #%d\n\n", menu.ID)
			fmt.Fprint(cmd.OutOrStdout(), format.ShoppingText(list))
			return nil
		},
	}
}

// menuIDArg parses an optional menu id; 0 means the latest menu.
func menuIDArg(args []string) (int64, error) {
	if len(args) == 0 {
		return 0, nil
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid menu id %q", args[0])
	}
	return id, nil
}
