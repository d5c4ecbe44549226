package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a technology by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			id, err := parseID(args[0])
			if err != nil {
				return fmt.Errorf("delete: %w", err)
			}

			cat, st, err := openCatalog(ctx, catalogName, logger)
			if err != nil {
				return fmt.Errorf("delete: %w", err)
			}
			defer func() { _ = st.Close() }()

			t, ok := cat.Get(id)
			if !ok {
				fmt.Printf("No technology with id %d.\n", id)
				return nil
			}
			if err := cat.Delete(ctx, id); err != nil {
				return fmt.Errorf("delete: %w", err)
			}
			fmt.Printf("Deleted [%d] %s\n", id, t.Title)
			return nil
		},
	}
}
