package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Replace the catalog with the built-in default list",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			cat, st, err := openCatalog(ctx, catalogName, logger)
			if err != nil {
				return fmt.Errorf("reset: %w", err)
			}
			defer func() { _ = st.Close() }()

			if err := cat.Reset(ctx); err != nil {
				return fmt.Errorf("reset: %w", err)
			}
			fmt.Printf("Catalog reset to %d default technologies.\n", len(cat.Snapshot()))
			return nil
		},
	}
}

func clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every technology from the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			cat, st, err := openCatalog(ctx, catalogName, logger)
			if err != nil {
				return fmt.Errorf("clear: %w", err)
			}
			defer func() { _ = st.Close() }()

			if err := cat.Clear(ctx); err != nil {
				return fmt.Errorf("clear: %w", err)
			}
			fmt.Println("Catalog cleared.")
			return nil
		},
	}
}
