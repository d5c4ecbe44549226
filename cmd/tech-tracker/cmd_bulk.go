package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/tech-tracker/internal/catalog"
)

func completeAllCmd() *cobra.Command {
	return bulkCmd("complete-all", "Mark every technology completed", (*catalog.Catalog).MarkAllCompleted)
}

func resetAllCmd() *cobra.Command {
	return bulkCmd("reset-all", "Set every technology back to not-started", (*catalog.Catalog).ResetAll)
}

func bulkCmd(use, short string, apply func(*catalog.Catalog, context.Context) (int, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			cat, st, err := openCatalog(ctx, catalogName, logger)
			if err != nil {
				return fmt.Errorf("%s: %w", use, err)
			}
			defer func() { _ = st.Close() }()

			n, err := apply(cat, ctx)
			if err != nil {
				return fmt.Errorf("%s: %w", use, err)
			}
			fmt.Printf("Updated %d technologies.\n", n)
			return nil
		},
	}
}
