package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/tech-tracker/internal/models"
	"github.com/ajitpratap0/tech-tracker/internal/view"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <not-started|in-progress|completed>",
		Short: "Set the learning status of a technology",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			id, err := parseID(args[0])
			if err != nil {
				return fmt.Errorf("status: %w", err)
			}
			status := models.Status(args[1])

			cat, st, err := openCatalog(ctx, catalogName, logger)
			if err != nil {
				return fmt.Errorf("status: %w", err)
			}
			defer func() { _ = st.Close() }()

			if err := cat.SetStatus(ctx, id, status); err != nil {
				return fmt.Errorf("status: %w", err)
			}
			if _, ok := cat.Get(id); !ok {
				fmt.Printf("No technology with id %d; nothing changed.\n", id)
				return nil
			}
			fmt.Printf("[%d] %s (progress %d%%)\n", id, status.Label(), view.ComputeStatistics(cat.Snapshot()).Progress)
			return nil
		},
	}
}
