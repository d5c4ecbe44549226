package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func cycleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cycle <id>",
		Short: "Advance a technology to its next status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			id, err := parseID(args[0])
			if err != nil {
				return fmt.Errorf("cycle: %w", err)
			}

			cat, st, err := openCatalog(ctx, catalogName, logger)
			if err != nil {
				return fmt.Errorf("cycle: %w", err)
			}
			defer func() { _ = st.Close() }()

			next, err := cat.Cycle(ctx, id)
			if err != nil {
				return fmt.Errorf("cycle: %w", err)
			}
			fmt.Printf("[%d] %s\n", id, next.Label())
			return nil
		},
	}
}
