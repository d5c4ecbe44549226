package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func randomCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "random",
		Short: "Pick something to learn next and mark it in progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			cat, st, err := openCatalog(ctx, catalogName, logger)
			if err != nil {
				return fmt.Errorf("random: %w", err)
			}
			defer func() { _ = st.Close() }()

			t, ok, err := cat.PickRandom(ctx, nil)
			if err != nil {
				return fmt.Errorf("random: %w", err)
			}
			if !ok {
				fmt.Println("Everything is completed. Nothing left to pick.")
				return nil
			}
			fmt.Printf("Next up: [%d] %s\n    %s\n", t.ID, t.Title, truncate(t.Description, 100))
			return nil
		},
	}
}
