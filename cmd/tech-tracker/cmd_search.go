package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/tech-tracker/internal/view"
)

func searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search titles, descriptions and languages (case-insensitive)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			cat, st, err := openCatalog(cmd.Context(), catalogName, logger)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}
			defer func() { _ = st.Close() }()

			query := strings.Join(args, " ")
			results := view.Search(cat.Snapshot(), query)
			fmt.Printf("Found %d of %d for %q\n", len(results), len(cat.Snapshot()), query)
			printTechnologies(results)
			return nil
		},
	}
}
