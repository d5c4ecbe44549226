package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/tech-tracker/internal/models"
	"github.com/ajitpratap0/tech-tracker/internal/view"
)

func listCmd() *cobra.Command {
	var (
		status   string
		category string
		language string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List technologies in the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			if status != view.FilterAll && !models.Status(status).IsValid() {
				return fmt.Errorf("list: invalid --status %q: must be all, not-started, in-progress or completed", status)
			}

			cat, st, err := openCatalog(cmd.Context(), catalogName, logger)
			if err != nil {
				return fmt.Errorf("list: %w", err)
			}
			defer func() { _ = st.Close() }()

			records := view.FilterByStatus(cat.Snapshot(), status)
			records = view.FilterByCategory(records, category)
			records = view.FilterByLanguage(records, language)

			printTechnologies(records)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", view.FilterAll, "filter by status")
	cmd.Flags().StringVar(&category, "category", view.FilterAll, "filter by category")
	cmd.Flags().StringVar(&language, "language", view.FilterAll, "filter by language")
	return cmd
}
