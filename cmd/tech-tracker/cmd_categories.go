package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/tech-tracker/internal/view"
)

func categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the categories and languages present in the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			cat, st, err := openCatalog(cmd.Context(), catalogName, logger)
			if err != nil {
				return fmt.Errorf("categories: %w", err)
			}
			defer func() { _ = st.Close() }()

			records := cat.Snapshot()
			fmt.Printf("Categories: %s\n", strings.Join(view.Categories(records), ", "))
			if langs := view.Languages(records); len(langs) > 0 {
				fmt.Printf("Languages:  %s\n", strings.Join(langs, ", "))
			}
			return nil
		},
	}
}
