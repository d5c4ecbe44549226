package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/tech-tracker/internal/models"
)

func addCmd() *cobra.Command {
	var (
		description string
		category    string
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a technology to the catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			cat, st, err := openCatalog(ctx, catalogName, logger)
			if err != nil {
				return fmt.Errorf("add: %w", err)
			}
			defer func() { _ = st.Close() }()

			created, err := cat.Append(ctx, models.Technology{
				Title:       strings.Join(args, " "),
				Description: description,
				Category:    category,
			})
			if err != nil {
				return fmt.Errorf("add: %w", err)
			}
			fmt.Printf("Added [%d] %s (%s)\n", created.ID, created.Title, created.Category)
			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "short description")
	cmd.Flags().StringVarP(&category, "category", "c", "", "category (default frontend)")
	return cmd
}
