package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/tech-tracker/internal/catalog"
	"github.com/ajitpratap0/tech-tracker/internal/models"
)

func updateCmd() *cobra.Command {
	var (
		title       string
		description string
		category    string
		status      string
		notes       string
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update fields of an existing technology",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			id, err := parseID(args[0])
			if err != nil {
				return fmt.Errorf("update: %w", err)
			}

			// Apply provided flag values.
			var patch catalog.Patch
			if cmd.Flags().Changed("title") {
				patch.Title = &title
			}
			if cmd.Flags().Changed("description") {
				patch.Description = &description
			}
			if cmd.Flags().Changed("category") {
				patch.Category = &category
			}
			if cmd.Flags().Changed("status") {
				s := models.Status(status)
				patch.Status = &s
			}
			if cmd.Flags().Changed("notes") {
				patch.Notes = &notes
			}
			if patch == (catalog.Patch{}) {
				return fmt.Errorf("update: nothing to update; pass at least one of --title, --description, --category, --status, --notes")
			}

			cat, st, err := openCatalog(ctx, catalogName, logger)
			if err != nil {
				return fmt.Errorf("update: %w", err)
			}
			defer func() { _ = st.Close() }()

			if _, ok := cat.Get(id); !ok {
				return fmt.Errorf("update: %w: %d", catalog.ErrNotFound, id)
			}
			if err := cat.Update(ctx, id, patch); err != nil {
				return fmt.Errorf("update: %w", err)
			}

			t, _ := cat.Get(id)
			printTechnologies([]models.Technology{t})
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().StringVar(&category, "category", "", "new category")
	cmd.Flags().StringVar(&status, "status", "", "new status")
	cmd.Flags().StringVar(&notes, "notes", "", "new notes")
	return cmd
}
