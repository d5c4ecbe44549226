package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/tech-tracker/internal/codec"
)

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json|->",
		Short: "Replace the catalog with a JSON export",
		Long: `Reads a JSON document produced by export and replaces the whole catalog
with its technologies. Every technology must carry id, title and description.
A malformed document leaves the catalog unchanged.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			var r io.Reader = os.Stdin
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("import: opening file: %w", err)
				}
				defer func() { _ = f.Close() }()
				r = f
			}

			records, err := codec.ImportJSON(r)
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}

			cat, st, err := openCatalog(ctx, catalogName, logger)
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}
			defer func() { _ = st.Close() }()

			if err := cat.ReplaceAll(ctx, records); err != nil {
				return fmt.Errorf("import: %w", err)
			}

			fmt.Printf("Imported %d technologies.\n", len(records))
			return nil
		},
	}
}
