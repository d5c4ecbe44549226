package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/tech-tracker/internal/codec"
)

func exportCmd() *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the catalog to JSON or CSV",
		Long: `Exports the catalog. JSON output is an object with exportedAt, count and
technologies and can be imported again; CSV is export-only.

Use -o auto to write tech-tracker-YYYY-MM-DD.<format> in the current directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			if format != "json" && format != "csv" {
				return fmt.Errorf("export: unsupported format %q (use json or csv)", format)
			}

			cat, st, err := openCatalog(cmd.Context(), catalogName, logger)
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}
			defer func() { _ = st.Close() }()

			records := cat.Snapshot()
			now := time.Now()

			if output == "auto" {
				output = codec.Filename(format, now)
			}

			var w *os.File
			if output == "" || output == "-" {
				w = os.Stdout
			} else {
				w, err = os.Create(output)
				if err != nil {
					return fmt.Errorf("export: creating output file: %w", err)
				}
				defer func() { _ = w.Close() }()
			}

			switch format {
			case "json":
				if err := codec.WriteJSON(w, codec.ExportJSON(records, now)); err != nil {
					return fmt.Errorf("export: %w", err)
				}
			case "csv":
				if err := codec.ExportCSV(w, records); err != nil {
					return fmt.Errorf("export: %w", err)
				}
			}

			if output != "" && output != "-" {
				fmt.Fprintf(os.Stderr, "Exported %d technologies to %s\n", len(records), output)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "output format: json or csv")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file path (- for stdout, auto for a dated file name)")
	return cmd
}
