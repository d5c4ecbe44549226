package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/tech-tracker/internal/view"
)

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show learning progress statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			cat, st, err := openCatalog(cmd.Context(), catalogName, logger)
			if err != nil {
				return fmt.Errorf("stats: %w", err)
			}
			defer func() { _ = st.Close() }()

			records := cat.Snapshot()
			stats := view.ComputeStatistics(records)

			const barWidth = 30
			filled := stats.Progress * barWidth / 100
			fmt.Printf("Progress:    [%s%s] %d%%\n", strings.Repeat("#", filled), strings.Repeat(".", barWidth-filled), stats.Progress)
			fmt.Printf("Total:       %d\n", stats.Total)
			fmt.Printf("Completed:   %d\n", stats.Completed)
			fmt.Printf("In progress: %d\n", stats.InProgress)
			fmt.Printf("Not started: %d\n", stats.NotStarted)

			breakdown := view.CategoryBreakdown(records)
			if len(breakdown) > 0 {
				fmt.Println("\nBy category:")
				for _, c := range breakdown {
					fmt.Printf("  %-12s %d\n", c.Name, c.Count)
				}
			}
			return nil
		},
	}
}
