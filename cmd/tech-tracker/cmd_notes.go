package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func notesCmd() *cobra.Command {
	var clearNotes bool

	cmd := &cobra.Command{
		Use:   "notes <id> [text...]",
		Short: "Show, replace or clear the notes of a technology",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			id, err := parseID(args[0])
			if err != nil {
				return fmt.Errorf("notes: %w", err)
			}

			cat, st, err := openCatalog(ctx, catalogName, logger)
			if err != nil {
				return fmt.Errorf("notes: %w", err)
			}
			defer func() { _ = st.Close() }()

			t, ok := cat.Get(id)
			if !ok {
				fmt.Printf("No technology with id %d.\n", id)
				return nil
			}

			if len(args) == 1 && !clearNotes {
				if t.Notes == "" {
					fmt.Println("(no notes)")
				} else {
					fmt.Println(t.Notes)
				}
				return nil
			}

			notes := strings.Join(args[1:], " ")
			if err := cat.SetNotes(ctx, id, notes); err != nil {
				return fmt.Errorf("notes: %w", err)
			}
			fmt.Printf("Notes saved for [%d] %s (%d chars)\n", id, t.Title, len([]rune(notes)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&clearNotes, "clear", false, "clear the notes")
	return cmd
}
