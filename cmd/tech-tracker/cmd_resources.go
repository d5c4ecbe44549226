package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func resourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resources <technology>",
		Short: "Suggest learning resources for a technology",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			name := strings.Join(args, " ")
			resources := newSource(logger).Resources(cmd.Context(), name)
			if len(resources) == 0 {
				fmt.Printf("No resources found for %q.\n", name)
				return nil
			}

			for i, r := range resources {
				fmt.Printf("[%d] [%s] %s\n", i+1, r.Type, r.Title)
				line := "    " + r.URL
				if r.Stars > 0 {
					line += fmt.Sprintf(" | ★%d", r.Stars)
				}
				fmt.Println(line)
				if r.Description != "" {
					fmt.Printf("    %s\n", truncate(r.Description, 100))
				}
			}
			return nil
		},
	}
}
