package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/tech-tracker/internal/github"
)

func fetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch [language]",
		Short: "Replace the API catalog with GitHub's most-starred repositories",
		Long: `Queries GitHub repository search for the most-starred repositories in a
language and replaces the API catalog (--catalog is ignored) with them. Every
fetched technology starts not-started with empty notes.

Supported languages: javascript, python, typescript, go, rust, java, cpp,
csharp. Anything else falls back to javascript. Set GITHUB_TOKEN to raise the
rate limit.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			language := cfg.GitHub.DefaultLanguage
			if len(args) == 1 {
				language = args[0]
			}
			language = github.NormalizeLanguage(language)

			cat, st, err := openCatalog(ctx, catalogAPI, logger)
			if err != nil {
				return fmt.Errorf("fetch: %w", err)
			}
			defer func() { _ = st.Close() }()

			records, err := cat.Refresh(ctx, newSource(logger), language)
			if err != nil {
				var se *github.SourceError
				if errors.As(err, &se) {
					return fmt.Errorf("fetch: %s", se.Message)
				}
				return fmt.Errorf("fetch: %w", err)
			}

			fmt.Printf("Loaded %d %s repositories.\n", len(records), language)
			printTechnologies(records)
			return nil
		},
	}
}
