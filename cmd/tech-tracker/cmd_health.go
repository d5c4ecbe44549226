package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the local store and the GitHub API",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()
			allOK := true

			// Check the key-value store
			st, err := newStore(logger)
			if err != nil {
				fmt.Printf("Store: FAIL (%v)\n", err)
				allOK = false
			} else {
				defer func() { _ = st.Close() }()
				if keys, keysErr := st.Keys(ctx); keysErr != nil {
					fmt.Printf("Store: FAIL (%v)\n", keysErr)
					allOK = false
				} else {
					fmt.Printf("Store: OK (%s, %d keys)\n", st.Path(), len(keys))
				}
			}

			// Check GitHub
			rate, err := newSource(logger).RateLimit(ctx)
			if err != nil {
				fmt.Printf("GitHub API: FAIL (%v)\n", err)
				allOK = false
			} else {
				fmt.Printf("GitHub API: OK (%d/%d requests left, resets %s)\n",
					rate.Remaining, rate.Limit, rate.Reset.Local().Format(time.Kitchen))
				if rate.Remaining == 0 {
					fmt.Println("GitHub API: WARN rate limit exhausted; fetch will fail until reset")
				}
			}

			if !allOK {
				return fmt.Errorf("one or more health checks failed")
			}
			return nil
		},
	}
}
