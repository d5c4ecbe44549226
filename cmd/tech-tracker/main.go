package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/tech-tracker/internal/catalog"
	"github.com/ajitpratap0/tech-tracker/internal/config"
	"github.com/ajitpratap0/tech-tracker/internal/github"
	"github.com/ajitpratap0/tech-tracker/internal/models"
	"github.com/ajitpratap0/tech-tracker/internal/store"
)

const (
	catalogManual = "manual"
	catalogAPI    = "api"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	cfg         *config.Config
	catalogName string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "tech-tracker",
		Short:   "Track what you are learning",
		Long:    "Tech Tracker keeps a catalog of technologies with a learning status and notes, computes progress, and can fill the catalog from GitHub's most-starred repositories.",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if catalogName != catalogManual && catalogName != catalogAPI {
				return fmt.Errorf("invalid --catalog %q: must be %s or %s", catalogName, catalogManual, catalogAPI)
			}
			var err error
			cfg, err = config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return nil
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&catalogName, "catalog", catalogManual,
		"catalog to operate on: manual (hand-maintained) or api (filled from GitHub)")

	rootCmd.AddCommand(
		listCmd(),
		searchCmd(),
		statsCmd(),
		categoriesCmd(),
		statusCmd(),
		cycleCmd(),
		notesCmd(),
		addCmd(),
		updateCmd(),
		deleteCmd(),
		completeAllCmd(),
		resetAllCmd(),
		randomCmd(),
		exportCmd(),
		importCmd(),
		fetchCmd(),
		resourcesCmd(),
		resetCmd(),
		clearCmd(),
		healthCmd(),
		serveCmd(),
		mcpCmd(),
	)
	return rootCmd
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if cfg != nil {
		switch strings.ToLower(cfg.Logging.Level) {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg != nil && cfg.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func newStore(logger *slog.Logger) (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(cfg.Storage.Path, logger)
}

func newSource(logger *slog.Logger) *github.Client {
	return github.NewClient(
		cfg.GitHub.BaseURL,
		logger,
		github.WithToken(cfg.GitHub.Token),
		github.WithPerPage(cfg.GitHub.PerPage),
		github.WithHTTPClient(&http.Client{Timeout: cfg.GitHub.Timeout}),
	)
}

// catalogKey maps a --catalog value to its storage key.
func catalogKey(name string) string {
	if name == catalogAPI {
		return cfg.Storage.APIKey
	}
	return cfg.Storage.ManualKey
}

// openCatalog opens the store and loads the named catalog.
// The caller must close the returned store.
func openCatalog(ctx context.Context, name string, logger *slog.Logger) (*catalog.Catalog, store.Store, error) {
	st, err := newStore(logger)
	if err != nil {
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}
	return loadCatalog(ctx, st, name, logger), st, nil
}

// loadCatalog loads the named catalog from st. The manual catalog falls back
// to the built-in seed; the API catalog starts empty.
func loadCatalog(ctx context.Context, st store.Store, name string, logger *slog.Logger) *catalog.Catalog {
	var seed []models.Technology
	if name == catalogManual {
		seed = catalog.DefaultSeed()
	}
	cat := catalog.New(st, catalogKey(name), seed, logger)
	cat.Load(ctx)
	return cat
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q: must be a positive integer", arg)
	}
	return id, nil
}

func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen]) + "..."
	}
	return s
}

func printTechnologies(records []models.Technology) {
	for i := range records {
		t := &records[i]
		fmt.Printf("[%d] %-11s %s\n", t.ID, t.Status, t.Title)
		line := fmt.Sprintf("    %s | %s", t.Category, truncate(t.Description, 80))
		if t.Language != "" {
			line += fmt.Sprintf(" | %s ★%d", t.Language, t.Stars)
		}
		fmt.Println(line)
		if t.Notes != "" {
			fmt.Printf("    notes: %s\n", truncate(t.Notes, 80))
		}
	}
	if len(records) == 0 {
		fmt.Println("No technologies found.")
	}
}
