package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ajitpratap0/tech-tracker/internal/api"
	"github.com/ajitpratap0/tech-tracker/internal/models"
	"github.com/ajitpratap0/tech-tracker/internal/view"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP/JSON API server",
		Long: `Serves the selected catalog over HTTP. POST /v1/fetch always refreshes the
API catalog, whichever catalog is served. With --catalog api and nothing
stored yet, the catalog is first filled from GitHub using
github.default_language.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			cat, st, err := openCatalog(ctx, catalogName, logger)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer func() { _ = st.Close() }()

			feed := cat
			if catalogName != catalogAPI {
				feed = loadCatalog(ctx, st, catalogAPI, logger)
			}

			src := newSource(logger)
			if catalogName == catalogAPI && !cat.Loaded() {
				if _, fetchErr := cat.Refresh(ctx, src, cfg.GitHub.DefaultLanguage); fetchErr != nil {
					logger.Warn("initial fetch failed; serving an empty catalog", "error", fetchErr)
				}
			}

			unsubscribe := cat.Subscribe(func(records []models.Technology) {
				stats := view.ComputeStatistics(records)
				logger.Debug("catalog changed", "total", stats.Total, "progress", stats.Progress)
			})
			defer unsubscribe()

			srv := api.NewServer(cat, feed, src, logger, cfg.API.AuthToken)

			if cfg.API.AuthToken == "" {
				logger.Warn("HTTP API: auth is DISABLED; set TECH_TRACKER_API_AUTH_TOKEN or api.auth_token for production use")
			}

			httpSrv := &http.Server{
				Addr:              cfg.API.ListenAddr,
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       30 * time.Second,
				WriteTimeout:      60 * time.Second,
				IdleTimeout:       120 * time.Second,
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				logger.Info("HTTP API server starting", "addr", cfg.API.ListenAddr, "catalog", cat.Key())
				if listenErr := httpSrv.ListenAndServe(); listenErr != nil && !errors.Is(listenErr, http.ErrServerClosed) {
					return fmt.Errorf("serve: HTTP server: %w", listenErr)
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				logger.Info("shutting down")
				const shutdownTimeout = 10 * time.Second
				if shutdownErr := api.Shutdown(httpSrv, shutdownTimeout); shutdownErr != nil && !errors.Is(shutdownErr, context.Canceled) {
					return fmt.Errorf("serve: graceful shutdown: %w", shutdownErr)
				}
				return nil
			})

			return g.Wait()
		},
	}
	return cmd
}
