// Command zrouter serves the routing adapter's HTTP application.
//
//	zrouter serve    start the HTTP server
//	zrouter routes   print the routing table as JSON
//	zrouter migrate  apply database migrations from --dir
//
// Configuration comes from ZROUTER_* environment variables and .env.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/deppfellow/zrouter/internal/config"
	"github.com/deppfellow/zrouter/internal/database"
	"github.com/deppfellow/zrouter/internal/handler"
	"github.com/deppfellow/zrouter/internal/lib/utils"
	"github.com/deppfellow/zrouter/internal/logger"
	"github.com/deppfellow/zrouter/internal/router"
	"github.com/deppfellow/zrouter/internal/server"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "zrouter",
		Short:         "Routing adapter with uniform response envelopes",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(newServeCmd(), newRoutesCmd(), newMigrateCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var shutdownTimeout time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), shutdownTimeout)
		},
	}

	cmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 30*time.Second, "time allowed for in-flight requests on shutdown")
	return cmd
}

func serve(ctx context.Context, shutdownTimeout time.Duration) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	loggerService, err := logger.NewLoggerService(cfg.Observability)
	log := logger.NewLoggerWithService(cfg.Observability, loggerService)
	if err != nil {
		log.Warn().Err(err).Msg("new relic disabled: failed to start application")
	}
	defer loggerService.Shutdown()

	srv, err := server.New(cfg, &log, loggerService)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize server")
		return err
	}

	app, err := router.NewApp(srv, handler.NewHandlers(srv))
	if err != nil {
		log.Error().Err(err).Msg("failed to register routes")
		return err
	}

	srv.SetupHTTPServer(app.Echo)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		log.Error().Err(err).Msg("server stopped unexpectedly")
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}

func newRoutesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "Print the routing table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}

			// Registration only: no redis, no job worker, no New Relic.
			log := logger.NewLogger(cfg.Observability)
			srv := &server.Server{Config: cfg, Logger: &log}

			app, err := router.NewApp(srv, handler.NewHandlers(srv))
			if err != nil {
				return err
			}

			return utils.PrintJSON(cmd.OutOrStdout(), app.Routes())
		},
	}
}

func newMigrateCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}

			if !cfg.Database.Enabled() {
				return errors.New("database.host is not configured")
			}

			log := logger.NewLogger(cfg.Observability)

			return database.Migrate(cmd.Context(), &log, cfg, os.DirFS(dir))
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "migrations", "directory holding numbered tern migrations")
	return cmd
}
