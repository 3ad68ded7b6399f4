package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ryabkov82/xlsx-splitter/internal/config"
	"github.com/ryabkov82/xlsx-splitter/internal/logging"
	"github.com/ryabkov82/xlsx-splitter/internal/web"
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web interface and HTTP API",
		Long: `Start the HTTP server with the split and consolidate forms and
their /api counterparts.

Every flag can also be set through a SPLITTER_* environment variable
or a .env file, e.g. SPLITTER_ADDR=:9000 or SPLITTER_MAX_UPLOAD_MB=64.`,
		Example: `  xlsx-splitter serve
  xlsx-splitter serve --addr :9000 --max-upload-mb 64 -v`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	config.BindFlags(cmd.Flags())
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.LogLevel = "debug"
	}
	if err := logging.Setup(cfg.LogLevel, cfg.LogFormat); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := web.NewServer(cfg)
	serverErr := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{
			"addr":          cfg.Addr,
			"max_upload_mb": cfg.MaxUploadMB,
		}).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}
