package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/storybooth/storybooth/internal/config"
	"github.com/storybooth/storybooth/internal/handlers"
	"github.com/storybooth/storybooth/internal/library"
)

func newServeCmd(configPath *string) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the storybooth web backend",
		Long: `Starts the Storybooth API on the specified port.

The API accepts photo uploads, drives the illustration pipeline, and serves
the finished story library.`,
		Example: `  # Start server on the configured port
  storybooth serve

  # Start server on a custom port
  storybooth serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Port = port
			}

			lib, err := library.Open(cfg.DataDir)
			if err != nil {
				return err
			}
			defer lib.Close()

			provider, err := newProvider(cfg)
			if err != nil {
				return err
			}

			mux := http.NewServeMux()
			handlers.New(cfg, provider, lib).Register(mux)

			addr := ":" + cfg.Port
			server := &http.Server{
				Addr:    addr,
				Handler: mux,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Storybooth API available", "addr", addr, "provider", cfg.Provider)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "port to listen on (overrides config)")
	return cmd
}
