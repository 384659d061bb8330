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

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httpadapter "riskmap/internal/adapters/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve stored rating snapshots over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		shutdownTimeout, _ := cmd.Flags().GetDuration("shutdown-timeout")

		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		r := chi.NewRouter()
		r.Mount("/", httpadapter.New(store, store, store, logger, time.Now).Routes())

		httpServer := &http.Server{
			Addr:         cfg.ListenAddr,
			Handler:      r,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("listening", zap.String("addr", cfg.ListenAddr), zap.String("store", cfg.Store))
			serverErrors <- httpServer.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(shutdown)

		select {
		case err := <-serverErrors:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
		case sig := <-shutdown:
			logger.Info("shutting down", zap.Stringer("signal", sig))

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := httpServer.Shutdown(ctx); err != nil {
				if closeErr := httpServer.Close(); closeErr != nil {
					return fmt.Errorf("failed to gracefully shutdown server: %w (close error: %v)", err, closeErr)
				}
				return fmt.Errorf("failed to gracefully shutdown server: %w", err)
			}
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().String("listen", ":8080", "listen address (or LISTEN_ADDR)")
	serveCmd.Flags().Duration("shutdown-timeout", 10*time.Second, "graceful shutdown timeout")
}
