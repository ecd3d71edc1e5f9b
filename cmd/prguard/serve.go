package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/procurewatch/prguard/internal/config"
	"github.com/procurewatch/prguard/internal/server"
)

func newServeCmd(defaults config.ServeConfig) *cobra.Command {
	var (
		modelPath string
		port      int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the trained model over HTTP",
		RunE: func(_ *cobra.Command, _ []string) error {
			srv := server.New(modelPath)
			if err := srv.Preload(); err != nil {
				// Degraded start: health reports unavailable until a
				// later request finds the artifact in place.
				slog.Error("could not load model at startup", "error", err)
			}

			httpSrv := &http.Server{
				Addr:              fmt.Sprintf(":%d", port),
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 5 * time.Second,
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				slog.Info("serving", "addr", httpSrv.Addr)
				errCh <- httpSrv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			slog.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return httpSrv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&modelPath, "model", defaults.ModelPath, "model artifact path")
	cmd.Flags().IntVar(&port, "port", defaults.Port, "HTTP port")

	return cmd
}
