package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/ArionMiles/spendnote/internal/httpapi"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if addr == "" {
				addr = cfg.HTTPAddr
			}
			srv := httpapi.NewServer(addr, httpapi.NewHandler(a.ledger, logger.With("component", "http")))

			errChan := make(chan error, 1)
			go func() {
				logger.Info("http server listening", "addr", addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errChan <- err
				}
				close(errChan)
			}()

			select {
			case err := <-errChan:
				if err != nil {
					return fmt.Errorf("http server: %w", err)
				}
				return nil
			case <-cmd.Context().Done():
				logger.Info("shutting down http server")
			}

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				return fmt.Errorf("shutting down http server: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default SPENDNOTE_HTTP_ADDR or :8080)")
	return cmd
}
