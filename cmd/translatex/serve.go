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

	"github.com/spf13/cobra"

	"translatex/internal/logger"
	"translatex/internal/server"
	"translatex/internal/translator"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var (
		addr         string
		maxBodyBytes int64
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the translation HTTP API.

Endpoints:
  GET  /healthz
  GET  /metrics
  GET  /v1/languages
  POST /v1/translate   {"source": "...", "source_lang": "en", "dest_lang": "ru"}
  POST /v1/chunks      same body, returns the planned requests`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b, closeBackend, err := a.newBackend(ctx)
			if err != nil {
				return err
			}
			defer closeBackend()

			api, err := server.New(server.Config{
				Options:      translator.OptionsFromConfig(a.cfg, b),
				MaxBodyBytes: maxBodyBytes,
				Version:      version,
			})
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr:              addr,
				Handler:           api,
				ReadHeaderTimeout: 10 * time.Second,
			}

			serverErrors := make(chan error, 1)
			go func() {
				logger.Info("starting server", logger.String("addr", addr), logger.String("backend", a.cfg.Backend))
				fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s\n", addr)
				serverErrors <- srv.ListenAndServe()
			}()

			shutdown := make(chan os.Signal, 1)
			signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(shutdown)

			select {
			case err := <-serverErrors:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err

			case sig := <-shutdown:
				logger.Info("shutting down", logger.String("signal", sig.String()))
				ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := srv.Shutdown(ctx); err != nil {
					logger.Error("graceful shutdown did not complete", err)
					return srv.Close()
				}
				logger.Info("server stopped")
				return nil
			}
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", ":8080", "Address to listen on")
	cmd.Flags().Int64Var(&maxBodyBytes, "max-body", server.DefaultMaxBodyBytes, "Maximum request body size in bytes")

	return cmd
}
