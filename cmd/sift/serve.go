package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/FranksOps/sift/internal/api"
	"github.com/FranksOps/sift/internal/metrics"
)

const shutdownTimeout = 15 * time.Second

func serveCMD(g *globals) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := g.load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.backend.Ping(ctx); err != nil {
				logger.Warn("backend not available, analyze requests will fail until it is", "model", a.backend.Model(), "err", err)
			} else {
				logger.Info("backend connected", "model", a.backend.Model())
			}

			handler := api.NewServer(a.pipeline, a.backend, a.archive, api.Config{
				RunTimeout: cfg.Server.RunTimeout,
				Version:    version,
			}, logger).Router()
			srv := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			}

			eg, ctx := errgroup.WithContext(ctx)
			eg.Go(func() error {
				logger.Info("api listening", "addr", cfg.Server.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			eg.Go(func() error {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
			if cfg.Metrics.Enabled {
				ms := metrics.Start(cfg.Metrics.Port, logger)
				logger.Info("metrics listening", "port", cfg.Metrics.Port)
				eg.Go(func() error {
					<-ctx.Done()
					return ms.Stop(context.Background())
				})
			}

			err = eg.Wait()
			logger.Info("server stopped")
			return err
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}
