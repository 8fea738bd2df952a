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
	"golang.org/x/sync/errgroup"

	apphttp "github.com/dropDatabas3/credgate/internal/http"
	"github.com/dropDatabas3/credgate/internal/observability/logger"
)

func newServeCmd(opts *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Levanta la API HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			log := logger.L().With(logger.Component("serve"))

			app, err := apphttp.New(ctx, cfg, apphttp.Deps{Version: version})
			if err != nil {
				return fmt.Errorf("wiring failed: %w", err)
			}

			srv := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           app.Handler,
				ReadHeaderTimeout: 5 * time.Second,
				ReadTimeout:       cfg.Server.ReadTimeout,
				WriteTimeout:      cfg.Server.WriteTimeout,
				IdleTimeout:       cfg.Server.IdleTimeout,
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				log.Info("listening",
					logger.String("addr", cfg.Server.Addr),
					logger.String("env", cfg.App.Env),
					logger.String("store", cfg.Storage.Driver),
				)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("listen: %w", err)
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				log.Info("shutting down", logger.Duration("timeout", cfg.Server.ShutdownTimeout))

				sctx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.Server.ShutdownTimeout)
				defer cancel()
				// Primero se dejan de aceptar requests; después se drenan los envíos pendientes.
				herr := srv.Shutdown(sctx)
				aerr := app.Shutdown(sctx)
				return errors.Join(herr, aerr)
			})

			if err := g.Wait(); err != nil {
				log.Error("server stopped with error", logger.Err(err))
				return err
			}
			log.Info("bye")
			return nil
		},
	}
}
