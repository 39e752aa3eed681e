package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/srediag/viewembed/internal/config"
	"github.com/srediag/viewembed/internal/logging"
	"github.com/srediag/viewembed/pkg/embed"
	"github.com/srediag/viewembed/pkg/health"
)

// regionSource maps the table for each check so the server never keeps it alive.
type regionSource struct {
	name string
}

func (r regionSource) Table(ctx context.Context) (embed.SharedTable, error) {
	return loadTable(ctx, r.name)
}

func serve(ctx context.Context, cfg *config.Config, args []string, log *logging.Logger) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", cfg.Health.Addr, "Listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	h := health.NewHandler(regionSource{name: cfg.Region}, reg, health.Options{
		Timeout:       2 * time.Second,
		MaxGoroutines: 1000,
	})
	srv := &http.Server{
		Addr:              *addr,
		Handler:           health.NewMux(h, reg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("serving health", zap.String("addr", *addr), zap.String("region", cfg.Region))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
