package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"

	"github.com/nameregistry/nameregistry/internal/config"
	"github.com/nameregistry/nameregistry/pkg/lib/log"
)

var logger = log.Logger("metrics")

// Module provides the Prometheus registry and, if enabled, serves
// /metrics over HTTP for the configured listen address.
func Module() fx.Option {
	return fx.Module("metrics",
		fx.Provide(provide),
		fx.Invoke(registerLifecycle),
	)
}

func provide(cfg *config.Config) *Registry {
	if !cfg.Metrics.Enabled {
		return New(nil)
	}
	return New(prometheus.DefaultRegisterer)
}

type lifecycleInput struct {
	fx.In

	LC  fx.Lifecycle
	Cfg *config.Config
}

func registerLifecycle(in lifecycleInput) {
	if !in.Cfg.Metrics.Enabled {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: in.Cfg.Metrics.ListenAddr, Handler: mux}

	in.LC.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Warn("metrics server stopped", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
