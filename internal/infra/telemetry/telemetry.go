package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/adolfbenedict/bytehub/internal/infra/config"
)

// Provider is the process-level telemetry handle.
type Provider struct {
	buildInfo *prometheus.GaugeVec
}

// Attach registers process-level metrics with the default registerer. HTTP
// request metrics live in the transport middleware; this covers what exists
// before the first request.
func Attach(_ context.Context, cfg *config.AppConfig) (*Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	buildInfo := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "bytehub",
		Name:      "build_info",
		Help:      "Constant gauge labelled with service name and environment.",
	}, []string{"service", "env"})

	if err := prometheus.DefaultRegisterer.Register(buildInfo); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return nil, fmt.Errorf("register build info metric: %w", err)
		}
		if existing, ok := already.ExistingCollector.(*prometheus.GaugeVec); ok {
			buildInfo = existing
		}
	}
	buildInfo.WithLabelValues(cfg.App.Name, cfg.App.Env).Set(1)

	startedAt := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "bytehub",
		Name:      "process_start_time_unix",
		Help:      "Unix timestamp at which the process registered telemetry.",
	})
	if err := prometheus.DefaultRegisterer.Register(startedAt); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return nil, fmt.Errorf("register start time metric: %w", err)
		}
		if existing, ok := already.ExistingCollector.(prometheus.Gauge); ok {
			startedAt = existing
		}
	}
	startedAt.Set(float64(time.Now().Unix()))

	return &Provider{buildInfo: buildInfo}, nil
}
