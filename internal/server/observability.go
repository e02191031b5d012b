package server

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tripstream/internal/app/observability/metrics"
	"github.com/FACorreiaa/go-tripstream/internal/app/observability/tracer"
	"github.com/FACorreiaa/go-tripstream/internal/pkg/config"
)

// ObservabilityShutdownFunc is the function type returned by InitObservability
type ObservabilityShutdownFunc func(context.Context) error

// InitObservability initializes OpenTelemetry and application metrics
func InitObservability(serviceName string, obs config.ObservabilityConfig, logger *zap.Logger) (ObservabilityShutdownFunc, error) {
	otelShutdown, err := tracer.InitOtelProviders(serviceName, obs.MetricsAddr, obs.OTLPEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics.InitAppMetrics()
	logger.Info("Observability initialized",
		zap.String("metrics_endpoint", obs.MetricsAddr+"/metrics"),
		zap.String("otlp_endpoint", obs.OTLPEndpoint))

	return otelShutdown, nil
}
