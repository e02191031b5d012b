package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	RecommendationRequestsTotal metric.Int64Counter
	RecommendationStreamSeconds metric.Float64Histogram
	StreamEventsTotal           metric.Int64Counter
	RecommendationsCompleted    metric.Int64Counter
	DuplicatesSuppressedTotal   metric.Int64Counter
	SearchRequestsTotal         metric.Int64Counter
	ImageLookupsTotal           metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metrics instruments ONLY ONCE.
// It gets the Meter from the globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("tripstream")
		var err error
		m := &AppMetrics{}

		m.RecommendationRequestsTotal, err = meter.Int64Counter(
			"recommendation_requests_total",
			metric.WithDescription("Total number of recommendation requests received"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create recommendation_requests_total: %v", err)
		}

		m.RecommendationStreamSeconds, err = meter.Float64Histogram(
			"recommendation_stream_duration_seconds",
			metric.WithDescription("Duration of recommendation streams in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create recommendation_stream_duration_seconds: %v", err)
		}

		m.StreamEventsTotal, err = meter.Int64Counter(
			"stream_events_total",
			metric.WithDescription("Total number of events written to recommendation streams"),
			metric.WithUnit("{event}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create stream_events_total: %v", err)
		}

		m.RecommendationsCompleted, err = meter.Int64Counter(
			"recommendations_completed_total",
			metric.WithDescription("Total number of recommendations streamed to completion"),
			metric.WithUnit("{recommendation}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create recommendations_completed_total: %v", err)
		}

		m.DuplicatesSuppressedTotal, err = meter.Int64Counter(
			"duplicates_suppressed_total",
			metric.WithDescription("Total number of recommendations suppressed by the dedup gate"),
			metric.WithUnit("{recommendation}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create duplicates_suppressed_total: %v", err)
		}

		m.SearchRequestsTotal, err = meter.Int64Counter(
			"search_requests_total",
			metric.WithDescription("Total number of outbound web search calls"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create search_requests_total: %v", err)
		}

		m.ImageLookupsTotal, err = meter.Int64Counter(
			"image_lookups_total",
			metric.WithDescription("Total number of image URL resolutions"),
			metric.WithUnit("{lookup}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create image_lookups_total: %v", err)
		}

		log.Println("Application metrics instruments initialized.")
		appMetrics = m
	})
}

// Get returns the globally initialized AppMetrics instance.
// Panics if InitAppMetrics was not called first.
func Get() *AppMetrics {
	if appMetrics == nil {
		panic("metrics instruments not initialized. Call metrics.InitAppMetrics() first.")
	}
	return appMetrics
}
