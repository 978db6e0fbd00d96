package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics
type Metrics struct {
	AnalyzeRequests   metric.Int64Counter
	PipelineDuration  metric.Float64Histogram
	StageDuration     metric.Float64Histogram
	DegradedSummaries metric.Int64Counter
	PersistFailures   metric.Int64Counter
	CacheHits         metric.Int64Counter
}

// InitMetrics initializes all application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("deck-analysis-service")

	analyzeRequests, err := meter.Int64Counter(
		"analysis.requests.total",
		metric.WithDescription("Total document analysis requests"),
	)
	if err != nil {
		return nil, err
	}

	pipelineDuration, err := meter.Float64Histogram(
		"analysis.pipeline.duration",
		metric.WithDescription("End-to-end pipeline duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	stageDuration, err := meter.Float64Histogram(
		"analysis.stage.duration",
		metric.WithDescription("Per-stage pipeline duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	degradedSummaries, err := meter.Int64Counter(
		"analysis.summaries.degraded",
		metric.WithDescription("Requests that completed with an empty summary after summarizer failure"),
	)
	if err != nil {
		return nil, err
	}

	persistFailures, err := meter.Int64Counter(
		"analysis.persist.failures",
		metric.WithDescription("Failed result store inserts"),
	)
	if err != nil {
		return nil, err
	}

	cacheHits, err := meter.Int64Counter(
		"analysis.cache.hits",
		metric.WithDescription("Analyses served from the content-hash cache"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		AnalyzeRequests:   analyzeRequests,
		PipelineDuration:  pipelineDuration,
		StageDuration:     stageDuration,
		DegradedSummaries: degradedSummaries,
		PersistFailures:   persistFailures,
		CacheHits:         cacheHits,
	}, nil
}

// RecordStage records a stage timing with its name attribute.
func (m *Metrics) RecordStage(ctx context.Context, stage string, seconds float64) {
	if m == nil {
		return
	}
	m.StageDuration.Record(ctx, seconds, metric.WithAttributes(attribute.String("stage", stage)))
}
