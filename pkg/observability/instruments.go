package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/prperemyshlev/outreach-service"

// Metrics holds the domain instruments. A nil *Metrics records nothing.
type Metrics struct {
	tokenRefresh       metric.Int64Counter
	outreachRuns       metric.Int64Counter
	outreachCandidates metric.Int64Counter
	upstreamDuration   metric.Float64Histogram
}

// NewMetrics registers the instruments on provider
func NewMetrics(provider metric.MeterProvider) (*Metrics, error) {
	meter := provider.Meter(meterName)

	tokenRefresh, err := meter.Int64Counter("token_refresh_total",
		metric.WithDescription("Access token refresh exchanges by result"))
	if err != nil {
		return nil, fmt.Errorf("failed to create token_refresh_total: %w", err)
	}

	outreachRuns, err := meter.Int64Counter("outreach_runs_total",
		metric.WithDescription("Outreach pipeline runs by result"))
	if err != nil {
		return nil, fmt.Errorf("failed to create outreach_runs_total: %w", err)
	}

	outreachCandidates, err := meter.Int64Counter("outreach_candidates_total",
		metric.WithDescription("Candidates processed by the outreach pipeline by outcome"))
	if err != nil {
		return nil, fmt.Errorf("failed to create outreach_candidates_total: %w", err)
	}

	upstreamDuration, err := meter.Float64Histogram("upstream_request_duration_seconds",
		metric.WithDescription("Latency of calls to external collaborators"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("failed to create upstream_request_duration_seconds: %w", err)
	}

	return &Metrics{
		tokenRefresh:       tokenRefresh,
		outreachRuns:       outreachRuns,
		outreachCandidates: outreachCandidates,
		upstreamDuration:   upstreamDuration,
	}, nil
}

func (m *Metrics) TokenRefresh(ctx context.Context, result string) {
	if m == nil {
		return
	}
	m.tokenRefresh.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

func (m *Metrics) OutreachRun(ctx context.Context, result string) {
	if m == nil {
		return
	}
	m.outreachRuns.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

func (m *Metrics) OutreachCandidate(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.outreachCandidates.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// ObserveUpstream records the time since start for a collaborator call
func (m *Metrics) ObserveUpstream(ctx context.Context, collaborator string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.upstreamDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
		attribute.String("collaborator", collaborator),
		attribute.String("outcome", outcome),
	))
}
