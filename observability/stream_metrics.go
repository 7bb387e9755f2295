package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Race outcomes recorded on race.decisions.
const (
	OutcomeValue    = "value"
	OutcomeError    = "error"
	OutcomeComplete = "complete"
	OutcomeEmpty    = "empty"
	OutcomeCanceled = "canceled"
)

// StreamMetrics holds OpenTelemetry instruments for stream and race
// observability: notification throughput, race decisions, and the number
// of live subscriptions and relay clients.
type StreamMetrics struct {
	notificationTotal   metric.Int64Counter
	decisionTotal       metric.Int64Counter
	decisionDuration    metric.Float64Histogram
	subscriptionsActive metric.Int64UpDownCounter
	relayClientsActive  metric.Int64UpDownCounter
}

// NewStreamMetrics creates stream-level metric instruments on the given meter.
func NewStreamMetrics(meter metric.Meter) (*StreamMetrics, error) {
	notificationTotal, err := meter.Int64Counter("stream.notifications",
		metric.WithDescription("Total notifications forwarded downstream, by kind"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stream.notifications counter: %w", err)
	}

	decisionTotal, err := meter.Int64Counter("race.decisions",
		metric.WithDescription("Total race decisions, by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating race.decisions counter: %w", err)
	}

	decisionDuration, err := meter.Float64Histogram("race.decision.duration",
		metric.WithDescription("Time from subscribe to first decisive notification in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating race.decision.duration histogram: %w", err)
	}

	subscriptionsActive, err := meter.Int64UpDownCounter("stream.subscriptions.active",
		metric.WithDescription("Number of currently active subscriptions"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stream.subscriptions.active gauge: %w", err)
	}

	relayClientsActive, err := meter.Int64UpDownCounter("relay.clients.active",
		metric.WithDescription("Number of currently connected relay clients"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating relay.clients.active gauge: %w", err)
	}

	return &StreamMetrics{
		notificationTotal:   notificationTotal,
		decisionTotal:       decisionTotal,
		decisionDuration:    decisionDuration,
		subscriptionsActive: subscriptionsActive,
		relayClientsActive:  relayClientsActive,
	}, nil
}

// RecordNotification counts one forwarded notification.
// Kind is "value", "error", or "complete".
func (m *StreamMetrics) RecordNotification(ctx context.Context, streamName, kind string) {
	m.notificationTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("stream", streamName),
		attribute.String("kind", kind),
	))
}

// RecordDecision records a settled race: which outcome decided it, the
// winning slot, and how long the field stayed open.
func (m *StreamMetrics) RecordDecision(ctx context.Context, streamName, outcome string, winnerSlot int, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("stream", streamName),
		attribute.String("outcome", outcome),
		attribute.Int("winner_slot", winnerSlot),
	)
	m.decisionTotal.Add(ctx, 1, attrs)
	m.decisionDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("stream", streamName),
		attribute.String("outcome", outcome),
	))
}

// SubscriptionOpened increments the active subscription gauge.
func (m *StreamMetrics) SubscriptionOpened(ctx context.Context) {
	m.subscriptionsActive.Add(ctx, 1)
}

// SubscriptionClosed decrements the active subscription gauge.
func (m *StreamMetrics) SubscriptionClosed(ctx context.Context) {
	m.subscriptionsActive.Add(ctx, -1)
}

// ClientConnected increments the relay client gauge.
func (m *StreamMetrics) ClientConnected(ctx context.Context) {
	m.relayClientsActive.Add(ctx, 1)
}

// ClientDisconnected decrements the relay client gauge.
func (m *StreamMetrics) ClientDisconnected(ctx context.Context) {
	m.relayClientsActive.Add(ctx, -1)
}
