// Package observability provides OpenTelemetry tracing and metrics
// integration for streamkit services.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("race-relay"))
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanRaceDecision)
//	defer span.End()
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("race-relay"))
//	defer mp.Shutdown(ctx)
//
//	sm, err := observability.NewStreamMetrics(observability.Meter("race-relay"))
//	sm.RecordDecision(ctx, "quotes", observability.OutcomeValue, 2, elapsed)
//
// Health Checks:
//
//	health := observability.NewServiceHealth("race-relay", "1.0.0")
//	for _, ch := range registry.HealthAll(ctx) {
//		health.AddComponent(observability.FromComponent(ch))
//	}
package observability
