package observability

import (
	"context"

	"github.com/kbukum/streamkit/stream"
)

// InstrumentedRace races candidates and records how the race settles on m:
// one race.decisions count and one race.decision.duration sample per
// subscription, labeled with streamName. Use it in place of stream.Race
// wherever decisions should be visible on the meter.
func InstrumentedRace[T any](m *StreamMetrics, streamName string, candidates ...stream.Producer[T]) stream.Producer[T] {
	if m == nil {
		return stream.Race(candidates...)
	}
	return stream.ObserveRace(func(d stream.RaceDecision) {
		m.RecordDecision(context.Background(), streamName, decisionOutcome(d), d.Slot, d.Elapsed)
	}, candidates...)
}

func decisionOutcome(d stream.RaceDecision) string {
	switch {
	case d.Empty:
		return OutcomeEmpty
	case d.Canceled:
		return OutcomeCanceled
	case d.Kind == stream.KindError:
		return OutcomeError
	case d.Kind == stream.KindComplete:
		return OutcomeComplete
	default:
		return OutcomeValue
	}
}
