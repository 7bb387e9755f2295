package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/kbukum/streamkit/component"
	"github.com/kbukum/streamkit/errors"
	"github.com/kbukum/streamkit/logger"
	"github.com/kbukum/streamkit/observability"
	"github.com/kbukum/streamkit/stream"
)

// Event is the JSON envelope the relay broadcasts for each notification.
// Type is "value", "error", or "complete".
type Event struct {
	Type   string            `json:"type"`
	Stream string            `json:"stream"`
	Data   json.RawMessage   `json:"data,omitempty"`
	Error  *errors.ErrorBody `json:"error,omitempty"`
}

// Relay publishes one byte stream to SSE clients. On Start it subscribes
// the producer; every notification is wrapped in an Event envelope and
// broadcast to clients whose IDs match "<stream>:*". The subscription is
// released on Stop, or implicitly when the stream terminates.
type Relay struct {
	streamName  string
	source      stream.Producer[[]byte]
	broadcaster Broadcaster
	metrics     *observability.StreamMetrics

	mu         sync.Mutex
	sub        stream.Subscription
	started    bool
	terminated bool
	failure    error
}

var (
	_ component.Component   = (*Relay)(nil)
	_ component.Describable = (*Relay)(nil)
)

// NewRelay creates a relay for the named stream. Metrics may be nil.
func NewRelay(streamName string, source stream.Producer[[]byte], b Broadcaster, metrics *observability.StreamMetrics) *Relay {
	return &Relay{
		streamName:  streamName,
		source:      source,
		broadcaster: b,
		metrics:     metrics,
	}
}

// StreamName returns the name of the published stream.
func (r *Relay) StreamName() string { return r.streamName }

// Name returns the component name.
func (r *Relay) Name() string { return "relay:" + r.streamName }

// Start subscribes the source stream and begins forwarding notifications.
func (r *Relay) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return fmt.Errorf("relay %s already started", r.streamName)
	}
	r.started = true
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.SubscriptionOpened(ctx)
	}

	// Subscribe outside the lock: the source may emit synchronously and
	// forward() takes r.mu on terminal notifications.
	sub := r.source.Subscribe(stream.ObserverFunc[[]byte](func(n stream.Notification[[]byte]) {
		r.forward(ctx, n)
	}))

	r.mu.Lock()
	if !r.started {
		// Stopped while the subscription was being established.
		r.mu.Unlock()
		sub.Unsubscribe()
		return nil
	}
	r.sub = sub
	r.mu.Unlock()

	logger.Info("[SSE_RELAY] Stream relay started", logger.Fields(
		logger.FieldStream, r.streamName,
	))
	return nil
}

// Stop releases the stream subscription. Safe to call after termination.
func (r *Relay) Stop(ctx context.Context) error {
	r.mu.Lock()
	sub := r.sub
	r.sub = nil
	wasStarted := r.started
	r.started = false
	r.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
	if wasStarted && r.metrics != nil {
		r.metrics.SubscriptionClosed(ctx)
	}

	logger.Info("[SSE_RELAY] Stream relay stopped", logger.Fields(
		logger.FieldStream, r.streamName,
	))
	return nil
}

// Health reports healthy while the stream is live, degraded after normal
// completion, and unhealthy after a stream failure.
func (r *Relay) Health(_ context.Context) component.Health {
	r.mu.Lock()
	defer r.mu.Unlock()

	h := component.Health{Name: r.Name(), Status: component.StatusHealthy}
	switch {
	case r.failure != nil:
		h.Status = component.StatusUnhealthy
		h.Message = r.failure.Error()
	case r.terminated:
		h.Status = component.StatusDegraded
		h.Message = "stream completed"
	case !r.started:
		h.Status = component.StatusDegraded
		h.Message = "not started"
	}
	return h
}

// Describe returns infrastructure summary info for the startup display.
func (r *Relay) Describe() component.Description {
	return component.Description{
		Name:    "Stream Relay",
		Type:    "relay",
		Details: fmt.Sprintf("stream=%s pattern=%s:*", r.streamName, r.streamName),
	}
}

// forward translates one notification into an SSE broadcast.
// Called from the producer's delivery goroutine, possibly synchronously
// from inside Subscribe.
func (r *Relay) forward(ctx context.Context, n stream.Notification[[]byte]) {
	ev := Event{Stream: r.streamName}

	switch n.Kind {
	case stream.KindValue:
		ev.Type = EventTypeMessage
		ev.Data = json.RawMessage(n.Value)
		if !json.Valid(n.Value) {
			// Non-JSON payloads are re-encoded as a JSON string.
			quoted, err := json.Marshal(string(n.Value))
			if err == nil {
				ev.Data = quoted
			}
		}
		if r.metrics != nil {
			r.metrics.RecordNotification(ctx, r.streamName, observability.OutcomeValue)
		}

	case stream.KindError:
		ev.Type = EventTypeError
		if appErr, ok := errors.AsAppError(n.Err); ok {
			body := appErr.ToResponse().Error
			ev.Error = &body
		} else {
			body := errors.Internal(n.Err).ToResponse().Error
			ev.Error = &body
		}
		r.markTerminal(n.Err)
		if r.metrics != nil {
			r.metrics.RecordNotification(ctx, r.streamName, observability.OutcomeError)
		}

	case stream.KindComplete:
		ev.Type = EventTypeComplete
		r.markTerminal(nil)
		if r.metrics != nil {
			r.metrics.RecordNotification(ctx, r.streamName, observability.OutcomeComplete)
		}
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		logger.Error("[SSE_RELAY] Event encoding failed", logger.Fields(
			logger.FieldStream, r.streamName,
			logger.FieldError, err.Error(),
		))
		return
	}

	r.broadcaster.BroadcastToPattern(r.streamName+":*", payload)
}

func (r *Relay) markTerminal(err error) {
	r.mu.Lock()
	r.terminated = true
	r.failure = err
	r.mu.Unlock()
}
