package stream

import "sync"

// Kind discriminates the notification variants.
type Kind uint8

const (
	// KindValue carries an element of the stream.
	KindValue Kind = iota
	// KindError terminates the stream with a failure.
	KindError
	// KindComplete terminates the stream normally.
	KindComplete
)

// Notification is the tagged variant a producer delivers to its observer:
// zero or more values followed by exactly one error or completion.
type Notification[T any] struct {
	Kind  Kind
	Value T     // set when Kind == KindValue
	Err   error // set when Kind == KindError
}

// Terminal reports whether the notification ends the stream.
func (n Notification[T]) Terminal() bool {
	return n.Kind != KindValue
}

// Next builds a value notification.
func Next[T any](v T) Notification[T] {
	return Notification[T]{Kind: KindValue, Value: v}
}

// Error builds a failure notification.
func Error[T any](err error) Notification[T] {
	return Notification[T]{Kind: KindError, Err: err}
}

// Complete builds a completion notification.
func Complete[T any]() Notification[T] {
	return Notification[T]{Kind: KindComplete}
}

// Observer receives the notifications of one subscription.
type Observer[T any] interface {
	Notify(Notification[T])
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc[T any] func(Notification[T])

func (f ObserverFunc[T]) Notify(n Notification[T]) { f(n) }

// Producer is an asynchronous event producer. Subscribe attaches the
// observer and returns a handle that releases the attachment.
//
// A producer must deliver notifications for one subscription sequentially
// and must not deliver anything after a terminal notification.
type Producer[T any] interface {
	Subscribe(Observer[T]) Subscription
}

// ProducerFunc adapts a subscribe function to the Producer interface.
type ProducerFunc[T any] func(Observer[T]) Subscription

func (f ProducerFunc[T]) Subscribe(o Observer[T]) Subscription { return f(o) }

// Subscription releases one attachment to a producer. Unsubscribe is
// idempotent and safe to call after the stream has terminated.
type Subscription interface {
	Unsubscribe()
}

type subscription struct {
	once     sync.Once
	teardown func()
}

func (s *subscription) Unsubscribe() {
	s.once.Do(s.teardown)
}

// NewSubscription wraps a teardown function into an idempotent Subscription.
func NewSubscription(teardown func()) Subscription {
	return &subscription{teardown: teardown}
}

type nopSubscription struct{}

func (nopSubscription) Unsubscribe() {}

// NopSubscription returns a subscription with no resources to release.
func NopSubscription() Subscription { return nopSubscription{} }

// gate enforces the producer contract on behalf of a source: it forwards
// notifications downstream until a terminal is delivered or the
// subscription is released, then drops everything.
type gate[T any] struct {
	mu   sync.Mutex
	down Observer[T]
	done bool
}

func newGate[T any](down Observer[T]) *gate[T] {
	return &gate[T]{down: down}
}

func (g *gate[T]) Notify(n Notification[T]) {
	g.mu.Lock()
	if g.done {
		g.mu.Unlock()
		return
	}
	if n.Terminal() {
		g.done = true
	}
	g.mu.Unlock()
	g.down.Notify(n)
}

func (g *gate[T]) close() {
	g.mu.Lock()
	g.done = true
	g.mu.Unlock()
}
