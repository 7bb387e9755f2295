package stream

import (
	"context"
	"fmt"
	"time"
)

// FromSlice emits each element synchronously during Subscribe, then completes.
func FromSlice[T any](items []T) Producer[T] {
	return ProducerFunc[T](func(o Observer[T]) Subscription {
		g := newGate(o)
		sub := NewSubscription(g.close)
		for _, v := range items {
			g.Notify(Next(v))
		}
		g.Notify(Complete[T]())
		return sub
	})
}

// Just emits a single value synchronously, then completes.
func Just[T any](v T) Producer[T] {
	return FromSlice([]T{v})
}

// Empty completes immediately with no values.
func Empty[T any]() Producer[T] {
	return ProducerFunc[T](func(o Observer[T]) Subscription {
		o.Notify(Complete[T]())
		return NopSubscription()
	})
}

// Failed fails immediately with err.
func Failed[T any](err error) Producer[T] {
	return ProducerFunc[T](func(o Observer[T]) Subscription {
		o.Notify(Error[T](err))
		return NopSubscription()
	})
}

// Never emits nothing and never terminates.
func Never[T any]() Producer[T] {
	return ProducerFunc[T](func(Observer[T]) Subscription {
		return NopSubscription()
	})
}

// FromChannel emits every value received from ch until ch is closed, then
// completes. Values are delivered from a background goroutine; unsubscribing
// stops delivery and releases the goroutine.
func FromChannel[T any](ch <-chan T) Producer[T] {
	return ProducerFunc[T](func(o Observer[T]) Subscription {
		g := newGate(o)
		stop := make(chan struct{})
		sub := NewSubscription(func() {
			g.close()
			close(stop)
		})
		go func() {
			for {
				select {
				case v, open := <-ch:
					if !open {
						g.Notify(Complete[T]())
						return
					}
					g.Notify(Next(v))
				case <-stop:
					return
				}
			}
		}()
		return sub
	})
}

// Eventual adapts a deferred single value: fn runs in a background goroutine
// per subscription, and its result is emitted followed by completion, or its
// error is emitted as the terminal failure. Unsubscribing cancels fn's context.
func Eventual[T any](fn func(context.Context) (T, error)) Producer[T] {
	return ProducerFunc[T](func(o Observer[T]) Subscription {
		g := newGate(o)
		ctx, cancel := context.WithCancel(context.Background())
		sub := NewSubscription(func() {
			g.close()
			cancel()
		})
		go func() {
			defer cancel()
			v, err := fn(ctx)
			if err != nil {
				g.Notify(Error[T](err))
				return
			}
			g.Notify(Next(v))
			g.Notify(Complete[T]())
		}()
		return sub
	})
}

// After emits v once d has elapsed, then completes. Unsubscribing before the
// delay fires stops the timer.
func After[T any](d time.Duration, v T) Producer[T] {
	return ProducerFunc[T](func(o Observer[T]) Subscription {
		g := newGate(o)
		timer := time.AfterFunc(d, func() {
			g.Notify(Next(v))
			g.Notify(Complete[T]())
		})
		return NewSubscription(func() {
			g.close()
			timer.Stop()
		})
	})
}

// Defer runs the factory at subscribe time and subscribes to its result.
// A factory error or panic surfaces as the stream's terminal failure, so
// adaptation failures propagate the same way as a candidate failing outright.
func Defer[T any](factory func() (Producer[T], error)) Producer[T] {
	return ProducerFunc[T](func(o Observer[T]) Subscription {
		p, err := runFactory(factory)
		if err != nil {
			o.Notify(Error[T](err))
			return NopSubscription()
		}
		return p.Subscribe(o)
	})
}

func runFactory[T any](factory func() (Producer[T], error)) (p Producer[T], err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("producer adaptation panicked: %v", rec)
		}
	}()
	return factory()
}
