package stream

import "context"

// Collect subscribes to p and blocks until the stream terminates or ctx is
// canceled, returning every value received. On failure the values received
// before the failure are returned alongside the error.
func Collect[T any](ctx context.Context, p Producer[T]) ([]T, error) {
	var out []T
	err := ForEach(ctx, p, func(v T) error {
		out = append(out, v)
		return nil
	})
	return out, err
}

// ForEach subscribes to p and calls fn for each value, blocking until the
// stream terminates, fn returns an error, or ctx is canceled. The
// subscription is released before ForEach returns.
func ForEach[T any](ctx context.Context, p Producer[T], fn func(T) error) error {
	ch := make(chan Notification[T])
	done := make(chan struct{})

	// Subscribe on a separate goroutine so producers that emit synchronously
	// during Subscribe hand their notifications to the loop below instead of
	// deadlocking against it.
	var sub Subscription
	subscribed := make(chan struct{})
	go func() {
		defer close(subscribed)
		sub = p.Subscribe(ObserverFunc[T](func(n Notification[T]) {
			select {
			case ch <- n:
			case <-done:
			}
		}))
	}()
	defer func() {
		close(done)
		<-subscribed
		sub.Unsubscribe()
	}()

	for {
		select {
		case n := <-ch:
			switch n.Kind {
			case KindValue:
				if err := fn(n.Value); err != nil {
					return err
				}
			case KindError:
				return n.Err
			case KindComplete:
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
