package stream

import "sync"

// Map transforms each value using fn. A transform error terminates the
// stream with that error.
func Map[I, O any](p Producer[I], fn func(I) (O, error)) Producer[O] {
	return ProducerFunc[O](func(o Observer[O]) Subscription {
		g := newGate(o)
		up := p.Subscribe(ObserverFunc[I](func(n Notification[I]) {
			switch n.Kind {
			case KindValue:
				v, err := fn(n.Value)
				if err != nil {
					g.Notify(Error[O](err))
					return
				}
				g.Notify(Next(v))
			case KindError:
				g.Notify(Error[O](n.Err))
			case KindComplete:
				g.Notify(Complete[O]())
			}
		}))
		return NewSubscription(func() {
			g.close()
			up.Unsubscribe()
		})
	})
}

// Filter keeps only values that satisfy the predicate.
func Filter[T any](p Producer[T], fn func(T) bool) Producer[T] {
	return ProducerFunc[T](func(o Observer[T]) Subscription {
		g := newGate(o)
		up := p.Subscribe(ObserverFunc[T](func(n Notification[T]) {
			if n.Kind == KindValue && !fn(n.Value) {
				return
			}
			g.Notify(n)
		}))
		return NewSubscription(func() {
			g.close()
			up.Unsubscribe()
		})
	})
}

// Tap calls fn as a side-effect for each value, then passes the value
// through unchanged. Use for logging, metrics, or mid-stream publishing.
func Tap[T any](p Producer[T], fn func(T)) Producer[T] {
	return ProducerFunc[T](func(o Observer[T]) Subscription {
		g := newGate(o)
		up := p.Subscribe(ObserverFunc[T](func(n Notification[T]) {
			if n.Kind == KindValue {
				fn(n.Value)
			}
			g.Notify(n)
		}))
		return NewSubscription(func() {
			g.close()
			up.Unsubscribe()
		})
	})
}

// Take forwards the first count values, then completes and releases the
// upstream subscription.
func Take[T any](p Producer[T], count int) Producer[T] {
	if count <= 0 {
		return Empty[T]()
	}
	return ProducerFunc[T](func(o Observer[T]) Subscription {
		g := newGate(o)
		var (
			mu        sync.Mutex
			remaining = count
			exhausted bool
			upSub     Subscription
		)
		up := p.Subscribe(ObserverFunc[T](func(n Notification[T]) {
			if n.Terminal() {
				g.Notify(n)
				return
			}
			mu.Lock()
			if remaining == 0 {
				mu.Unlock()
				return
			}
			remaining--
			last := remaining == 0
			exhausted = exhausted || last
			mu.Unlock()
			g.Notify(n)
			if last {
				g.Notify(Complete[T]())
				// The count-th value may arrive after Subscribe returned;
				// release the upstream handle if it has been recorded. For
				// synchronous emitters the handle is still nil here and the
				// post-subscribe check below releases it instead.
				mu.Lock()
				sub := upSub
				mu.Unlock()
				if sub != nil {
					sub.Unsubscribe()
				}
			}
		}))
		mu.Lock()
		done := exhausted
		if !done {
			upSub = up
		}
		mu.Unlock()
		if done {
			up.Unsubscribe()
			return NopSubscription()
		}
		return NewSubscription(func() {
			g.close()
			up.Unsubscribe()
		})
	})
}
