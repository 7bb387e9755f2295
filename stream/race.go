package stream

import (
	"sync"
	"time"
)

// raceState tracks the coordinator through its lifecycle. States only move
// forward; an illegal notification in any state is dropped rather than
// re-checked against nulled containers.
type raceState uint8

const (
	raceCollecting raceState = iota // buffering candidates, nothing subscribed
	raceRacing                      // all candidates subscribed, no winner yet
	raceDecided                     // winner chosen, relaying its notifications
	raceTerminal                    // terminal forwarded or downstream canceled
)

// Race returns a producer that mirrors whichever candidate signals first.
//
// Every candidate is subscribed in argument order when the result is
// subscribed. The first notification of any kind — value, error, or
// completion — decides the race: every other candidate is unsubscribed
// before that notification is forwarded, and from then on only the winner's
// notifications flow downstream. Candidates that emit synchronously during
// Subscribe are therefore decided in argument order: the earliest one wins
// a same-instant tie, and later candidates are never attached.
//
// With no candidates the result completes immediately. With exactly one
// candidate the result is a direct pass-through to it; there is nothing to
// race, so no coordinator is built.
func Race[T any](candidates ...Producer[T]) Producer[T] {
	switch len(candidates) {
	case 0:
		return Empty[T]()
	case 1:
		single := candidates[0]
		return ProducerFunc[T](func(o Observer[T]) Subscription {
			return single.Subscribe(o)
		})
	}
	frozen := make([]Producer[T], len(candidates))
	copy(frozen, candidates)
	return ProducerFunc[T](func(o Observer[T]) Subscription {
		c := newRaceCoordinator(o, nil)
		sub := NewSubscription(c.cancel)
		for _, p := range frozen {
			c.add(p)
		}
		c.enumerationDone()
		return sub
	})
}

// RaceDecision describes how one race subscription settled.
type RaceDecision struct {
	// Slot is the winning candidate's slot, or -1 when no candidate decided
	// (empty set, enumeration failure, or downstream cancellation).
	Slot int
	// Kind is the kind of the deciding notification. Meaningful when a
	// candidate decided or the enumeration failed.
	Kind Kind
	// Empty reports that the candidate set was empty.
	Empty bool
	// Canceled reports that the downstream unsubscribed before a decision.
	Canceled bool
	// Elapsed is the time from subscribe to settlement.
	Elapsed time.Duration
}

// ObserveRace is Race with a settlement callback: fn is invoked exactly once
// per subscription, before the deciding notification is forwarded downstream.
// Unlike Race it builds the coordinator even for zero or one candidates, so
// every settlement is reported.
func ObserveRace[T any](fn func(RaceDecision), candidates ...Producer[T]) Producer[T] {
	frozen := make([]Producer[T], len(candidates))
	copy(frozen, candidates)
	return ProducerFunc[T](func(o Observer[T]) Subscription {
		c := newRaceCoordinator(o, fn)
		sub := NewSubscription(c.cancel)
		for _, p := range frozen {
			c.add(p)
		}
		c.enumerationDone()
		return sub
	})
}

// RaceFrom races the candidates enumerated by a higher-order stream: each
// value of sources is buffered as a candidate, and the race starts when
// sources completes. An error from sources before that point becomes the
// race's own failure.
//
// Candidate order, and with it the tie-break order, is the order sources
// emitted them.
func RaceFrom[T any](sources Producer[Producer[T]]) Producer[T] {
	return ProducerFunc[T](func(o Observer[T]) Subscription {
		c := newRaceCoordinator[T](o, nil)
		enumSub := sources.Subscribe(ObserverFunc[Producer[T]](func(n Notification[Producer[T]]) {
			switch n.Kind {
			case KindValue:
				c.add(n.Value)
			case KindError:
				c.abort(n.Err)
			case KindComplete:
				c.enumerationDone()
			}
		}))
		return NewSubscription(func() {
			enumSub.Unsubscribe()
			c.cancel()
		})
	})
}

// raceCoordinator owns one race invocation: the candidate set, the table of
// live subscriptions (indexed by slot), and the winner once decided. All
// transitions happen under mu; forwarding to the downstream observer happens
// outside it so a downstream reaction may safely unsubscribe the race.
type raceCoordinator[T any] struct {
	mu         sync.Mutex
	state      raceState
	down       Observer[T]
	candidates []Producer[T]
	subs       []Subscription // slot -> live handle; losers are nilled at decision
	winner     int
	hook       func(RaceDecision) // may be nil; called once at settlement
	start      time.Time
}

func newRaceCoordinator[T any](down Observer[T], hook func(RaceDecision)) *raceCoordinator[T] {
	return &raceCoordinator[T]{down: down, winner: -1, hook: hook, start: time.Now()}
}

// settle reports the settlement to the hook, if one is attached. Callers
// invoke it outside mu, at most once per coordinator.
func (r *raceCoordinator[T]) settle(d RaceDecision) {
	if r.hook == nil {
		return
	}
	d.Elapsed = time.Since(r.start)
	r.hook(d)
}

// add buffers a candidate while collecting, assigning it the next slot.
func (r *raceCoordinator[T]) add(p Producer[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != raceCollecting {
		return
	}
	r.candidates = append(r.candidates, p)
}

// abort terminates the race with err before any candidate was subscribed.
// Used when candidate enumeration itself fails.
func (r *raceCoordinator[T]) abort(err error) {
	r.mu.Lock()
	if r.state != raceCollecting {
		r.mu.Unlock()
		return
	}
	r.state = raceTerminal
	r.mu.Unlock()
	r.settle(RaceDecision{Slot: -1, Kind: KindError})
	r.down.Notify(Error[T](err))
}

// enumerationDone freezes the candidate set and starts the race. An empty
// set completes downstream immediately without subscribing to anything.
// Candidates are subscribed strictly in slot order; a candidate that decides
// the race synchronously during its own Subscribe stops the loop, so later
// slots are never attached.
func (r *raceCoordinator[T]) enumerationDone() {
	r.mu.Lock()
	if r.state != raceCollecting {
		r.mu.Unlock()
		return
	}
	if len(r.candidates) == 0 {
		r.state = raceTerminal
		r.mu.Unlock()
		r.settle(RaceDecision{Slot: -1, Empty: true})
		r.down.Notify(Complete[T]())
		return
	}
	r.state = raceRacing
	candidates := r.candidates
	r.subs = make([]Subscription, len(candidates))
	r.mu.Unlock()

	for slot, candidate := range candidates {
		r.mu.Lock()
		racing := r.state == raceRacing
		r.mu.Unlock()
		if !racing {
			return
		}
		sub := candidate.Subscribe(&slotObserver[T]{race: r, slot: slot})
		r.keep(slot, sub)
	}
}

// keep records slot's freshly created handle in the subscription table. If
// the slot lost the race — or the race ended — while its Subscribe call was
// still in flight, the handle is released on the spot instead.
func (r *raceCoordinator[T]) keep(slot int, sub Subscription) {
	r.mu.Lock()
	if r.state == raceRacing || (r.state == raceDecided && r.winner == slot) {
		r.subs[slot] = sub
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	sub.Unsubscribe()
}

// notify is the coordinator's single reaction point: one candidate's tagged
// notification, with the slot it came from.
func (r *raceCoordinator[T]) notify(slot int, n Notification[T]) {
	r.mu.Lock()
	switch r.state {
	case raceRacing:
		// First signal of any kind decides the race.
		r.state = raceDecided
		r.winner = slot
		var losers []Subscription
		for i, s := range r.subs {
			if i != slot && s != nil {
				losers = append(losers, s)
				r.subs[i] = nil
			}
		}
		winnerSub := r.terminalLocked(n)
		r.mu.Unlock()
		// Losers are released before the deciding notification is forwarded.
		for _, s := range losers {
			s.Unsubscribe()
		}
		r.settle(RaceDecision{Slot: slot, Kind: n.Kind})
		r.down.Notify(n)
		if winnerSub != nil {
			winnerSub.Unsubscribe()
		}
	case raceDecided:
		if slot != r.winner {
			r.mu.Unlock()
			return
		}
		winnerSub := r.terminalLocked(n)
		r.mu.Unlock()
		r.down.Notify(n)
		if winnerSub != nil {
			winnerSub.Unsubscribe()
		}
	default:
		// Collecting (nothing subscribed yet) or Terminal: nothing to relay.
		r.mu.Unlock()
	}
}

// terminalLocked moves to Terminal if n ends the stream, returning the
// winner's handle so the caller can release it after forwarding. Must be
// called with mu held, in state Racing (post-decision) or Decided.
func (r *raceCoordinator[T]) terminalLocked(n Notification[T]) Subscription {
	if !n.Terminal() {
		return nil
	}
	r.state = raceTerminal
	sub := r.subs[r.winner]
	r.subs = nil
	return sub
}

// cancel releases every live subscription and moves to Terminal without
// emitting anything. Safe to call in any state, any number of times.
func (r *raceCoordinator[T]) cancel() {
	r.mu.Lock()
	if r.state == raceTerminal {
		r.mu.Unlock()
		return
	}
	undecided := r.state == raceCollecting || r.state == raceRacing
	held := r.subs
	r.subs = nil
	r.state = raceTerminal
	r.mu.Unlock()
	for _, s := range held {
		if s != nil {
			s.Unsubscribe()
		}
	}
	if undecided {
		r.settle(RaceDecision{Slot: -1, Canceled: true})
	}
}

// slotObserver bridges one candidate's notifications back to the
// coordinator, tagged with the candidate's slot.
type slotObserver[T any] struct {
	race *raceCoordinator[T]
	slot int
}

func (s *slotObserver[T]) Notify(n Notification[T]) {
	s.race.notify(s.slot, n)
}
