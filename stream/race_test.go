package stream

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// recorder captures every notification it receives.
type recorder[T any] struct {
	mu    sync.Mutex
	notes []Notification[T]
}

func (r *recorder[T]) Notify(n Notification[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
}

func (r *recorder[T]) snapshot() []Notification[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification[T], len(r.notes))
	copy(out, r.notes)
	return out
}

// manual is a producer driven explicitly by the test. Emissions after
// unsubscribe are dropped, mirroring a well-behaved source.
type manual[T any] struct {
	mu           sync.Mutex
	obs          Observer[T]
	subscribed   int
	unsubscribed int
}

func (m *manual[T]) Subscribe(o Observer[T]) Subscription {
	m.mu.Lock()
	m.obs = o
	m.subscribed++
	m.mu.Unlock()
	return NewSubscription(func() {
		m.mu.Lock()
		m.obs = nil
		m.unsubscribed++
		m.mu.Unlock()
	})
}

func (m *manual[T]) emit(n Notification[T]) {
	m.mu.Lock()
	o := m.obs
	m.mu.Unlock()
	if o != nil {
		o.Notify(n)
	}
}

func (m *manual[T]) counts() (subscribed, unsubscribed int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subscribed, m.unsubscribed
}

// tally wraps a producer and counts subscribe/unsubscribe traffic.
type tally[T any] struct {
	inner        Producer[T]
	mu           sync.Mutex
	subscribes   int
	unsubscribes int
}

func (p *tally[T]) Subscribe(o Observer[T]) Subscription {
	p.mu.Lock()
	p.subscribes++
	p.mu.Unlock()
	inner := p.inner.Subscribe(o)
	return NewSubscription(func() {
		p.mu.Lock()
		p.unsubscribes++
		p.mu.Unlock()
		inner.Unsubscribe()
	})
}

func (p *tally[T]) counts() (subscribes, unsubscribes int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.subscribes, p.unsubscribes
}

// waitFor polls cond until it holds or the deadline passes. Final assertions
// still run after it returns, so a timeout only surfaces slower.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
}

func wantNotes[T comparable](t *testing.T, got []Notification[T], want []Notification[T]) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d notifications, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i].Kind != want[i].Kind || got[i].Value != want[i].Value || !errors.Is(got[i].Err, want[i].Err) {
			t.Errorf("notification %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestRace_FirstEmitterWins(t *testing.T) {
	a := &manual[int]{}
	b := &manual[int]{}
	rec := &recorder[int]{}

	Race[int](a, b).Subscribe(rec)

	a.emit(Next(1))

	// The loser is released the instant the winner is decided.
	if _, unsub := b.counts(); unsub != 1 {
		t.Fatalf("loser unsubscribed %d times, want 1", unsub)
	}
	a.emit(Complete[int]())

	wantNotes(t, rec.snapshot(), []Notification[int]{Next(1), Complete[int]()})
	if _, unsub := a.counts(); unsub != 1 {
		t.Errorf("winner released %d times after completion, want 1", unsub)
	}
}

func TestRace_TieBreakSlotOrder(t *testing.T) {
	a := FromSlice([]int{1})
	b := FromSlice([]int{2})

	got, err := Collect(context.Background(), Race(a, b))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != 1 {
		t.Errorf("Race(a, b) = %v, want [1]", got)
	}

	got, err = Collect(context.Background(), Race(b, a))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != 2 {
		t.Errorf("Race(b, a) = %v, want [2]", got)
	}
}

func TestRace_SynchronousWinnerSkipsLaterSlots(t *testing.T) {
	fast := FromSlice([]int{1})
	late := &tally[int]{inner: Never[int]()}

	rec := &recorder[int]{}
	Race[int](fast, late, late).Subscribe(rec)

	if subs, _ := late.counts(); subs != 0 {
		t.Errorf("later slots subscribed %d times after synchronous decision, want 0", subs)
	}
	wantNotes(t, rec.snapshot(), []Notification[int]{Next(1), Complete[int]()})
}

func TestRace_Empty(t *testing.T) {
	rec := &recorder[int]{}
	Race[int]().Subscribe(rec)
	wantNotes(t, rec.snapshot(), []Notification[int]{Complete[int]()})

	got, err := Collect(context.Background(), Race[int]())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("empty race emitted %v", got)
	}
}

func TestRace_SingleCandidatePassThrough(t *testing.T) {
	src := &tally[int]{inner: FromSlice([]int{1, 2, 3})}

	got, err := Collect(context.Background(), Race[int](src))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Errorf("got %v, want [1 2 3]", got)
	}
	if subs, _ := src.counts(); subs != 1 {
		t.Errorf("single candidate subscribed %d times, want 1", subs)
	}
}

func TestRace_FailureDecides(t *testing.T) {
	errBoom := errors.New("boom")

	t.Run("synchronous failure", func(t *testing.T) {
		b := &tally[int]{inner: Never[int]()}
		rec := &recorder[int]{}
		Race[int](Failed[int](errBoom), b).Subscribe(rec)

		wantNotes(t, rec.snapshot(), []Notification[int]{Error[int](errBoom)})
		if subs, _ := b.counts(); subs != 0 {
			t.Errorf("loser subscribed %d times, want 0", subs)
		}
	})

	t.Run("failure after racing started", func(t *testing.T) {
		a := &manual[int]{}
		b := &manual[int]{}
		rec := &recorder[int]{}
		Race[int](a, b).Subscribe(rec)

		a.emit(Error[int](errBoom))

		wantNotes(t, rec.snapshot(), []Notification[int]{Error[int](errBoom)})
		if _, unsub := b.counts(); unsub != 1 {
			t.Errorf("loser unsubscribed %d times, want 1", unsub)
		}
	})
}

func TestRace_CompletionDecides(t *testing.T) {
	a := &manual[int]{}
	b := &manual[int]{}
	rec := &recorder[int]{}
	Race[int](a, b).Subscribe(rec)

	b.emit(Complete[int]())

	wantNotes(t, rec.snapshot(), []Notification[int]{Complete[int]()})
	if _, unsub := a.counts(); unsub != 1 {
		t.Errorf("loser unsubscribed %d times, want 1", unsub)
	}
	if _, unsub := b.counts(); unsub != 1 {
		t.Errorf("winner released %d times after completion, want 1", unsub)
	}
}

func TestRace_CancelBeforeDecisionReleasesAll(t *testing.T) {
	a := &manual[int]{}
	b := &manual[int]{}
	c := &manual[int]{}
	rec := &recorder[int]{}

	sub := Race[int](a, b, c).Subscribe(rec)
	sub.Unsubscribe()

	for i, m := range []*manual[int]{a, b, c} {
		if _, unsub := m.counts(); unsub != 1 {
			t.Errorf("candidate %d unsubscribed %d times, want 1", i, unsub)
		}
	}

	a.emit(Next(1))
	if notes := rec.snapshot(); len(notes) != 0 {
		t.Errorf("canceled race forwarded %+v", notes)
	}
}

func TestRace_CancelAfterDecisionReleasesWinner(t *testing.T) {
	a := &manual[int]{}
	b := &manual[int]{}
	rec := &recorder[int]{}

	sub := Race[int](a, b).Subscribe(rec)
	a.emit(Next(1))
	sub.Unsubscribe()

	if _, unsub := a.counts(); unsub != 1 {
		t.Errorf("winner unsubscribed %d times, want 1", unsub)
	}
	a.emit(Next(2))
	wantNotes(t, rec.snapshot(), []Notification[int]{Next(1)})
}

func TestRace_UnsubscribeIdempotent(t *testing.T) {
	a := &manual[int]{}
	b := &manual[int]{}
	rec := &recorder[int]{}

	sub := Race[int](a, b).Subscribe(rec)
	a.emit(Next(1))
	a.emit(Complete[int]())

	// Already terminated; repeated cancellation must be a no-op.
	sub.Unsubscribe()
	sub.Unsubscribe()

	if _, unsub := a.counts(); unsub != 1 {
		t.Errorf("winner unsubscribed %d times, want 1", unsub)
	}
	wantNotes(t, rec.snapshot(), []Notification[int]{Next(1), Complete[int]()})
}

func TestRace_WinnerRelaysEverything(t *testing.T) {
	a := &manual[int]{}
	b := &manual[int]{}
	rec := &recorder[int]{}
	Race[int](a, b).Subscribe(rec)

	a.emit(Next(1))
	a.emit(Next(2))
	a.emit(Next(3))
	a.emit(Complete[int]())

	wantNotes(t, rec.snapshot(), []Notification[int]{
		Next(1), Next(2), Next(3), Complete[int](),
	})
}

func TestRace_Timers(t *testing.T) {
	slow := After(200*time.Millisecond, 1)
	fast := After(10*time.Millisecond, 2)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got, err := Collect(ctx, Race(slow, fast))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != 2 {
		t.Errorf("got %v, want [2]", got)
	}
}

func TestRaceFrom_EnumeratedCandidates(t *testing.T) {
	a := FromSlice([]string{"a"})
	b := FromSlice([]string{"b"})

	got, err := Collect(context.Background(), RaceFrom(FromSlice([]Producer[string]{a, b})))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != "a" {
		t.Errorf("got %v, want [a]", got)
	}
}

func TestRaceFrom_EmptyEnumeration(t *testing.T) {
	got, err := Collect(context.Background(), RaceFrom(Empty[Producer[int]]()))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("got %v, want no values", got)
	}
}

func TestRaceFrom_EnumerationFailure(t *testing.T) {
	errBad := errors.New("bad candidate")
	inner := &tally[int]{inner: Never[int]()}

	enum := ProducerFunc[Producer[int]](func(o Observer[Producer[int]]) Subscription {
		o.Notify(Next[Producer[int]](inner))
		o.Notify(Error[Producer[int]](errBad))
		return NopSubscription()
	})

	rec := &recorder[int]{}
	RaceFrom(enum).Subscribe(rec)

	wantNotes(t, rec.snapshot(), []Notification[int]{Error[int](errBad)})
	if subs, _ := inner.counts(); subs != 0 {
		t.Errorf("buffered candidate subscribed %d times before enumeration completed, want 0", subs)
	}
}

// misbehaving ignores unsubscription and keeps a reference to its observer,
// emitting on demand. Used to confirm the coordinator drops loser signals
// even if a loser's source fails to honor the release.
type misbehaving[T any] struct {
	mu  sync.Mutex
	obs Observer[T]
}

func (m *misbehaving[T]) Subscribe(o Observer[T]) Subscription {
	m.mu.Lock()
	m.obs = o
	m.mu.Unlock()
	return NopSubscription()
}

func (m *misbehaving[T]) emit(n Notification[T]) {
	m.mu.Lock()
	o := m.obs
	m.mu.Unlock()
	if o != nil {
		o.Notify(n)
	}
}

func TestRace_LateLoserSignalsDropped(t *testing.T) {
	a := &manual[int]{}
	b := &misbehaving[int]{}
	rec := &recorder[int]{}
	Race[int](a, b).Subscribe(rec)

	a.emit(Next(1))
	b.emit(Next(99))
	b.emit(Error[int](errors.New("late")))
	a.emit(Complete[int]())

	wantNotes(t, rec.snapshot(), []Notification[int]{Next(1), Complete[int]()})
}

func TestRace_ConcurrentCandidates(t *testing.T) {
	// Many goroutine-backed candidates racing at once: exactly one wins,
	// exactly one value comes out, every candidate ends up released.
	const n = 16
	candidates := make([]Producer[int], n)
	tallies := make([]*tally[int], n)
	for i := range n {
		i := i
		tallies[i] = &tally[int]{inner: Eventual(func(ctx context.Context) (int, error) {
			select {
			case <-time.After(time.Duration(i%4) * time.Millisecond):
				return i, nil
			case <-ctx.Done():
				return 0, ctx.Err()
			}
		})}
		candidates[i] = tallies[i]
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got, err := Collect(ctx, Race(candidates...))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d values, want exactly 1: %v", len(got), got)
	}

	// A candidate may decide the race before later slots are reached, so a
	// slot is attached at most once. The winner's own release happens after
	// the terminal is forwarded, so poll briefly instead of asserting
	// immediately.
	waitFor(t, time.Second, func() bool {
		for _, p := range tallies {
			subs, unsubs := p.counts()
			if subs > 1 || unsubs != subs {
				return false
			}
		}
		return true
	})
	for i, p := range tallies {
		subs, unsubs := p.counts()
		if subs > 1 {
			t.Errorf("candidate %d subscribed %d times, want at most 1", i, subs)
		}
		if unsubs != subs {
			t.Errorf("candidate %d: %d subscribes but %d releases", i, subs, unsubs)
		}
	}
}

func TestObserveRace_ReportsWinner(t *testing.T) {
	var (
		mu      sync.Mutex
		settled []RaceDecision
	)
	record := func(d RaceDecision) {
		mu.Lock()
		settled = append(settled, d)
		mu.Unlock()
	}

	raced := ObserveRace(record, Never[int](), FromSlice([]int{7}))
	got, err := Collect(context.Background(), raced)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != 7 {
		t.Fatalf("got %v, want [7]", got)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(settled) != 1 {
		t.Fatalf("settled %d times, want exactly 1: %+v", len(settled), settled)
	}
	d := settled[0]
	if d.Slot != 1 || d.Kind != KindValue || d.Empty || d.Canceled {
		t.Errorf("decision %+v, want slot 1 value", d)
	}
	if d.Elapsed < 0 {
		t.Errorf("negative elapsed %v", d.Elapsed)
	}
}

func TestObserveRace_EmptySet(t *testing.T) {
	var (
		mu      sync.Mutex
		settled []RaceDecision
	)
	rec := &recorder[int]{}
	ObserveRace[int](func(d RaceDecision) {
		mu.Lock()
		settled = append(settled, d)
		mu.Unlock()
	}).Subscribe(rec)

	wantNotes(t, rec.snapshot(), []Notification[int]{Complete[int]()})
	mu.Lock()
	defer mu.Unlock()
	if len(settled) != 1 || !settled[0].Empty || settled[0].Slot != -1 {
		t.Errorf("settled %+v, want one empty decision", settled)
	}
}

func TestObserveRace_CanceledBeforeDecision(t *testing.T) {
	var (
		mu      sync.Mutex
		settled []RaceDecision
	)
	sub := ObserveRace(func(d RaceDecision) {
		mu.Lock()
		settled = append(settled, d)
		mu.Unlock()
	}, Never[int](), Never[int]()).Subscribe(&recorder[int]{})

	sub.Unsubscribe()
	sub.Unsubscribe()

	mu.Lock()
	defer mu.Unlock()
	if len(settled) != 1 || !settled[0].Canceled || settled[0].Slot != -1 {
		t.Errorf("settled %+v, want one canceled decision", settled)
	}
}

func TestObserveRace_FailureDecision(t *testing.T) {
	errBoom := errors.New("boom")
	var (
		mu      sync.Mutex
		settled []RaceDecision
	)
	_, err := Collect(context.Background(), ObserveRace(func(d RaceDecision) {
		mu.Lock()
		settled = append(settled, d)
		mu.Unlock()
	}, Failed[int](errBoom), Never[int]()))
	if !errors.Is(err, errBoom) {
		t.Fatalf("got %v, want %v", err, errBoom)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(settled) != 1 || settled[0].Slot != 0 || settled[0].Kind != KindError {
		t.Errorf("settled %+v, want one slot-0 error decision", settled)
	}
}
