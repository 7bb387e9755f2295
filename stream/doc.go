// Package stream provides composable, push-based event producers.
//
// A Producer delivers zero or more values followed by exactly one terminal
// signal (completion or error) to each subscribed Observer, as a tagged
// Notification through a single callback. Subscriptions are explicit handles;
// releasing one is idempotent and stops delivery.
//
// # Sources
//
//   - FromSlice / Just / Empty: synchronous emission at subscribe time
//   - Failed / Never: immediate failure, or silence
//   - FromChannel: bridge a Go channel into a producer
//   - Eventual: a deferred single value (promise-like inputs)
//   - After: a single value on a timer
//   - Defer: subscribe-time adaptation, with factory errors surfacing as
//     stream failures
//
// # Operators
//
//   - Map: transform each value
//   - Filter: keep values matching a predicate
//   - Tap: side-effect without altering the value
//   - Take: forward the first n values, then complete
//   - Race / RaceFrom: first candidate to signal anything wins; every other
//     candidate is unsubscribed the instant a winner is decided
//
// # Terminals
//
//   - Collect: block and gather all values
//   - ForEach: block and hand each value to a callback
//
// # Usage
//
//	primary := stream.Eventual(fetchFromPrimary)
//	replica := stream.Eventual(fetchFromReplica)
//	fastest := stream.Race(primary, replica)
//	results, err := stream.Collect(ctx, fastest)
//
// Producers must deliver the notifications of one subscription sequentially;
// the package adds no scheduler or backpressure protocol of its own.
package stream
