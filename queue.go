// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package combine

// Queue is a batched combiner feeding a Batcher.
//
// Each value submitted is passed to Batcher.Do by the current combiner, in
// arrival order. Start and Finish bracket every batch: a run of elements
// the combiner drained without running out of known successors. This is
// useful when the per-element work is cheap but the per-batch work is not,
// e.g. appending records to a file and syncing once per batch.
//
// With WaitForCompletion, a call returns after Batcher.Do ran for its
// value; Finish of that batch may still be pending.
type Queue[T any] struct {
	core    engine[T]
	batcher Batcher[T]
}

// NewQueue creates a batched combiner with DefaultCapacity nodes.
//
// Panics if batcher is nil.
func NewQueue[T any](batcher Batcher[T]) *Queue[T] {
	return newQueue(defaultOptions(), batcher)
}

func newQueue[T any](opts Options, batcher Batcher[T]) *Queue[T] {
	if batcher == nil {
		panic("combine: nil batcher")
	}
	q := &Queue[T]{batcher: batcher}
	q.core.init(opts, batcher.Do, batcher.Start, batcher.Finish)
	return q
}

// Submit passes v to the batcher with the given completion mode.
func (q *Queue[T]) Submit(v T, mode Mode) {
	_ = q.core.submit(v, mode, true)
}

// TrySubmit is Submit without waiting for a free node.
// Returns ErrWouldBlock if every node of the slab is in flight.
func (q *Queue[T]) TrySubmit(v T, mode Mode) error {
	return q.core.submit(v, mode, false)
}

// Do passes v to the batcher and waits until it has been processed.
func (q *Queue[T]) Do(v T) {
	_ = q.core.submit(v, WaitForCompletion, true)
}

// DoAsync passes v to the batcher without waiting.
func (q *Queue[T]) DoAsync(v T) {
	_ = q.core.submit(v, FireAndForget, true)
}

// Idle reports whether no submission is in flight.
func (q *Queue[T]) Idle() bool {
	return q.core.idle()
}

// Stats returns a snapshot of the combining counters.
func (q *Queue[T]) Stats() Stats {
	return q.core.stats.snapshot()
}

// Cap returns the number of request nodes in the slab.
func (q *Queue[T]) Cap() int {
	return len(q.core.slots)
}
