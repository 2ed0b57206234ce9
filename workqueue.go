// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package combine

// WorkQueue is a combining work queue.
//
// It runs on the same protocol as Lock but only accepts WaitForCompletion
// submissions: every call returns after its own closure has run, so
// nothing submitted ever outlives the submitting call.
type WorkQueue struct {
	core engine[request]
}

// NewWorkQueue creates a combining work queue with DefaultCapacity nodes.
func NewWorkQueue() *WorkQueue {
	return newWorkQueue(defaultOptions())
}

func newWorkQueue(opts Options) *WorkQueue {
	q := &WorkQueue{}
	q.core.init(opts, runRequest, nil, nil)
	return q
}

// Submit runs fn(arg) as a critical section and returns after it has run.
//
// Panics if fn is nil.
func (q *WorkQueue) Submit(fn Func, arg any) {
	if fn == nil {
		panic("combine: nil func")
	}
	_ = q.core.submit(request{fn: fn, arg: arg}, WaitForCompletion, true)
}

// Do runs fn as a critical section and returns after it has run.
//
// Panics if fn is nil.
func (q *WorkQueue) Do(fn func()) {
	if fn == nil {
		panic("combine: nil func")
	}
	_ = q.core.submit(request{call: fn}, WaitForCompletion, true)
}

// TryDo is Do without waiting for a free node.
// Returns ErrWouldBlock if every node of the slab is in flight.
//
// Panics if fn is nil.
func (q *WorkQueue) TryDo(fn func()) error {
	if fn == nil {
		panic("combine: nil func")
	}
	return q.core.submit(request{call: fn}, WaitForCompletion, false)
}

// Idle reports whether no submission is in flight.
func (q *WorkQueue) Idle() bool {
	return q.core.idle()
}

// Stats returns a snapshot of the combining counters.
func (q *WorkQueue) Stats() Stats {
	return q.core.stats.snapshot()
}

// Cap returns the number of request nodes in the slab.
func (q *WorkQueue) Cap() int {
	return len(q.core.slots)
}
