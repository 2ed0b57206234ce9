// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package combine

// Lock is a combining spinlock.
//
// Callers hand their critical section to the lock instead of acquiring it.
// The first caller to find the lock idle becomes the combiner: it runs its
// own closure and then the closures of every caller that arrives while it
// holds the role, in arrival order, from its own core. Other callers
// either spin until their closure has run (WaitForCompletion) or return at
// once (FireAndForget).
//
// Closures run one at a time; a closure never runs concurrently with
// another closure of the same Lock. Closures must not panic and must not
// submit to the same Lock.
//
// Memory: one cache-line padded node per slab entry
type Lock struct {
	core engine[request]
}

// request is the closure carried by a Lock or WorkQueue node.
type request struct {
	call func()
	fn   Func
	arg  any
}

func runRequest(r request) {
	if r.call != nil {
		r.call()
		return
	}
	r.fn(r.arg)
}

// NewLock creates a combining spinlock with DefaultCapacity nodes.
func NewLock() *Lock {
	return newLock(defaultOptions())
}

func newLock(opts Options) *Lock {
	l := &Lock{}
	l.core.init(opts, runRequest, nil, nil)
	return l
}

// Submit runs fn(arg) as a critical section.
//
// With WaitForCompletion, Submit returns after fn has run. With
// FireAndForget, Submit returns once the request is queued; fn runs before
// the current combining epoch closes.
//
// Panics if fn is nil.
func (l *Lock) Submit(fn Func, arg any, mode Mode) {
	if fn == nil {
		panic("combine: nil func")
	}
	_ = l.core.submit(request{fn: fn, arg: arg}, mode, true)
}

// TrySubmit is Submit without waiting for a free node.
// Returns ErrWouldBlock if every node of the slab is in flight.
//
// Panics if fn is nil.
func (l *Lock) TrySubmit(fn Func, arg any, mode Mode) error {
	if fn == nil {
		panic("combine: nil func")
	}
	return l.core.submit(request{fn: fn, arg: arg}, mode, false)
}

// Do runs fn as a critical section and returns after it has run.
//
// Panics if fn is nil.
func (l *Lock) Do(fn func()) {
	if fn == nil {
		panic("combine: nil func")
	}
	_ = l.core.submit(request{call: fn}, WaitForCompletion, true)
}

// DoAsync queues fn as a critical section without waiting for it to run.
//
// Panics if fn is nil.
func (l *Lock) DoAsync(fn func()) {
	if fn == nil {
		panic("combine: nil func")
	}
	_ = l.core.submit(request{call: fn}, FireAndForget, true)
}

// Idle reports whether no submission is in flight.
//
// When Idle returns true, every closure submitted before the call has run.
func (l *Lock) Idle() bool {
	return l.core.idle()
}

// Stats returns a snapshot of the combining counters.
func (l *Lock) Stats() Stats {
	return l.core.stats.snapshot()
}

// Cap returns the number of request nodes in the slab.
func (l *Lock) Cap() int {
	return len(l.core.slots)
}
