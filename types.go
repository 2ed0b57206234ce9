// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package combine

import "strconv"

// Mode selects the completion discipline of a single submission.
//
// The mode is chosen per call, not per lock: the same Lock can serve
// blocking and fire-and-forget requests in one combining epoch.
type Mode uint8

const (
	// WaitForCompletion blocks the caller until its closure has run.
	// The closure's effects are visible to the caller when the call returns.
	WaitForCompletion Mode = iota

	// FireAndForget returns as soon as the request is queued. The closure
	// runs later, on whichever goroutine holds the combiner role, unless
	// the caller itself became the combiner (then it runs before return).
	//
	// The request node is owned by the lock and released by the combiner
	// after the closure has run, so nothing the caller holds must outlive
	// the call. Anything the closure captures stays reachable until then.
	FireAndForget
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case WaitForCompletion:
		return "WaitForCompletion"
	case FireAndForget:
		return "FireAndForget"
	default:
		return "Mode(" + strconv.Itoa(int(m)) + ")"
	}
}

// Func is a critical section taking one opaque argument.
//
// A Func that needs to report failure writes the result through its
// argument; combining itself never fails.
type Func func(arg any)

// Submitter is the interface shared by the closure-based combiners.
//
// Both Lock and WorkQueue implement it; Lock additionally accepts
// FireAndForget requests via Lock.Submit and Lock.DoAsync.
type Submitter interface {
	// Do runs fn as a critical section and returns after it has run.
	Do(fn func())

	// Idle reports whether no submission is in flight.
	Idle() bool

	// Stats returns a snapshot of the combining counters.
	Stats() Stats

	// Cap returns the number of request nodes in the lock's slab.
	Cap() int
}

// Batcher is the operation combining implementation used by Queue.
//
// All methods are called by the goroutine currently holding the combiner
// role, never concurrently with each other. Batcher must not panic.
type Batcher[T any] interface {
	// Start is called before the first element of a batch.
	Start()
	// Do is called for each batch element, in arrival order.
	Do(T)
	// Finish is called after the last element of a batch, before the
	// combiner tries to close the epoch or hands the role off.
	Finish()
}

// BatcherFunc adapts a plain function to a Batcher with no-op Start and
// Finish.
type BatcherFunc[T any] func(T)

// Start does nothing.
func (BatcherFunc[T]) Start() {}

// Do calls f(v).
func (f BatcherFunc[T]) Do(v T) { f(v) }

// Finish does nothing.
func (BatcherFunc[T]) Finish() {}

var (
	_ Submitter = (*Lock)(nil)
	_ Submitter = (*WorkQueue)(nil)
)
