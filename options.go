// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package combine

import (
	"github.com/joeycumines/logiface"
)

// DefaultCapacity is the slab size used by NewLock, NewWorkQueue and
// NewQueue. It bounds the number of requests in flight on one lock: queued,
// being combined, or fire-and-forget requests not yet reached.
const DefaultCapacity = 256

// Options configures combiner creation.
type Options struct {
	// Slab size (rounds up to next power of 2)
	capacity int

	// Combiner tenure: closures run before handing the role off (0 = unbounded)
	maxBatch int

	// Livelock detection: polls per wait before the fault handler runs (0 = unbounded)
	maxPolls    int
	onPollLimit func(err error)

	logger *logiface.Logger[logiface.Event]
}

// Builder creates combiners with fluent configuration.
//
// Example:
//
//	// Combining spinlock with a bounded combiner tenure
//	l := combine.New(1024).MaxBatch(64).Build()
//
//	// Wait-only work queue with structured logging
//	wq := combine.New(256).Logger(logger).BuildWorkQueue()
//
//	// Batched queue appending to a file, syncing once per batch
//	q := combine.BuildQueue[[]byte](combine.New(512), appender)
type Builder struct {
	opts Options
}

// New creates a builder with the given slab capacity.
//
// Capacity rounds up to the next power of 2. It bounds the number of
// requests that may be in flight at once; blocking submissions wait for a
// free node, Try variants return ErrWouldBlock.
//
// Panics if capacity < 2.
func New(capacity int) *Builder {
	if capacity < 2 {
		panic("combine: capacity must be >= 2")
	}
	return &Builder{opts: Options{capacity: capacity, onPollLimit: panicOnPollLimit}}
}

// MaxBatch bounds how many closures one goroutine runs per combiner tenure.
//
// Once the limit is reached and the next queued request belongs to a
// goroutine waiting for completion, the combiner returns and that goroutine
// continues draining from its own request. Fire-and-forget requests have no
// waiting goroutine and are drained past the limit. Zero (the default)
// means unbounded, as in the basic protocol.
//
// Panics if n < 0.
func (b *Builder) MaxBatch(n int) *Builder {
	if n < 0 {
		panic("combine: max batch must be >= 0")
	}
	b.opts.maxBatch = n
	return b
}

// MaxPolls bounds every busy-wait to n polls before the poll limit handler
// is invoked. Intended for tests catching livelock regressions
// deterministically. Zero (the default) means unbounded.
//
// Panics if n < 0.
func (b *Builder) MaxPolls(n int) *Builder {
	if n < 0 {
		panic("combine: max polls must be >= 0")
	}
	b.opts.maxPolls = n
	return b
}

// OnPollLimit sets the handler called with a *PollLimitError when a wait
// exceeds MaxPolls. If the handler returns, the poll count restarts and the
// wait continues. The default handler panics.
func (b *Builder) OnPollLimit(fn func(err error)) *Builder {
	if fn == nil {
		fn = panicOnPollLimit
	}
	b.opts.onPollLimit = fn
	return b
}

// Logger sets the structured logger. A nil logger (the default) disables
// logging. Use the Logger method of a typed logiface logger to generify it:
//
//	l := combine.New(256).Logger(stumpy.L.New(...).Logger()).Build()
func (b *Builder) Logger(logger *logiface.Logger[logiface.Event]) *Builder {
	b.opts.logger = logger
	return b
}

// Build creates a combining spinlock accepting both completion modes.
func (b *Builder) Build() *Lock {
	return newLock(b.opts)
}

// BuildWorkQueue creates a combining work queue, which only supports
// WaitForCompletion.
func (b *Builder) BuildWorkQueue() *WorkQueue {
	return newWorkQueue(b.opts)
}

// BuildQueue creates a batched combiner feeding batcher.
//
// Panics if batcher is nil.
func BuildQueue[T any](b *Builder, batcher Batcher[T]) *Queue[T] {
	return newQueue(b.opts, batcher)
}

func defaultOptions() Options {
	return Options{capacity: DefaultCapacity, onPollLimit: panicOnPollLimit}
}

func panicOnPollLimit(err error) { panic(err) }

// roundToPow2 rounds n up to the next power of 2.
func roundToPow2(n int) int {
	if n < 2 {
		return 2
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}
