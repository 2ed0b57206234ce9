// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package combine provides lock-combining synchronization primitives.
//
// When many cores contend for one critical section, a classic lock makes
// the lock word and the protected data bounce between core caches, and
// interconnect latency dominates. A combining lock instead lets the first
// contending goroutine become the combiner: it runs its own critical
// section and those of every goroutine that arrives while it holds the
// role, all from one core's cache, before handing the lock back.
//
// The package offers three front ends over one protocol:
//
//   - Lock: combining spinlock, per-call WaitForCompletion or FireAndForget
//   - WorkQueue: combining work queue, WaitForCompletion only
//   - Queue[T]: batched combiner feeding a Batcher[T] with Start/Do/Finish
//
// # Quick Start
//
// Direct constructors:
//
//	l := combine.NewLock()
//	wq := combine.NewWorkQueue()
//	q := combine.NewQueue[Record](appender)
//
// Builder API:
//
//	l := combine.New(1024).MaxBatch(64).Build()
//	wq := combine.New(256).Logger(logger).BuildWorkQueue()
//	q := combine.BuildQueue[Record](combine.New(512), appender)
//
// # Basic Usage
//
// Replace a mutex-protected critical section with a closure:
//
//	var (
//	    l     = combine.NewLock()
//	    total int
//	)
//
//	// Instead of mu.Lock(); total += n; mu.Unlock()
//	l.Do(func() { total += n })
//
// Closures may carry an explicit argument, avoiding a capture:
//
//	l.Submit(func(arg any) { stats.add(arg.(Sample)) }, sample, combine.WaitForCompletion)
//
// Fire-and-forget submissions return once queued:
//
//	l.DoAsync(func() { counters.hits++ })
//
// # Protocol
//
// The lock holds a single word, tail: the most recently submitted request
// node, or empty. Submission atomically exchanges the caller's node into
// tail:
//
//	previous tail empty     → caller is the combiner
//	previous tail non-empty → caller links itself as previous.next (follower)
//
// The combiner runs its node, then follows next links running each node in
// arrival order. When no successor is known it tries to close the epoch with
// CAS(tail, current, empty). If the CAS fails, a follower has exchanged
// itself in but not yet linked itself; the combiner spins on current.next
// until it appears and keeps draining. The combiner never returns while
// tail shows work it is responsible for.
//
// Closures of one epoch run in the order their exchanges completed. No
// ordering is implied across epochs beyond happens-before.
//
// # Request Nodes
//
// Request nodes live in a fixed slab owned by the lock and are referenced
// by index, never by pointer. A waiting caller releases its own node after
// its closure ran; the combiner releases fire-and-forget nodes after running
// them. No node is released while it may still be the value of tail, so
// recycled indices cannot confuse the close CAS.
//
// The slab size bounds requests in flight. When it is exhausted, blocking
// submissions back off until a node frees; Try variants return
// [ErrWouldBlock]:
//
//	if err := l.TrySubmit(fn, arg, combine.FireAndForget); combine.IsWouldBlock(err) {
//	    // every node is in flight - shed load or retry later
//	}
//
// # Bounded Tenure
//
// Under sustained arrivals a combiner may drain indefinitely. MaxBatch bounds
// the closures one goroutine runs per tenure: once reached, the role is
// handed to the next waiting follower, which continues from its own node.
// Arrival order is unaffected.
//
// # Busy-Waiting
//
// There is no blocking on OS primitives. Followers spin on their own node,
// and the combiner spins only across the short window between a follower's
// exchange and its link. Every wait uses [code.hybscloud.com/spin] and is
// bounded by MaxPolls when set; exceeding it hands a [*PollLimitError] to the
// OnPollLimit handler (default: panic), so livelock regressions fail tests
// deterministically:
//
//	l := combine.New(64).MaxPolls(1 << 16).OnPollLimit(func(err error) {
//	    t.Errorf("livelock: %v", err)
//	}).Build()
//
// Combining suits short critical sections. Long closures keep followers
// spinning; use a mutex or a channel there.
//
// # Non-Goals
//
// No recursive acquisition (a closure must not submit to its own lock), no
// timeouts or cancellation (a queued closure always runs), no priority
// inheritance, no fairness beyond arrival order within an epoch.
//
// # Race Detection
//
// Request arguments are handed from submitter to combiner through atomix
// acquire-release orderings on separate variables, which Go's race detector
// cannot observe. Contended tests are skipped when [RaceEnabled] is set.
//
// # Dependencies
//
// This package uses [code.hybscloud.com/atomix] for atomic primitives with
// explicit memory ordering, [code.hybscloud.com/spin] for spin-waits,
// [code.hybscloud.com/iox] for backoff and semantic errors, and
// [github.com/joeycumines/logiface] for optional structured logging.
package combine
