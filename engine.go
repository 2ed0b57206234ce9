// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package combine

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"golang.org/x/sys/cpu"
)

// engine is the arrival queue and combiner protocol shared by Lock,
// WorkQueue and Queue.
//
// tail holds the reference of the most recently submitted node, or nilRef
// when no epoch is in progress. It is modified only by the exchange in
// submit and by the close CAS in combine.
//
// A node is never completed (marked Done or released) while it can still
// be the value of tail, i.e. before its successor is known or the epoch
// was closed. Slab indices are therefore never recycled into tail while the
// combiner may still compare against them.
type engine[T any] struct {
	_     cpu.CacheLinePad
	tail  atomix.Uint64
	_     cpu.CacheLinePad
	slots []slot[T]
	free  *freeList
	opts  Options

	exec   func(T)
	start  func()
	finish func()

	stats counters

	// hookPublish, when set, runs on a follower between its exchange and
	// the publication of its reference into the predecessor.
	hookPublish func()
	// hookAcquire and hookRelease, when set, observe a slab index taken
	// from and returned to the free list.
	hookAcquire func(idx uint32)
	hookRelease func(idx uint32)
}

func (e *engine[T]) init(opts Options, exec func(T), start, finish func()) {
	if opts.capacity < 2 {
		panic("combine: capacity must be >= 2")
	}
	if opts.onPollLimit == nil {
		opts.onPollLimit = panicOnPollLimit
	}
	n := roundToPow2(opts.capacity)
	e.slots = make([]slot[T], n)
	e.free = newFreeList(n)
	e.opts = opts
	e.exec = exec
	e.start = start
	e.finish = finish
}

// submit queues arg and, depending on the outcome of the exchange, runs as
// combiner, waits for completion, or returns immediately.
//
// With block unset, submit returns ErrWouldBlock instead of waiting for a
// free node. No other error is ever returned.
func (e *engine[T]) submit(arg T, mode Mode, block bool) error {
	idx, ok := e.free.get()
	if !ok {
		if !block {
			return ErrWouldBlock
		}
		idx = e.acquireSlow()
	}
	if e.hookAcquire != nil {
		e.hookAcquire(idx)
	}

	s := &e.slots[idx]
	s.arg = arg
	s.mode = mode
	s.next.StoreRelaxed(nilRef)
	s.state.StoreRelaxed(statePending)

	prev := e.exchange(ref(idx))
	if prev == nilRef {
		e.combine(idx)
		return nil
	}

	// Follower: only this goroutine knows prev besides the combiner, and
	// only the combiner reads prev.next, so a plain release store suffices.
	if e.hookPublish != nil {
		e.hookPublish()
	}
	e.slots[index(prev)].next.StoreRelease(ref(idx))

	if mode == FireAndForget {
		return nil
	}
	e.await(idx)
	return nil
}

// exchange atomically replaces tail with r and returns the previous value.
func (e *engine[T]) exchange(r uint64) uint64 {
	return e.tail.SwapAcqRel(r)
}

// acquireSlow waits for a free node when the slab is exhausted.
func (e *engine[T]) acquireSlow() uint32 {
	e.stats.slabWaits.Add(1)
	e.opts.logger.Debug().
		Int("capacity", len(e.slots)).
		Log("combine: slab exhausted, waiting for a free node")
	backoff := iox.Backoff{}
	for {
		backoff.Wait()
		if idx, ok := e.free.get(); ok {
			return idx
		}
	}
}

// await blocks a follower until the combiner has run its node, or until
// the combiner role is handed to it.
func (e *engine[T]) await(idx uint32) {
	s := &e.slots[idx]
	p := newPoller(&e.opts, siteCompletion)
	for {
		switch s.state.LoadAcquire() {
		case stateDone:
			e.release(idx)
			return
		case stateHandoff:
			e.combine(idx)
			return
		}
		p.wait()
	}
}

// combine runs the node at own and every node linked after it, in arrival
// order, until it closes the epoch or hands the role off.
func (e *engine[T]) combine(own uint32) {
	cur := own
	n := 0
	if e.start != nil {
		e.start()
	}
	for {
		s := &e.slots[cur]
		e.exec(s.arg)
		n++

		// finished: the current batch was closed by a failed close attempt.
		finished := false
		next := s.next.LoadAcquire()
		if next == nilRef {
			if e.finish != nil {
				e.finish()
			}
			if e.tail.CompareAndSwapAcqRel(ref(cur), nilRef) {
				e.complete(cur, n == 1)
				e.stats.closures.Add(int64(n))
				e.stats.epochs.Add(1)
				e.opts.logger.Trace().
					Int("closures", n).
					Log("combine: epoch closed")
				return
			}
			// A submitter exchanged itself in after cur but has not
			// published itself as cur.next yet.
			e.stats.closeRetries.Add(1)
			next = e.awaitSuccessor(s)
			finished = true
		}

		succ := index(next)
		if e.opts.maxBatch > 0 && n >= e.opts.maxBatch && e.slots[succ].mode == WaitForCompletion {
			if !finished && e.finish != nil {
				e.finish()
			}
			e.complete(cur, n == 1)
			e.stats.closures.Add(int64(n))
			e.stats.handoffs.Add(1)
			e.opts.logger.Debug().
				Int("closures", n).
				Log("combine: combiner role handed off")
			e.slots[succ].state.StoreRelease(stateHandoff)
			return
		}

		if finished && e.start != nil {
			e.start()
		}
		e.complete(cur, n == 1)
		cur = succ
	}
}

// awaitSuccessor waits for the follower that won the race against the
// close CAS to publish itself.
func (e *engine[T]) awaitSuccessor(s *slot[T]) uint64 {
	p := newPoller(&e.opts, siteSuccessor)
	for {
		if next := s.next.LoadAcquire(); next != nilRef {
			return next
		}
		p.wait()
	}
}

// complete hands a node back once it can no longer be the value of tail.
// The combiner's own node and fire-and-forget nodes are released here;
// a waiting owner is signalled and releases its node itself. The combiner
// must not touch a signalled node again.
func (e *engine[T]) complete(idx uint32, own bool) {
	s := &e.slots[idx]
	if own || s.mode == FireAndForget {
		e.release(idx)
		return
	}
	s.state.StoreRelease(stateDone)
}

func (e *engine[T]) release(idx uint32) {
	var zero T
	e.slots[idx].arg = zero
	if e.hookRelease != nil {
		e.hookRelease(idx)
	}
	e.free.put(idx)
}

func (e *engine[T]) idle() bool {
	return e.tail.LoadAcquire() == nilRef
}
