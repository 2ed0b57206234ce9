// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package combine

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
	"golang.org/x/sys/cpu"
)

// freeList is a bounded lock-free MPMC ring of free slab indices.
//
// Any goroutine may take an index (a submitter claiming a node) and any
// goroutine may return one (a waiter after completion, or the combiner
// after running a fire-and-forget node), so both ends are CAS-based.
//
// Each cell carries a sequence number: cell i is writable for position p
// when seq == p and readable when seq == p+1. Only capacity distinct
// indices ever cycle through the ring, so cell state must not be inferred
// from the stored value; the sequence makes every position distinct.
//
// The ring holds every slab index at most once and its capacity equals the
// slab size, so put never finds it full beyond a getter that has claimed
// a cell but not yet recycled it.
type freeList struct {
	_        cpu.CacheLinePad
	tail     atomix.Uint64 // put index
	_        cpu.CacheLinePad
	head     atomix.Uint64 // get index
	_        cpu.CacheLinePad
	cells    []freeCell
	mask     uint64
	capacity uint64
}

type freeCell struct {
	seq atomix.Uint64
	idx uint32
}

// newFreeList returns a ring of the given power-of-two capacity holding
// every index in [0, capacity).
func newFreeList(capacity int) *freeList {
	n := uint64(capacity)
	f := &freeList{
		cells:    make([]freeCell, n),
		mask:     n - 1,
		capacity: n,
	}

	// Position i holds index i, already published.
	for i := range f.cells {
		f.cells[i].idx = uint32(i)
		f.cells[i].seq.StoreRelaxed(uint64(i) + 1)
	}
	f.tail.StoreRelaxed(n)

	return f
}

// put returns a slab index to the ring.
func (f *freeList) put(idx uint32) {
	sw := spin.Wait{}
	for {
		tail := f.tail.LoadAcquire()
		cell := &f.cells[tail&f.mask]
		seq := cell.seq.LoadAcquire()
		diff := int64(seq) - int64(tail)

		if diff == 0 {
			if f.tail.CompareAndSwapAcqRel(tail, tail+1) {
				cell.idx = idx
				cell.seq.StoreRelease(tail + 1)
				return
			}
		}
		// diff < 0: the getter of this cell's previous round has claimed
		// it but not recycled it yet.
		sw.Once()
	}
}

// get takes a free slab index. It reports false when no index is
// available.
func (f *freeList) get() (uint32, bool) {
	sw := spin.Wait{}
	for {
		head := f.head.LoadAcquire()
		cell := &f.cells[head&f.mask]
		seq := cell.seq.LoadAcquire()
		diff := int64(seq) - int64(head+1)

		if diff == 0 {
			if f.head.CompareAndSwapAcqRel(head, head+1) {
				idx := cell.idx
				cell.seq.StoreRelease(head + f.capacity)
				return idx, true
			}
		} else if diff < 0 {
			return 0, false
		}
		sw.Once()
	}
}
