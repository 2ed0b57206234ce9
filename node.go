// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package combine

import (
	"code.hybscloud.com/atomix"
	"golang.org/x/sys/cpu"
)

// Request node states. A node is Pending from acquisition until the
// combiner stores Done (its closure ran) or Handoff (its owner must take
// over the combiner role and run it).
const (
	statePending int32 = iota
	stateDone
	stateHandoff
)

// nilRef is the empty node reference. References are slab index + 1.
const nilRef = 0

func ref(idx uint32) uint64 { return uint64(idx) + 1 }

func index(r uint64) uint32 { return uint32(r - 1) }

// slot is one request node of the slab.
//
// next is written once per occupancy, by the follower that links itself
// behind this node, and read by the combiner. state is written Pending by
// the owner before its exchange, then once by the combiner. mode and arg
// are written by the owner before the exchange and published to the
// combiner by the release store of the predecessor's next.
type slot[T any] struct {
	next  atomix.Uint64
	state atomix.Int32
	mode  Mode
	arg   T
	_     cpu.CacheLinePad
}
