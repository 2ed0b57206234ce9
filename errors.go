// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package combine

import (
	"errors"
	"strconv"

	"code.hybscloud.com/iox"
)

// ErrWouldBlock indicates the submission cannot proceed immediately.
//
// Only the Try variants (Lock.TrySubmit, WorkQueue.TryDo, Queue.TrySubmit)
// return it: every node of the lock's slab is in flight, either queued,
// being combined, or held by a fire-and-forget request the combiner has
// not reached yet.
//
// ErrWouldBlock is a control flow signal, not a failure. Retry later, or
// use the blocking variants which back off internally.
//
// This is an alias for [iox.ErrWouldBlock] for ecosystem consistency.
//
// Example:
//
//	backoff := iox.Backoff{}
//	for {
//	    err := l.TrySubmit(fn, arg, combine.FireAndForget)
//	    if err == nil {
//	        break
//	    }
//	    if !combine.IsWouldBlock(err) {
//	        return err
//	    }
//	    backoff.Wait()
//	}
var ErrWouldBlock = iox.ErrWouldBlock

// ErrPollLimit is the sentinel wrapped by [PollLimitError].
var ErrPollLimit = errors.New("combine: poll limit exceeded")

// PollLimitError reports a busy-wait that exceeded the MaxPolls limit
// configured on the Builder. It is never returned from a submission; it is
// passed to the OnPollLimit handler, whose default panics with it.
type PollLimitError struct {
	// Site names the wait that stalled: "completion" (a follower waiting
	// for its closure to run) or "successor" (the combiner waiting for a
	// follower to publish itself after a failed close).
	Site string
	// Polls is the number of polls performed before the fault.
	Polls int
}

func (e *PollLimitError) Error() string {
	return "combine: poll limit exceeded waiting for " + e.Site + " after " + strconv.Itoa(e.Polls) + " polls"
}

// Unwrap returns ErrPollLimit.
func (e *PollLimitError) Unwrap() error { return ErrPollLimit }

// IsWouldBlock reports whether err indicates the operation would block.
// Delegates to [iox.IsWouldBlock] for wrapped error support.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}

// IsSemantic reports whether err is a control flow signal (not a failure).
// Delegates to [iox.IsSemantic].
func IsSemantic(err error) bool {
	return iox.IsSemantic(err)
}

// IsNonFailure reports whether err represents a non-failure condition.
// Returns true for nil, ErrWouldBlock, or ErrMore.
// Delegates to [iox.IsNonFailure].
func IsNonFailure(err error) bool {
	return iox.IsNonFailure(err)
}
