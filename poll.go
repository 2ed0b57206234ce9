// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package combine

import (
	"code.hybscloud.com/spin"
)

// slowPollThreshold is the poll count after which a single wait logs a
// warning. Waits this long mean a closure on the combiner is far longer
// than combining is meant for, or a submitter was descheduled between its
// exchange and its publication.
const slowPollThreshold = 1 << 20

// Wait sites reported in PollLimitError.Site and log fields.
const (
	siteCompletion = "completion"
	siteSuccessor  = "successor"
)

// poller is the polling contract every busy-wait goes through.
//
// Each wait performs one spin.Wait step (CPU pause, then yield as the
// wait grows). With MaxPolls set, exceeding the limit hands a
// *PollLimitError to the fault handler; if the handler returns, the count
// restarts.
type poller struct {
	sw     spin.Wait
	opts   *Options
	site   string
	polls  int
	total  int
	warned bool
}

func newPoller(opts *Options, site string) poller {
	return poller{opts: opts, site: site}
}

func (p *poller) wait() {
	p.polls++
	p.total++
	if p.opts.maxPolls > 0 && p.polls > p.opts.maxPolls {
		p.fault()
	}
	if !p.warned && p.total >= slowPollThreshold {
		p.warned = true
		p.opts.logger.Warning().
			Str("site", p.site).
			Int("polls", p.total).
			Log("combine: slow busy-wait")
	}
	p.sw.Once()
}

func (p *poller) fault() {
	err := &PollLimitError{Site: p.site, Polls: p.polls}
	p.opts.logger.Err().
		Err(err).
		Str("site", p.site).
		Int("polls", p.polls).
		Log("combine: poll limit exceeded")
	p.polls = 0
	p.opts.onPollLimit(err)
}
