// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package combine

import "code.hybscloud.com/atomix"

// Stats is a snapshot of a combiner's counters.
//
// SlabWaits is updated by submitters, every other counter by the goroutine
// holding the combiner role. A snapshot taken while submissions are in
// flight is not atomic across fields.
type Stats struct {
	// Epochs counts combining epochs closed by a successful close CAS.
	Epochs int64
	// Closures counts closures (or batch elements) executed.
	Closures int64
	// CloseRetries counts close attempts that lost against a concurrent
	// submission and had to wait for the successor to be published.
	CloseRetries int64
	// Handoffs counts combiner tenures ended by MaxBatch.
	Handoffs int64
	// SlabWaits counts blocking submissions that found the slab exhausted.
	SlabWaits int64
}

// Combined returns the average number of closures run per combiner
// tenure. Values above 1 mean combining took place.
func (s Stats) Combined() float64 {
	tenures := s.Epochs + s.Handoffs
	if tenures == 0 {
		return 0
	}
	return float64(s.Closures) / float64(tenures)
}

type counters struct {
	epochs       atomix.Int64
	closures     atomix.Int64
	closeRetries atomix.Int64
	handoffs     atomix.Int64
	slabWaits    atomix.Int64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Epochs:       c.epochs.Load(),
		Closures:     c.closures.Load(),
		CloseRetries: c.closeRetries.Load(),
		Handoffs:     c.handoffs.Load(),
		SlabWaits:    c.slabWaits.Load(),
	}
}
