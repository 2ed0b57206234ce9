// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package combine

// RaceEnabled is true when the race detector is active.
// Tests use it to skip contended scenarios: closure arguments and slab
// slots are handed between goroutines through atomix orderings the
// detector cannot observe, so it reports false positives.
const RaceEnabled = true
