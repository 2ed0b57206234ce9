// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package combine_test

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"code.hybscloud.com/combine"
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer is a bytes.Buffer safe for the combiner and a follower to
// log into.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *syncBuffer) contains(s string) func() bool {
	return func() bool { return strings.Contains(b.String(), s) }
}

func newTestLogger(w *syncBuffer, level logiface.Level) *logiface.Logger[logiface.Event] {
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(w), stumpy.WithTimeField(``)),
		stumpy.L.WithLevel(level),
	).Logger()
}

// blockLock makes a goroutine the combiner of l, parked inside its closure
// until release is called. done is closed when that submission returns.
func blockLock(l *combine.Lock) (release func(), done <-chan struct{}) {
	entered := make(chan struct{})
	gate := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		l.Do(func() {
			close(entered)
			<-gate
		})
	}()
	<-entered
	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }, finished
}

// TestLoggingPollLimitAndHandoff drives a follower past MaxPolls while the
// combiner is blocked, then lets MaxBatch hand the role to it.
func TestLoggingPollLimitAndHandoff(t *testing.T) {
	skipIfRace(t)
	var out syncBuffer

	var (
		faultOnce sync.Once
		waiting   = make(chan struct{})
		faults    []error
		faultsMu  sync.Mutex
	)
	l := combine.New(8).
		MaxBatch(1).
		MaxPolls(64).
		OnPollLimit(func(err error) {
			faultsMu.Lock()
			faults = append(faults, err)
			faultsMu.Unlock()
			faultOnce.Do(func() { close(waiting) })
		}).
		Logger(newTestLogger(&out, logiface.LevelDebug)).
		Build()

	release, done := blockLock(l)

	ran := make(chan struct{})
	go func() {
		l.Do(func() {})
		close(ran)
	}()

	// A fault proves the follower is queued and spinning on completion.
	select {
	case <-waiting:
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for poll limit fault")
	}

	release()
	<-done
	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for follower")
	}

	faultsMu.Lock()
	require.NotEmpty(t, faults)
	var ple *combine.PollLimitError
	require.True(t, errors.As(faults[0], &ple))
	assert.Equal(t, "completion", ple.Site)
	assert.Equal(t, 65, ple.Polls)
	faultsMu.Unlock()

	st := l.Stats()
	assert.Equal(t, int64(1), st.Handoffs)
	assert.Equal(t, int64(1), st.Epochs)
	assert.Equal(t, int64(2), st.Closures)

	logs := out.String()
	assert.Contains(t, logs, `"lvl":"err"`)
	assert.Contains(t, logs, `"site":"completion"`)
	assert.Contains(t, logs, `"msg":"combine: poll limit exceeded"`)
	assert.Contains(t, logs, `"msg":"combine: combiner role handed off"`)
	assert.NotContains(t, logs, `combine: epoch closed`, "trace output at debug level")
}

// TestLoggingSlabExhausted blocks a submission on a full slab and checks it
// is logged, counted, and completes once nodes are released.
func TestLoggingSlabExhausted(t *testing.T) {
	skipIfRace(t)
	var out syncBuffer
	l := combine.New(2).Logger(newTestLogger(&out, logiface.LevelDebug)).Build()

	release, done := blockLock(l)
	l.DoAsync(func() {})

	submitted := make(chan struct{})
	go func() {
		l.Do(func() {})
		close(submitted)
	}()

	retryWithTimeout(t, 5*time.Second, out.contains("combine: slab exhausted"), "slab exhausted log")
	assert.Equal(t, int64(1), l.Stats().SlabWaits)

	release()
	<-done
	select {
	case <-submitted:
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for blocked submission")
	}
	retryWithTimeout(t, 5*time.Second, l.Idle, "lock idle")
	assert.Contains(t, out.String(), `"lvl":"debug"`)
}

// TestLoggingTrace checks epoch closures are traced when enabled, and that a
// nil logger is silent and safe.
func TestLoggingTrace(t *testing.T) {
	var out syncBuffer
	l := combine.New(4).Logger(newTestLogger(&out, logiface.LevelTrace)).Build()
	l.Do(func() {})
	assert.Contains(t, out.String(), `"msg":"combine: epoch closed"`)

	quiet := combine.New(4).Logger(nil).Build()
	quiet.Do(func() {})
	assert.True(t, quiet.Idle())
}
