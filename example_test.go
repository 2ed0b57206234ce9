// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package combine_test

import (
	"fmt"
	"strings"

	"code.hybscloud.com/combine"
	"code.hybscloud.com/iox"
)

// ExampleNewLock demonstrates replacing a mutex-protected critical section.
func ExampleNewLock() {
	l := combine.NewLock()
	balance := 100

	l.Do(func() { balance -= 30 })
	l.Do(func() { balance += 5 })

	fmt.Println(balance)
	fmt.Println(l.Idle())

	// Output:
	// 75
	// true
}

// ExampleLock_Submit demonstrates passing an argument instead of capturing.
func ExampleLock_Submit() {
	l := combine.NewLock()
	seen := map[string]int{}

	record := func(arg any) { seen[arg.(string)]++ }
	for _, word := range strings.Fields("to be or not to be") {
		l.Submit(record, word, combine.WaitForCompletion)
	}

	fmt.Println(seen["to"], seen["be"], seen["or"], seen["not"])

	// Output:
	// 2 2 1 1
}

// ExampleLock_TrySubmit demonstrates load shedding when the slab is full.
func ExampleLock_TrySubmit() {
	l := combine.New(4).Build()
	hits := 0

	backoff := iox.Backoff{}
	for range 3 {
		for {
			err := l.TrySubmit(func(any) { hits++ }, nil, combine.FireAndForget)
			if err == nil {
				break
			}
			if !combine.IsWouldBlock(err) {
				panic(err)
			}
			backoff.Wait()
		}
		backoff.Reset()
	}

	fmt.Println(hits)

	// Output:
	// 3
}

// ExampleNewWorkQueue demonstrates the wait-only work queue.
func ExampleNewWorkQueue() {
	q := combine.NewWorkQueue()
	var log []string

	q.Do(func() { log = append(log, "open") })
	q.Submit(func(arg any) { log = append(log, arg.(string)) }, "write")
	if err := q.TryDo(func() { log = append(log, "close") }); err != nil {
		fmt.Println(err)
	}

	fmt.Println(strings.Join(log, ","))

	// Output:
	// open,write,close
}

// lineWriter batches lines and flushes once per batch.
type lineWriter struct {
	pending []string
	flushed []string
}

func (w *lineWriter) Start()         { w.pending = w.pending[:0] }
func (w *lineWriter) Do(line string) { w.pending = append(w.pending, line) }
func (w *lineWriter) Finish() {
	w.flushed = append(w.flushed, strings.Join(w.pending, "|"))
}

// ExampleNewQueue demonstrates per-batch work with a Batcher.
func ExampleNewQueue() {
	w := &lineWriter{}
	q := combine.NewQueue[string](w)

	q.Do("alpha")
	q.DoAsync("beta")

	// Uncontended submissions each form their own batch.
	fmt.Println(w.flushed)

	// Output:
	// [alpha beta]
}

// ExampleBuildQueue demonstrates the builder with a plain function.
func ExampleBuildQueue() {
	total := 0
	q := combine.BuildQueue[int](combine.New(16).MaxBatch(8), combine.BatcherFunc[int](func(v int) {
		total += v
	}))

	for i := range 5 {
		q.Do(i)
	}

	fmt.Println(total, q.Cap())

	// Output:
	// 10 16
}
