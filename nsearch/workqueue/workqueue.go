// Copyright © 2024 The nsearch Authors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Package workqueue provides a fixed-size pool of workers consuming a FIFO queue.
package workqueue

import (
	"runtime"
	"sync"
	"time"
)

// PollInterval is the interval of checking the state in WaitTillDone.
var PollInterval = 50 * time.Millisecond

// Queue is a FIFO queue processed by a fixed number of workers.
// The process function is called outside of the lock, so items are
// processed concurrently, and the completion order is not guaranteed.
// Callers needing per-item results should pair each item with its own result slot.
type Queue[T any] struct {
	process func(T)

	mu      sync.Mutex
	cond    *sync.Cond
	items   []T
	head    int
	working int
	stopped bool

	wg sync.WaitGroup
}

// New starts numWorkers workers, numWorkers <= 0 means the number of CPUs.
func New[T any](numWorkers int, process func(T)) *Queue[T] {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	q := &Queue[T]{
		process: process,
		items:   make([]T, 0, 128),
	}
	q.cond = sync.NewCond(&q.mu)

	q.wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go q.work()
	}
	return q
}

func (q *Queue[T]) work() {
	defer q.wg.Done()

	var item T
	var zero T
	for {
		q.mu.Lock()
		for !q.stopped && q.head == len(q.items) {
			q.cond.Wait()
		}
		if q.stopped { // queued items are dropped
			q.mu.Unlock()
			return
		}

		item = q.items[q.head]
		q.items[q.head] = zero
		q.head++
		if q.head == len(q.items) {
			q.items = q.items[:0]
			q.head = 0
		}
		q.working++
		q.mu.Unlock()

		q.process(item)

		q.mu.Lock()
		q.working--
		q.mu.Unlock()
	}
}

// Enqueue appends an item to the queue and wakes up one worker.
// It never blocks, and items enqueued after Close are silently dropped.
func (q *Queue[T]) Enqueue(item T) {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.items = append(q.items, item)
	q.mu.Unlock()

	q.cond.Signal()
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	n := len(q.items) - q.head
	q.mu.Unlock()
	return n
}

// Done tells if the queue is empty and no item is being processed.
// It is a snapshot of the state.
func (q *Queue[T]) Done() bool {
	q.mu.Lock()
	done := q.head == len(q.items) && q.working == 0
	q.mu.Unlock()
	return done
}

// WaitTillDone blocks until Done returns true, by polling every PollInterval.
// It is not woken up by the completion of items, so it returns up to
// PollInterval later than that.
func (q *Queue[T]) WaitTillDone() {
	for !q.Done() {
		time.Sleep(PollInterval)
	}
}

// Close stops all workers and waits for them to exit.
// Items being processed run to completion, while queued ones are dropped.
// Calling Close more than once is fine.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		q.wg.Wait()
		return
	}
	q.stopped = true
	q.mu.Unlock()

	q.cond.Broadcast()
	q.wg.Wait()
}
