/**
 * Licensed to the Apache Software Foundation (ASF) under one
 * or more contributor license agreements.  See the NOTICE file
 * distributed with this work for additional information
 * regarding copyright ownership.  The ASF licenses this file
 * to you under the Apache License, Version 2.0 (the
 * "License"); you may not use this file except in compliance
 * with the License.  You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package offerqueue implements the bounded FIFO buffer of pending offers
// that sits between the driver's offer callback and the single offer
// consumer. Capacity zero means unbounded.
package offerqueue

import (
	"sync"

	mesos "github.com/mesos/mesos-go/mesosproto"
)

// Queue is a thread-safe FIFO of *mesos.Offer. Multiple producers may call
// Offer concurrently; a single consumer is expected to call TakeAll.
type Queue struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	capacity int
	buf      []*mesos.Offer
	closed   bool
}

// New creates a Queue with the given capacity. Capacity zero means
// unbounded: Offer never rejects in that mode.
func New(capacity int) *Queue {
	q := &Queue{capacity: capacity}
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

// Offer appends o to the back of the queue. It returns false (rejecting the
// offer) only when the queue is bounded and already at capacity.
func (q *Queue) Offer(o *mesos.Offer) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	if q.capacity > 0 && len(q.buf) >= q.capacity {
		return false
	}
	q.buf = append(q.buf, o)
	q.notEmpty.Signal()
	return true
}

// Remove does a best-effort removal of the offer with the given id, used
// when the cluster manager rescinds an offer that is still queued. Returns
// true if an entry was removed.
func (q *Queue) Remove(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, o := range q.buf {
		if o.GetId().GetValue() == id {
			q.buf = append(q.buf[:i], q.buf[i+1:]...)
			return true
		}
	}
	return false
}

// TakeAll blocks until at least one offer is buffered (or the queue is
// closed), then atomically drains and returns everything currently
// buffered. A closed, empty queue returns a nil slice; callers must treat
// that as a spurious wake rather than an error.
func (q *Queue) TakeAll() []*mesos.Offer {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.buf) == 0 && !q.closed {
		q.notEmpty.Wait()
	}
	if len(q.buf) == 0 {
		return nil
	}
	drained := q.buf
	q.buf = nil
	return drained
}

// Len reports the number of offers currently buffered. Testing aid.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf)
}

// Close unblocks any pending TakeAll with a spurious, empty wake. Safe to
// call more than once.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.notEmpty.Broadcast()
}
