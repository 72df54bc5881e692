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

// Package reconcile implements the two-phase (explicit-then-implicit)
// task-status reconciliation protocol with exponential backoff.
package reconcile

import (
	"context"
	"sync"
	"time"

	log "github.com/golang/glog"
	mesos "github.com/mesos/mesos-go/mesosproto"

	"github.com/teletome/dcos-commons/clock"
	"github.com/teletome/dcos-commons/driver"
	"github.com/teletome/dcos-commons/metrics"
)

const (
	// BaseBackoffMs is the initial backoff between explicit reconcile
	// calls while the unreconciled set has not drained.
	BaseBackoffMs = 4000
	// Multiplier doubles the backoff after every explicit call.
	Multiplier = 2
	// MaxBackoffMs clamps the backoff.
	MaxBackoffMs = 30000
)

// StateStore supplies the durable view of task status at start(). All
// other persistence concerns are outside the core.
type StateStore interface {
	FetchStatuses(ctx context.Context) ([]*mesos.TaskStatus, error)
}

// terminalStates are excluded from the unreconciled set: a terminal status
// needs no further reconciliation.
var terminalStates = map[mesos.TaskState]struct{}{
	mesos.TaskState_TASK_FINISHED: {},
	mesos.TaskState_TASK_FAILED:   {},
	mesos.TaskState_TASK_KILLED:   {},
	mesos.TaskState_TASK_LOST:     {},
	mesos.TaskState_TASK_ERROR:    {},
}

// IsTerminal reports whether state is one of the five terminal states.
func IsTerminal(state mesos.TaskState) bool {
	_, ok := terminalStates[state]
	return ok
}

// Reconciler drives explicit-then-implicit reconciliation. Safe for
// concurrent use; Reconcile may be called from any goroutine or a timer.
type Reconciler struct {
	driver  *driver.Handle
	store   StateStore
	metrics metrics.Sink
	clock   clock.Clock

	mu                sync.Mutex
	unreconciled      map[string]*mesos.TaskStatus
	lastRequestTimeMs int64
	backOffMs         int64
	implicitTriggered bool
}

// New constructs a Reconciler. It starts idle: call Start to populate the
// unreconciled set from the state store.
func New(d *driver.Handle, store StateStore, m metrics.Sink, opts ...Option) *Reconciler {
	r := &Reconciler{
		driver:       d,
		store:        store,
		metrics:      m,
		clock:        clock.Real,
		unreconciled: map[string]*mesos.TaskStatus{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Option configures a Reconciler at construction time.
type Option func(*Reconciler)

// WithClock overrides the time source. Defaults to clock.Real.
func WithClock(c clock.Clock) Option {
	return func(r *Reconciler) { r.clock = c }
}

func (r *Reconciler) nowMs() int64 {
	return r.clock.Now().UnixMilli()
}

// Start fetches all known statuses from the state store, inserts the
// non-terminal ones into the unreconciled set (overwriting it entirely),
// clears the implicit-triggered flag, and resets the backoff timer.
func (r *Reconciler) Start(ctx context.Context) error {
	statuses, err := r.store.FetchStatuses(ctx)
	if err != nil {
		return err
	}

	next := map[string]*mesos.TaskStatus{}
	for _, s := range statuses {
		if !IsTerminal(s.GetState()) {
			next[s.GetTaskId().GetValue()] = s
		}
	}

	r.mu.Lock()
	r.unreconciled = next
	r.implicitTriggered = false
	r.lastRequestTimeMs = 0
	r.backOffMs = BaseBackoffMs
	r.mu.Unlock()
	return nil
}

// Reconcile may be called from any goroutine and from a timer.
//
// PHASE 3: if the implicit call already happened since the last Start,
// this is a no-op.
// PHASE 1: if the unreconciled set is non-empty and the backoff window has
// elapsed, snapshot it under the lock, advance the timer, release the
// lock, and issue an explicit reconcileTasks call with the snapshot.
// PHASE 2: if the unreconciled set is empty, reset the timer, latch
// implicitTriggered, release the lock, and issue one implicit (empty)
// reconcileTasks call.
//
// No driver call is ever made while the lock is held.
func (r *Reconciler) Reconcile() {
	r.mu.Lock()
	if r.implicitTriggered {
		r.mu.Unlock()
		return
	}

	if len(r.unreconciled) > 0 {
		now := r.nowMs()
		if now < r.lastRequestTimeMs+r.backOffMs {
			r.mu.Unlock()
			return
		}
		snapshot := make([]*mesos.TaskStatus, 0, len(r.unreconciled))
		for _, s := range r.unreconciled {
			snapshot = append(snapshot, s)
		}
		r.lastRequestTimeMs = now
		r.backOffMs = nextBackoff(r.backOffMs)
		r.mu.Unlock()

		r.callDriver(snapshot, "explicit")
		return
	}

	r.lastRequestTimeMs = 0
	r.backOffMs = BaseBackoffMs
	r.implicitTriggered = true
	r.mu.Unlock()

	r.callDriver(nil, "implicit")
}

// nextBackoff doubles ms, clamped to MaxBackoffMs, guarding against
// overflow if Multiplier or MaxBackoffMs ever grow beyond 32-bit-safe
// doubling.
func nextBackoff(ms int64) int64 {
	doubled := ms * Multiplier
	if doubled <= 0 || doubled > MaxBackoffMs {
		return MaxBackoffMs
	}
	return doubled
}

func (r *Reconciler) callDriver(statuses []*mesos.TaskStatus, phase string) {
	d, err := r.driver.Get()
	if err != nil {
		log.Errorf("reconcile: no driver registered, skipping %s reconcile: %v", phase, err)
		return
	}
	if err := d.ReconcileTasks(statuses); err != nil {
		log.Errorf("reconcile: %s ReconcileTasks failed: %v", phase, err)
		return
	}
	r.metrics.ReconcileCalls(phase)
}

// Update removes task status's task id from the unreconciled set. A no-op
// if the set is empty or does not contain that id.
func (r *Reconciler) Update(status *mesos.TaskStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.unreconciled) == 0 {
		return
	}
	delete(r.unreconciled, status.GetTaskId().GetValue())
}

// IsReconciled reports whether the unreconciled set is empty.
func (r *Reconciler) IsReconciled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.unreconciled) == 0
}

// UnreconciledCount is a testing/introspection aid.
func (r *Reconciler) UnreconciledCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.unreconciled)
}

// NextBackoffDuration is a testing/introspection aid exposing the current
// backoff as a time.Duration.
func (r *Reconciler) NextBackoffDuration() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return time.Duration(r.backOffMs) * time.Millisecond
}
