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

// Package framework implements the mesos-go scheduler.Scheduler callback
// interface, dispatching each callback into the offer processor, the
// reconciler, and the plan-backed client, generalizing the teacher's
// single monolithic EtcdScheduler into thin routing atop those
// independently-testable collaborators.
package framework

import (
	"context"
	"sync"
	"sync/atomic"

	log "github.com/golang/glog"
	mesos "github.com/mesos/mesos-go/mesosproto"
	"github.com/mesos/mesos-go/scheduler"

	schedcommonsdriver "github.com/teletome/dcos-commons/driver"
	"github.com/teletome/dcos-commons/plan"
	"github.com/teletome/dcos-commons/processor"
	"github.com/teletome/dcos-commons/reconcile"
)

// Persister is the subset of store.ZKStore the framework needs at
// registration/teardown time.
type Persister interface {
	PersistStatus(status *mesos.TaskStatus) error
	PersistFrameworkID(id *mesos.FrameworkID) error
	ClearState() error
}

// LeaderChecker reports current leadership, gating whether a replica is
// allowed to mutate scheduler state at all.
type LeaderChecker interface {
	IsLeader() bool
}

// Runner implements scheduler.Scheduler. Exactly one instance drives one
// framework registration.
type Runner struct {
	driver      *schedcommonsdriver.Handle
	processor   *processor.Processor
	reconciler  *reconcile.Reconciler
	client      *plan.Client
	persister   Persister
	leader      LeaderChecker
	shutdown    func()

	mut         sync.RWMutex
	immutable   bool
	frameworkID atomic.Pointer[mesos.FrameworkID]
}

// New constructs a Runner wired over its collaborators. shutdown is called
// on unrecoverable registration errors; tests may override it to avoid
// exiting the process.
func New(
	d *schedcommonsdriver.Handle,
	proc *processor.Processor,
	rec *reconcile.Reconciler,
	client *plan.Client,
	persister Persister,
	leader LeaderChecker,
	shutdown func(),
) *Runner {
	return &Runner{
		driver:     d,
		processor:  proc,
		reconciler: rec,
		client:     client,
		persister:  persister,
		leader:     leader,
		shutdown:   shutdown,
	}
}

func (r *Runner) setImmutable(v bool) {
	r.mut.Lock()
	r.immutable = v
	r.mut.Unlock()
}

func (r *Runner) isImmutable() bool {
	r.mut.RLock()
	defer r.mut.RUnlock()
	return r.immutable
}

// Registered installs the driver adapter, persists the framework id, and
// flips the scheduler mutable, beginning the processor's consumer loop and
// priming the reconciler from durable state.
func (r *Runner) Registered(driver scheduler.SchedulerDriver, frameworkID *mesos.FrameworkID, masterInfo *mesos.MasterInfo) {
	log.Infof("framework: registered with master %v", masterInfo)
	r.frameworkID.Store(frameworkID)
	r.driver.Set(schedcommonsdriver.NewMesosAdapter(driver))

	if err := r.persister.PersistFrameworkID(frameworkID); err != nil {
		log.Errorf("framework: failed to persist framework id: %v", err)
		r.shutdown()
		return
	}

	if err := r.reconciler.Start(context.Background()); err != nil {
		log.Errorf("framework: failed to prime reconciler from state store: %v", err)
		r.shutdown()
		return
	}
	r.processor.Start()
	r.processor.MarkInitialized()
	r.setImmutable(false)
}

// Reregistered re-primes the reconciler without re-persisting the
// framework id, matching the teacher's split between Registered and
// Reregistered.
func (r *Runner) Reregistered(driver scheduler.SchedulerDriver, masterInfo *mesos.MasterInfo) {
	log.Infof("framework: reregistered with master %v", masterInfo)
	r.driver.Set(schedcommonsdriver.NewMesosAdapter(driver))
	if err := r.reconciler.Start(context.Background()); err != nil {
		log.Errorf("framework: failed to re-prime reconciler: %v", err)
	}
	r.setImmutable(false)
}

// Disconnected flips the scheduler immutable: offers are declined short
// until the master reconnects.
func (r *Runner) Disconnected(scheduler.SchedulerDriver) {
	log.Warning("framework: disconnected from cluster manager")
	r.setImmutable(true)
}

// declineShort declines every offer in the batch with an empty filter,
// releasing it back to the cluster manager immediately rather than holding
// it for the processor's own filter-refresh cadence.
func (r *Runner) declineShort(offers []*mesos.Offer) {
	d, err := r.driver.Get()
	if err != nil {
		return
	}
	for _, o := range offers {
		_ = d.DeclineOffer(o.GetId(), &mesos.Filters{})
	}
}

// ResourceOffers hands the batch straight to the processor's queue; the
// processor's single consumer thread is the only place offers are ever
// evaluated. A disconnected replica, or one that has lost the leader lock,
// declines everything short instead of reaching the processor at all: the
// leader lock gates whether this replica is allowed to act on driver
// callbacks in the first place, not just whether it can claim steps.
func (r *Runner) ResourceOffers(driver scheduler.SchedulerDriver, offers []*mesos.Offer) {
	if r.isImmutable() || !r.leader.IsLeader() {
		r.declineShort(offers)
		return
	}
	r.processor.Enqueue(offers)
}

// StatusUpdate routes the update to both the reconciler (clearing it from
// the unreconciled set) and the plan client (advancing whichever step owns
// the task), then persists it durably. A non-leader replica only logs: it
// must not mutate reconciler or plan state it does not own.
func (r *Runner) StatusUpdate(driver scheduler.SchedulerDriver, status *mesos.TaskStatus) {
	log.Infof("framework: status update for task %s: %s", status.GetTaskId().GetValue(), status.GetState())
	if !r.leader.IsLeader() {
		log.Warningf("framework: not leader, ignoring status update for task %s", status.GetTaskId().GetValue())
		return
	}
	r.reconciler.Update(status)
	r.client.Status(status)
	if r.persister != nil {
		if err := r.persister.PersistStatus(status); err != nil {
			log.Errorf("framework: failed to persist status for task %s: %v", status.GetTaskId().GetValue(), err)
		}
	}
}

// OfferRescinded best-effort removes the offer from the processor's queue
// if it had not yet been drained.
func (r *Runner) OfferRescinded(driver scheduler.SchedulerDriver, offerID *mesos.OfferID) {
	log.Infof("framework: offer %s rescinded", offerID.GetValue())
	r.processor.Dequeue(offerID.GetValue())
}

// FrameworkMessage is a pure logging hook: this scheduler core has no
// executor-originated message protocol.
func (r *Runner) FrameworkMessage(driver scheduler.SchedulerDriver, exec *mesos.ExecutorID, slave *mesos.SlaveID, msg string) {
	log.Infof("framework: received framework message from %s: %s", slave.GetValue(), msg)
}

// SlaveLost is a pure logging hook; task-level fallout arrives via
// StatusUpdate(TASK_LOST).
func (r *Runner) SlaveLost(driver scheduler.SchedulerDriver, slaveID *mesos.SlaveID) {
	log.Warningf("framework: slave lost: %s", slaveID.GetValue())
}

// ExecutorLost is a pure logging hook.
func (r *Runner) ExecutorLost(driver scheduler.SchedulerDriver, execID *mesos.ExecutorID, slaveID *mesos.SlaveID, status int) {
	log.Warningf("framework: executor %s lost on slave %s (status %d)", execID.GetValue(), slaveID.GetValue(), status)
}

// Error handles the one fatal case the teacher special-cases: a completed
// framework attempting to re-register means the persisted framework id is
// stale and the process should not continue.
func (r *Runner) Error(driver scheduler.SchedulerDriver, err string) {
	log.Errorf("framework: received error from cluster manager: %s", err)
	if err == "Completed framework attempted to re-register" {
		log.Error("framework: framework id is stale, clearing persisted state and shutting down")
		if clearErr := r.persister.ClearState(); clearErr != nil {
			log.Errorf("framework: failed to clear persisted state: %v", clearErr)
		}
		r.shutdown()
	}
}
