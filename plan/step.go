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

package plan

import (
	"sync"

	mesos "github.com/mesos/mesos-go/mesosproto"
	"go.uber.org/multierr"

	schedoffer "github.com/teletome/dcos-commons/offer"
)

// Evaluator attempts to satisfy a step's requirement from the given batch
// of offers. It returns the recommendations it wants to make, the subset
// of offers it did not use, and whether it claimed anything at all. This
// is the one pluggable seam for step placement: the core does not define a
// placement algorithm, only the predicate's shape.
type Evaluator interface {
	Evaluate(req PodInstanceRequirement, offers []*mesos.Offer) (recs []schedoffer.Recommendation, unused []*mesos.Offer, claimed bool)
}

// Step is the smallest unit of Plan work. Its name is unique within its
// parent Phase.
type Step struct {
	name        string
	requirement *PodInstanceRequirement
	evaluator   Evaluator

	mu     sync.Mutex
	status Status
	err    error
}

// NewStep creates a Step with the given name and optional requirement,
// starting in PENDING. evaluator may be nil for steps that carry no
// requirement (e.g. a pure wait/notify step).
func NewStep(name string, requirement *PodInstanceRequirement, evaluator Evaluator) *Step {
	return &Step{name: name, requirement: requirement, evaluator: evaluator, status: StatusPending}
}

// Evaluate offers this step's requirement against batch, transitioning
// PENDING -> PREPARED on success. A step with no requirement or no
// evaluator never claims any offer.
func (s *Step) Evaluate(batch []*mesos.Offer) (recs []schedoffer.Recommendation, unused []*mesos.Offer, claimed bool) {
	if s.requirement == nil || s.evaluator == nil {
		return nil, batch, false
	}
	recs, unused, claimed = s.evaluator.Evaluate(*s.requirement, batch)
	if claimed {
		s.Start()
	}
	return recs, unused, claimed
}

// Name returns the step's name.
func (s *Step) Name() string { return s.name }

// Requirement returns the step's PodInstanceRequirement, if any.
func (s *Step) Requirement() (PodInstanceRequirement, bool) {
	if s.requirement == nil {
		return PodInstanceRequirement{}, false
	}
	return *s.requirement, true
}

// Status returns the step's current status.
func (s *Step) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return StatusError
	}
	return s.status
}

// Errors returns the step's accumulated error list as a single combined
// error (nil if there are none), via go.uber.org/multierr.
func (s *Step) Errors() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// AddError appends err to the step's error list and latches the step into
// ERROR.
func (s *Step) AddError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = multierr.Append(s.err, err)
}

// IsEligible reports whether this step may be selected as a candidate: it
// must not be COMPLETE, must have no errors, and (if it carries a
// requirement) must not conflict with any element of dirty.
func (s *Step) IsEligible(dirty []PodInstanceRequirement) bool {
	s.mu.Lock()
	status, err := s.status, s.err
	req := s.requirement
	s.mu.Unlock()

	if status == StatusComplete || err != nil {
		return false
	}
	if req == nil {
		return true
	}
	return !conflictsWithAny(*req, dirty)
}

// Start transitions PENDING or WAITING -> PREPARED. Idempotent no-op from
// any other state so repeated strategy passes don't regress an in-flight
// step.
func (s *Step) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusPending || s.status == StatusWaiting {
		s.status = StatusPrepared
	}
}

// MarkWaiting transitions to WAITING, used when the step is blocked on a
// dependency rather than actively being prepared.
func (s *Step) MarkWaiting() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusWaiting
}

// MarkStarting records the cluster manager's acknowledgement that the
// underlying task has begun staging.
func (s *Step) MarkStarting() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusStarting
}

// MarkStarted records the cluster manager's acknowledgement that the
// underlying task is running.
func (s *Step) MarkStarted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusStarted
}

// MarkComplete latches the step as COMPLETE on terminal success. A
// COMPLETE step is never again eligible for work.
func (s *Step) MarkComplete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusComplete
}

// MarkError records a permanent failure.
func (s *Step) MarkError(err error) {
	s.AddError(err)
}
