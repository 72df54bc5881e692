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

import "sync"

// StepStrategy selects which of a Phase's steps are candidates for work on
// a given pass. Separate from PhaseStrategy (rather than a single generic
// Strategy[T]) since steps and phases select over different element types.
type StepStrategy interface {
	Candidates(steps []*Step, dirty []PodInstanceRequirement) []*Step
}

// SerialStepStrategy selects at most one step, the first one that is not
// COMPLETE, and only if it is eligible: steps execute one at a time, in
// order.
type SerialStepStrategy struct{}

func (SerialStepStrategy) Candidates(steps []*Step, dirty []PodInstanceRequirement) []*Step {
	for _, st := range steps {
		if st.Status() == StatusComplete {
			continue
		}
		if st.IsEligible(dirty) {
			return []*Step{st}
		}
		return nil
	}
	return nil
}

// ParallelStepStrategy selects every eligible step: all steps may execute
// concurrently.
type ParallelStepStrategy struct{}

func (ParallelStepStrategy) Candidates(steps []*Step, dirty []PodInstanceRequirement) []*Step {
	var out []*Step
	for _, st := range steps {
		if st.IsEligible(dirty) {
			out = append(out, st)
		}
	}
	return out
}

// Phase groups an ordered list of Steps under a StepStrategy.
type Phase struct {
	Name     string
	Steps    []*Step
	strategy StepStrategy

	mu          sync.Mutex
	interrupted bool
}

// NewPhase constructs a Phase. A nil strategy defaults to SerialStepStrategy,
// matching the common install/upgrade ordering.
func NewPhase(name string, steps []*Step, strategy StepStrategy) *Phase {
	if strategy == nil {
		strategy = SerialStepStrategy{}
	}
	return &Phase{Name: name, Steps: steps, strategy: strategy}
}

// Candidates returns the steps this phase's strategy currently selects for
// work, given the cluster-wide dirty asset set.
func (p *Phase) Candidates(dirty []PodInstanceRequirement) []*Step {
	if p.Interrupted() {
		return nil
	}
	return p.strategy.Candidates(p.Steps, dirty)
}

// Status aggregates this phase's status from its steps' statuses and the
// subset currently selected as candidates, given the cluster-wide dirty
// asset set (the same set CandidateSteps uses), so the reported status
// always reflects real step eligibility rather than a dirty-free view.
func (p *Phase) Status(dirty []PodInstanceRequirement) Status {
	children := make([]Status, len(p.Steps))
	for i, st := range p.Steps {
		children[i] = st.Status()
	}
	candidates := p.Candidates(dirty)
	candStatuses := make([]Status, len(candidates))
	for i, st := range candidates {
		candStatuses[i] = st.Status()
	}
	var errs []error
	for _, st := range p.Steps {
		if err := st.Errors(); err != nil {
			errs = append(errs, err)
		}
	}
	return Aggregate(children, candStatuses, errs, p.Interrupted())
}

// Interrupt marks the phase so no further steps become candidates until
// Continue is called.
func (p *Phase) Interrupt() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.interrupted = true
}

// Continue clears an interrupt set on this phase.
func (p *Phase) Continue() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.interrupted = false
}

// Interrupted reports whether this phase is currently interrupted.
func (p *Phase) Interrupted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.interrupted
}

// HasOperations reports whether any step in this phase still has work to
// do (is not COMPLETE).
func (p *Phase) HasOperations() bool {
	for _, st := range p.Steps {
		if st.Status() != StatusComplete {
			return true
		}
	}
	return false
}
