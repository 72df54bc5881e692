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

// PhaseStrategy selects which of a Plan's phases are candidates for work
// on a given pass.
type PhaseStrategy interface {
	Candidates(phases []*Phase, dirty []PodInstanceRequirement) []*Phase
}

// SerialPhaseStrategy runs phases one at a time, in order: a phase only
// becomes a candidate once every phase before it is COMPLETE.
type SerialPhaseStrategy struct{}

func (SerialPhaseStrategy) Candidates(phases []*Phase, dirty []PodInstanceRequirement) []*Phase {
	for _, ph := range phases {
		if ph.Status(dirty) == StatusComplete {
			continue
		}
		return []*Phase{ph}
	}
	return nil
}

// ParallelPhaseStrategy runs every incomplete phase concurrently.
type ParallelPhaseStrategy struct{}

func (ParallelPhaseStrategy) Candidates(phases []*Phase, dirty []PodInstanceRequirement) []*Phase {
	var out []*Phase
	for _, ph := range phases {
		if ph.Status(dirty) != StatusComplete {
			out = append(out, ph)
		}
	}
	return out
}

// DependencyPhaseStrategy runs phases according to an explicit dependency
// graph keyed by phase name: a phase is a candidate once every phase it
// depends on is COMPLETE.
type DependencyPhaseStrategy struct {
	DependsOn map[string][]string
}

func (d DependencyPhaseStrategy) Candidates(phases []*Phase, dirty []PodInstanceRequirement) []*Phase {
	byName := make(map[string]*Phase, len(phases))
	for _, ph := range phases {
		byName[ph.Name] = ph
	}

	var out []*Phase
	for _, ph := range phases {
		if ph.Status(dirty) == StatusComplete {
			continue
		}
		ready := true
		for _, depName := range d.DependsOn[ph.Name] {
			dep, ok := byName[depName]
			if !ok {
				continue
			}
			if dep.Status(dirty) != StatusComplete {
				ready = false
				break
			}
		}
		if ready {
			out = append(out, ph)
		}
	}
	return out
}

// Plan is the top-level unit of work: an ordered list of Phases under a
// PhaseStrategy, covering one workflow such as install, update, or
// uninstall.
type Plan struct {
	Name   string
	Phases []*Phase

	strategy PhaseStrategy

	mu          sync.Mutex
	interrupted bool
}

// NewPlan constructs a Plan. A nil strategy defaults to SerialPhaseStrategy.
func NewPlan(name string, phases []*Phase, strategy PhaseStrategy) *Plan {
	if strategy == nil {
		strategy = SerialPhaseStrategy{}
	}
	return &Plan{Name: name, Phases: phases, strategy: strategy}
}

// CandidatePhases returns the phases this plan's strategy currently
// selects for work.
func (p *Plan) CandidatePhases(dirty []PodInstanceRequirement) []*Phase {
	if p.Interrupted() {
		return nil
	}
	return p.strategy.Candidates(p.Phases, dirty)
}

// CandidateSteps flattens every candidate phase's candidate steps into a
// single list, the set of steps eligible for offer evaluation this pass.
func (p *Plan) CandidateSteps(dirty []PodInstanceRequirement) []*Step {
	var out []*Step
	for _, ph := range p.CandidatePhases(dirty) {
		out = append(out, ph.Candidates(dirty)...)
	}
	return out
}

// Status aggregates this plan's status from its phases, given the
// cluster-wide dirty asset set (the same set CandidateSteps uses), so the
// reported status always reflects real step eligibility rather than a
// dirty-free view.
func (p *Plan) Status(dirty []PodInstanceRequirement) Status {
	children := make([]Status, len(p.Phases))
	for i, ph := range p.Phases {
		children[i] = ph.Status(dirty)
	}
	candidates := p.CandidatePhases(dirty)
	candStatuses := make([]Status, len(candidates))
	for i, ph := range candidates {
		candStatuses[i] = ph.Status(dirty)
	}
	return Aggregate(children, candStatuses, nil, p.Interrupted())
}

// HasOperations reports whether the plan is not interrupted and some phase
// in it still has outstanding work.
func (p *Plan) HasOperations() bool {
	if p.Interrupted() {
		return false
	}
	for _, ph := range p.Phases {
		if ph.HasOperations() {
			return true
		}
	}
	return false
}

// Interrupt halts the plan: no further phase becomes a candidate until
// Continue is called. Phase-level interrupts set independently are
// unaffected.
func (p *Plan) Interrupt() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.interrupted = true
}

// Continue clears a plan-level interrupt.
func (p *Plan) Continue() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.interrupted = false
}

// Interrupted reports whether this plan is currently interrupted.
func (p *Plan) Interrupted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.interrupted
}
