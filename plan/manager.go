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
	"fmt"
	"sync"
)

// Manager holds every plan known to a scheduler instance (install, update,
// uninstall, and any recovery plans) and tracks which one is currently
// active. Only the active plan's steps are ever offered work; this is what
// keeps an update plan from racing an uninstall plan over the same pod
// instances.
type Manager struct {
	mu     sync.RWMutex
	plans  map[string]*Plan
	active string
}

// NewManager constructs an empty Manager.
func NewManager() *Manager {
	return &Manager{plans: map[string]*Plan{}}
}

// AddPlan registers a plan under its own name, overwriting any existing
// plan of the same name. The first plan added becomes active by default.
func (m *Manager) AddPlan(p *Plan) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans[p.Name] = p
	if m.active == "" {
		m.active = p.Name
	}
}

// Plan returns the named plan, or nil if no such plan is registered.
func (m *Manager) Plan(name string) *Plan {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.plans[name]
}

// Plans returns every registered plan.
func (m *Manager) Plans() []*Plan {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Plan, 0, len(m.plans))
	for _, p := range m.plans {
		out = append(out, p)
	}
	return out
}

// SetActive switches which plan receives offer-evaluation candidates.
// Returns an error if name is not registered.
func (m *Manager) SetActive(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.plans[name]; !ok {
		return fmt.Errorf("plan: no such plan %q", name)
	}
	m.active = name
	return nil
}

// ActivePlan returns the currently active plan, or nil if none is set.
func (m *Manager) ActivePlan() *Plan {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.plans[m.active]
}

// DirtyAssets returns the PodInstanceRequirement of every mid-flight step
// across ALL registered plans, not just the active one: a step prepared
// under a previous active plan still locks its pod instance until it
// finishes.
func (m *Manager) DirtyAssets() []PodInstanceRequirement {
	return DirtyAssets(m.Plans())
}

// LaunchableTasks returns the task names named by every step's requirement
// across all registered plans.
func (m *Manager) LaunchableTasks() []string {
	return LaunchableTasks(m.Plans())
}

// CandidateSteps returns the active plan's candidate steps, filtered
// against the dirty-asset set accumulated from every plan.
func (m *Manager) CandidateSteps() []*Step {
	active := m.ActivePlan()
	if active == nil {
		return nil
	}
	return active.CandidateSteps(m.DirtyAssets())
}
