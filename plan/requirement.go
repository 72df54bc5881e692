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

	"github.com/samber/lo"
)

// PodInstanceRequirement names a pod_instance (type + index) and the set
// of task names a step intends to launch for it. Two requirements
// conflict iff they name the same pod_instance, regardless of task set
// overlap.
type PodInstanceRequirement struct {
	PodType   string
	PodIndex  int
	TaskNames []string
}

// PodInstance is the (type, index) identity used for conflict checks.
func (r PodInstanceRequirement) PodInstance() string {
	return fmt.Sprintf("%s-%d", r.PodType, r.PodIndex)
}

// Conflicts reports whether r and other name the same pod_instance.
func (r PodInstanceRequirement) Conflicts(other PodInstanceRequirement) bool {
	return r.PodInstance() == other.PodInstance()
}

// DirtyAssets returns the set of PodInstanceRequirement for every step
// across plans that is currently PREPARED or STARTING and carries a
// requirement. Used to prevent two steps from competing for the same pod
// instance while one is mid-flight.
func DirtyAssets(plans []*Plan) []PodInstanceRequirement {
	var dirty []PodInstanceRequirement
	seen := map[string]struct{}{}
	for _, pl := range plans {
		for _, ph := range pl.Phases {
			for _, st := range ph.Steps {
				status := st.Status()
				if status != StatusPrepared && status != StatusStarting {
					continue
				}
				req, ok := st.Requirement()
				if !ok {
					continue
				}
				if _, dup := seen[req.PodInstance()]; dup {
					continue
				}
				seen[req.PodInstance()] = struct{}{}
				dirty = append(dirty, req)
			}
		}
	}
	return dirty
}

// LaunchableTasks returns the set of task names named across every step's
// requirement in plans.
func LaunchableTasks(plans []*Plan) []string {
	var names []string
	for _, pl := range plans {
		for _, ph := range pl.Phases {
			for _, st := range ph.Steps {
				req, ok := st.Requirement()
				if !ok {
					continue
				}
				names = append(names, req.TaskNames...)
			}
		}
	}
	return lo.Uniq(names)
}

// conflictsWithAny reports whether req conflicts with any element of dirty.
func conflictsWithAny(req PodInstanceRequirement, dirty []PodInstanceRequirement) bool {
	return lo.ContainsBy(dirty, func(other PodInstanceRequirement) bool {
		return req.Conflicts(other)
	})
}
