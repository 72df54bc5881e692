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

	mesos "github.com/mesos/mesos-go/mesosproto"

	"github.com/teletome/dcos-commons/processor"
)

// LeaderChecker reports whether this scheduler replica currently holds the
// leader lock (D5). A nil checker is treated as always-leader, useful in
// single-replica tests.
type LeaderChecker interface {
	IsLeader() bool
}

type alwaysLeader struct{}

func (alwaysLeader) IsLeader() bool { return true }

// Client is the concrete, in-core implementation of the offer-processor's
// Client contract. It composes directly over a Manager: every batch is
// evaluated against the active plan's current candidate steps, filtered by
// the dirty-asset set accumulated across every registered plan.
type Client struct {
	manager *Manager
	leader  LeaderChecker
}

// NewClient constructs a Client over manager. A nil leader defaults to
// always-leader.
func NewClient(manager *Manager, leader LeaderChecker) *Client {
	if leader == nil {
		leader = alwaysLeader{}
	}
	return &Client{manager: manager, leader: leader}
}

// Offers asks the active plan for its current candidate steps and lets
// each attempt, in order, to consume offers from the shared remaining
// pool. Offers no candidate step claims are returned as unused.
func (c *Client) Offers(batch []*mesos.Offer) (processor.OffersResponse, error) {
	if c.manager.ActivePlan() == nil || !c.leader.IsLeader() {
		return processor.OffersResponse{Result: processor.NotReady, UnusedOffers: batch}, nil
	}

	remaining := batch
	var resp processor.OffersResponse
	for _, step := range c.manager.CandidateSteps() {
		if len(remaining) == 0 {
			break
		}
		recs, unused, claimed := step.Evaluate(remaining)
		if claimed {
			resp.Recommendations = append(resp.Recommendations, recs...)
		}
		remaining = unused
	}

	resp.Result = processor.Processed
	resp.UnusedOffers = remaining
	return resp, nil
}

// UnexpectedResources always reports no unexpected resources: this client
// does not inspect unused offers for reserved-but-unrecognized resources,
// so the cleanup planner receives no input from it.
func (c *Client) UnexpectedResources(unused []*mesos.Offer) (processor.UnexpectedResourcesResponse, error) {
	return processor.UnexpectedResourcesResponse{Result: processor.Processed}, nil
}

// Status routes a task status update to whichever step, across every
// registered plan, carries a requirement naming that task. A status for a
// task no step recognizes is silently ignored; the reconciler is the
// system of record for unreconciled-task bookkeeping, not the plan.
func (c *Client) Status(status *mesos.TaskStatus) {
	taskID := status.GetTaskId().GetValue()
	for _, pl := range c.manager.Plans() {
		for _, ph := range pl.Phases {
			for _, st := range ph.Steps {
				req, ok := st.Requirement()
				if !ok {
					continue
				}
				if !containsName(req.TaskNames, taskID) {
					continue
				}
				applyStatus(st, status.GetState())
			}
		}
	}
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

func applyStatus(st *Step, state mesos.TaskState) {
	switch state {
	case mesos.TaskState_TASK_STAGING:
		st.MarkStarting()
	case mesos.TaskState_TASK_STARTING, mesos.TaskState_TASK_RUNNING:
		st.MarkStarted()
	case mesos.TaskState_TASK_FINISHED:
		st.MarkComplete()
	case mesos.TaskState_TASK_FAILED, mesos.TaskState_TASK_KILLED, mesos.TaskState_TASK_LOST, mesos.TaskState_TASK_ERROR:
		st.MarkError(fmt.Errorf("task %s entered terminal state %s", st.name, state))
	}
}
