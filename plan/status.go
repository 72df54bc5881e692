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

// Package plan models long-running multi-stage workflows (install, update,
// uninstall) as a hierarchy of Plans -> Phases -> Steps, each with a status
// lifecycle, and exposes which work is currently eligible to consume
// offers.
package plan

import "github.com/samber/lo"

// Status is the finite, order-significant set of states a Step, Phase, or
// Plan can be in.
type Status int

const (
	StatusError Status = iota
	StatusWaiting
	StatusPending
	StatusPrepared
	StatusStarting
	StatusStarted
	StatusInProgress
	StatusComplete
)

func (s Status) String() string {
	switch s {
	case StatusError:
		return "ERROR"
	case StatusWaiting:
		return "WAITING"
	case StatusPending:
		return "PENDING"
	case StatusPrepared:
		return "PREPARED"
	case StatusStarting:
		return "STARTING"
	case StatusStarted:
		return "STARTED"
	case StatusInProgress:
		return "IN_PROGRESS"
	case StatusComplete:
		return "COMPLETE"
	default:
		return "UNKNOWN"
	}
}

// IsTerminal reports whether the status represents finished work that is
// never again eligible: COMPLETE, or having accumulated errors is handled
// separately since ERROR is carried alongside an error list rather than
// being purely a status value.
func (s Status) IsTerminal() bool {
	return s == StatusComplete
}

// Aggregate computes the status of a parent element (Phase or Plan) from
// its children's statuses, the subset of those children its strategy has
// selected as candidates, its own accumulated errors, and whether it (or
// an ancestor) is interrupted. It is a pure function: it never consults
// the parent's own cached status, so there is no cycle. Evaluation is
// ordered; the first matching clause wins. The "all children COMPLETE"
// clause is checked only after the "COMPLETE child + candidate still
// making progress" clause, since a retried/redeployed candidate can
// coexist with an otherwise-COMPLETE child set and must still read as
// IN_PROGRESS.
func Aggregate(children []Status, candidates []Status, errs []error, interrupted bool) Status {
	hasChildError := lo.ContainsBy(children, func(s Status) bool { return s == StatusError })
	if len(errs) > 0 || hasChildError {
		return StatusError
	}

	hasCompleteChild := lo.ContainsBy(children, func(s Status) bool { return s == StatusComplete })
	candidateMakingProgress := lo.ContainsBy(candidates, func(s Status) bool {
		return s == StatusPending || s == StatusStarting || s == StatusStarted
	})
	if hasCompleteChild && candidateMakingProgress {
		return StatusInProgress
	}

	if len(children) > 0 && lo.EveryBy(children, func(s Status) bool { return s == StatusComplete }) {
		return StatusComplete
	}

	if interrupted {
		return StatusWaiting
	}

	if lo.ContainsBy(children, func(s Status) bool { return s == StatusPrepared }) {
		return StatusInProgress
	}

	if lo.ContainsBy(candidates, func(s Status) bool { return s == StatusWaiting }) {
		return StatusWaiting
	}

	if lo.ContainsBy(candidates, func(s Status) bool { return s == StatusInProgress }) {
		return StatusInProgress
	}

	if lo.ContainsBy(candidates, func(s Status) bool { return s == StatusPending }) {
		return StatusPending
	}

	if lo.ContainsBy(children, func(s Status) bool { return s == StatusWaiting }) {
		return StatusWaiting
	}

	if lo.ContainsBy(candidates, func(s Status) bool { return s == StatusStarting }) {
		return StatusStarting
	}

	if lo.ContainsBy(candidates, func(s Status) bool { return s == StatusStarted }) {
		return StatusStarted
	}

	return StatusError
}
