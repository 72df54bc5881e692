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

// Package driver exposes the cluster-manager driver to the rest of the
// scheduler core through a single, lazily-populated, read-only-after-set
// handle. The distilled spec calls for a process-wide singleton; rather
// than subclass or use package-level mutable state directly, the handle is
// a small struct with an atomic pointer that every subsystem is
// constructed with (dependency-injected), set at registration (and again
// on re-registration) and never cleared.
package driver

import (
	"errors"
	"sync/atomic"

	mesos "github.com/mesos/mesos-go/mesosproto"
)

// ErrNoDriver is returned (and is fatal to callers) when a call requires
// the driver before it has been set by the registration callback.
var ErrNoDriver = errors.New("driver: no driver registered")

// Driver is the subset of the cluster-manager driver used by the core.
// Bound concretely by an adapter over mesos-go's scheduler.SchedulerDriver.
type Driver interface {
	DeclineOffer(offerID *mesos.OfferID, filters *mesos.Filters) error
	AcceptOffers(offerIDs []*mesos.OfferID, operations []*mesos.Offer_Operation, filters *mesos.Filters) error
	ReconcileTasks(statuses []*mesos.TaskStatus) error
	KillTask(taskID *mesos.TaskID) error
}

// Handle is process-wide, lazily populated, read-only after Set. Readers
// must treat absence as a fatal programming error (ErrNoDriver).
type Handle struct {
	d atomic.Pointer[Driver]
}

// NewHandle returns an empty, unset handle.
func NewHandle() *Handle {
	return &Handle{}
}

// Set installs the driver, replacing any previously installed one. Called
// from the registration callbacks (Registered and Reregistered).
func (h *Handle) Set(d Driver) {
	h.d.Store(&d)
}

// Get returns the installed driver, or ErrNoDriver if Set has not yet been
// called.
func (h *Handle) Get() (Driver, error) {
	p := h.d.Load()
	if p == nil {
		return nil, ErrNoDriver
	}
	return *p, nil
}

// MustGet returns the installed driver, panicking (a structural
// programming error, not a recoverable condition) if it is unset.
func (h *Handle) MustGet() Driver {
	d, err := h.Get()
	if err != nil {
		panic(err)
	}
	return d
}
