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

package driver

import (
	mesos "github.com/mesos/mesos-go/mesosproto"
	"github.com/mesos/mesos-go/scheduler"
)

// MesosAdapter binds the core's minimal Driver interface onto a real
// mesos-go scheduler.SchedulerDriver, discarding the mesos.Status return
// value the core has no use for.
type MesosAdapter struct {
	Driver scheduler.SchedulerDriver
}

// NewMesosAdapter wraps d.
func NewMesosAdapter(d scheduler.SchedulerDriver) *MesosAdapter {
	return &MesosAdapter{Driver: d}
}

func (a *MesosAdapter) DeclineOffer(offerID *mesos.OfferID, filters *mesos.Filters) error {
	_, err := a.Driver.DeclineOffer(offerID, filters)
	return err
}

func (a *MesosAdapter) AcceptOffers(offerIDs []*mesos.OfferID, operations []*mesos.Offer_Operation, filters *mesos.Filters) error {
	_, err := a.Driver.AcceptOffers(offerIDs, operations, filters)
	return err
}

func (a *MesosAdapter) ReconcileTasks(statuses []*mesos.TaskStatus) error {
	_, err := a.Driver.ReconcileTasks(statuses)
	return err
}

func (a *MesosAdapter) KillTask(taskID *mesos.TaskID) error {
	_, err := a.Driver.KillTask(taskID)
	return err
}
