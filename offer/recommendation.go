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

// Package offer holds the recommendation and grouping types shared between
// the cleanup planner, the offer processor, and the plan-backed client.
// Offers and resources are bound directly to mesos-go's protobuf types
// rather than a re-invented wire schema; the core does not define the
// cluster-manager protocol, it consumes it.
package offer

import (
	mesos "github.com/mesos/mesos-go/mesosproto"
)

// Recommendation is an intent to apply one operation against one offer.
type Recommendation struct {
	Offer     *mesos.Offer
	Operation *mesos.Offer_Operation
}

// OfferID returns the id of the offer this recommendation targets.
func (r Recommendation) OfferID() string {
	return r.Offer.GetId().GetValue()
}

// Launch builds a LAUNCH recommendation for the given tasks against offer o.
func Launch(o *mesos.Offer, tasks []*mesos.TaskInfo) Recommendation {
	t := mesos.Offer_Operation_LAUNCH
	return Recommendation{
		Offer: o,
		Operation: &mesos.Offer_Operation{
			Type:   &t,
			Launch: &mesos.Offer_Operation_Launch{TaskInfos: tasks},
		},
	}
}

// Reserve builds a RESERVE recommendation for one resource against offer o.
func Reserve(o *mesos.Offer, res *mesos.Resource) Recommendation {
	t := mesos.Offer_Operation_RESERVE
	return Recommendation{
		Offer: o,
		Operation: &mesos.Offer_Operation{
			Type:    &t,
			Reserve: &mesos.Offer_Operation_Reserve{Resources: []*mesos.Resource{res}},
		},
	}
}

// Create builds a CREATE recommendation for one persistent volume against
// offer o.
func Create(o *mesos.Offer, volume *mesos.Resource) Recommendation {
	t := mesos.Offer_Operation_CREATE
	return Recommendation{
		Offer: o,
		Operation: &mesos.Offer_Operation{
			Type:   &t,
			Create: &mesos.Offer_Operation_Create{Volumes: []*mesos.Resource{volume}},
		},
	}
}

// Destroy builds a DESTROY recommendation for one persistent volume against
// offer o. Must precede any Unreserve of the same resource lifecycle
// (RESERVE -> CREATE -> DESTROY -> UNRESERVE).
func Destroy(o *mesos.Offer, volume *mesos.Resource) Recommendation {
	t := mesos.Offer_Operation_DESTROY
	return Recommendation{
		Offer: o,
		Operation: &mesos.Offer_Operation{
			Type:    &t,
			Destroy: &mesos.Offer_Operation_Destroy{Volumes: []*mesos.Resource{volume}},
		},
	}
}

// Unreserve builds an UNRESERVE recommendation for one resource against
// offer o.
func Unreserve(o *mesos.Offer, res *mesos.Resource) Recommendation {
	t := mesos.Offer_Operation_UNRESERVE
	return Recommendation{
		Offer: o,
		Operation: &mesos.Offer_Operation{
			Type:      &t,
			Unreserve: &mesos.Offer_Operation_Unreserve{Resources: []*mesos.Resource{res}},
		},
	}
}

// Resources groups an Offer with the subset of its resources flagged as
// "unexpected" by the client -- candidates for the cleanup planner.
type Resources struct {
	Offer      *mesos.Offer
	Unexpected []*mesos.Resource
}

// IsPersistentVolume reports whether res carries a persistence marker,
// requiring a DESTROY before its UNRESERVE.
func IsPersistentVolume(res *mesos.Resource) bool {
	return res.GetDisk().GetPersistence() != nil
}
