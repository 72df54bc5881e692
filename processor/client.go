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

package processor

import (
	mesos "github.com/mesos/mesos-go/mesosproto"

	schedoffer "github.com/teletome/dcos-commons/offer"
)

// Result mirrors the three outcomes the client can report for a call.
type Result int

const (
	// Processed means the client looked at every offer in the batch.
	Processed Result = iota
	// NotReady means the client could not look at the offers at all (not
	// yet initialized, leadership lost); the processor must use the short
	// decline interval.
	NotReady
	// Uninstalled means the framework is being torn down.
	Uninstalled
)

func (r Result) String() string {
	switch r {
	case Processed:
		return "PROCESSED"
	case NotReady:
		return "NOT_READY"
	case Uninstalled:
		return "UNINSTALLED"
	default:
		return "UNKNOWN"
	}
}

// OffersResponse is the client's answer to one batch of offers.
type OffersResponse struct {
	Result          Result
	UnusedOffers    []*mesos.Offer
	Recommendations []schedoffer.Recommendation
}

// UnexpectedResourcesResponse is the client's answer describing which
// resources on the unused offers are reserved but not recognized by the
// client, and so are candidates for cleanup.
type UnexpectedResourcesResponse struct {
	Result         Result
	OfferResources []schedoffer.Resources
}

// Client is the required contract (C8): the processor calls Offers once
// per batch, then UnexpectedResources on whatever the client left unused;
// the framework runner routes every task status update through Status.
type Client interface {
	Offers(batch []*mesos.Offer) (OffersResponse, error)
	UnexpectedResources(unused []*mesos.Offer) (UnexpectedResourcesResponse, error)
	Status(status *mesos.TaskStatus)
}
