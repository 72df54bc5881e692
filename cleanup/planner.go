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

// Package cleanup converts unexpected reserved resources into an ordered
// list of destroy/unreserve recommendations. Pure function, no I/O.
package cleanup

import (
	"github.com/samber/lo"

	schedoffer "github.com/teletome/dcos-commons/offer"
)

// Plan builds the ordered cleanup recommendations for groups of unexpected
// resources. All DESTROY recommendations precede all UNRESERVE
// recommendations, respecting the resource lifecycle
// RESERVE -> CREATE -> DESTROY -> UNRESERVE.
func Plan(groups []schedoffer.Resources) []schedoffer.Recommendation {
	var destroys, unreserves []schedoffer.Recommendation

	for _, group := range groups {
		for _, res := range group.Unexpected {
			if schedoffer.IsPersistentVolume(res) {
				destroys = append(destroys, schedoffer.Destroy(group.Offer, res))
			}
			unreserves = append(unreserves, schedoffer.Unreserve(group.Offer, res))
		}
	}

	return append(destroys, unreserves...)
}

// ReferencedOfferIDs returns the set of offer ids that recs makes a
// recommendation against, used by the processor to compute the residue of
// unused offers that were not absorbed by cleanup.
func ReferencedOfferIDs(recs []schedoffer.Recommendation) map[string]struct{} {
	ids := lo.Reduce(recs, func(acc map[string]struct{}, rec schedoffer.Recommendation, _ int) map[string]struct{} {
		acc[rec.OfferID()] = struct{}{}
		return acc
	}, map[string]struct{}{})
	return ids
}
