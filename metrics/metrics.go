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

// Package metrics defines the pluggable metrics sink used by the offer
// processor and reconciler, with a Prometheus-backed default
// implementation. A StatsD sink remains swappable but is wired up outside
// the core, same as in the distilled spec.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Sink is the metrics surface the core writes to. Counters for enqueued
// offers, processed offers, short/long declines, recommendation counts,
// and a timer for offer-processing duration.
type Sink interface {
	OffersEnqueued(n int)
	OffersProcessed(n int)
	DeclinedShort(n int)
	DeclinedLong(n int)
	Recommendations(n int)
	ProcessingDuration(d time.Duration)
	ReconcileCalls(phase string)
}

// Noop discards every observation. Useful for tests and for
// single-threaded/offline tooling that does not want a Prometheus
// registry.
type Noop struct{}

func (Noop) OffersEnqueued(int)            {}
func (Noop) OffersProcessed(int)           {}
func (Noop) DeclinedShort(int)             {}
func (Noop) DeclinedLong(int)              {}
func (Noop) Recommendations(int)           {}
func (Noop) ProcessingDuration(time.Duration) {}
func (Noop) ReconcileCalls(string)         {}

// Prometheus is the default production Sink.
type Prometheus struct {
	enqueued        prometheus.Counter
	processed       prometheus.Counter
	declinedShort   prometheus.Counter
	declinedLong    prometheus.Counter
	recommendations prometheus.Counter
	duration        prometheus.Histogram
	reconcileCalls  *prometheus.CounterVec
}

// NewPrometheus registers and returns a Prometheus sink on reg. Pass
// prometheus.DefaultRegisterer for the global registry, or a fresh
// *prometheus.Registry in tests to avoid collisions across runs.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		enqueued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scheduler_offers_enqueued_total",
			Help: "Offers accepted into the offer queue.",
		}),
		processed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scheduler_offers_processed_total",
			Help: "Offers whose batch finished evaluation.",
		}),
		declinedShort: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scheduler_offers_declined_short_total",
			Help: "Offers declined using the short refuse interval.",
		}),
		declinedLong: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scheduler_offers_declined_long_total",
			Help: "Offers declined using the long refuse interval.",
		}),
		recommendations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scheduler_offer_recommendations_total",
			Help: "Recommendations accepted against offers.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scheduler_offer_batch_duration_seconds",
			Help:    "Time spent evaluating one batch of offers.",
			Buckets: prometheus.DefBuckets,
		}),
		reconcileCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scheduler_reconcile_calls_total",
			Help: "Reconciler driver calls, labeled by phase (explicit/implicit).",
		}, []string{"phase"}),
	}
	reg.MustRegister(p.enqueued, p.processed, p.declinedShort, p.declinedLong,
		p.recommendations, p.duration, p.reconcileCalls)
	return p
}

func (p *Prometheus) OffersEnqueued(n int)  { p.enqueued.Add(float64(n)) }
func (p *Prometheus) OffersProcessed(n int) { p.processed.Add(float64(n)) }
func (p *Prometheus) DeclinedShort(n int)   { p.declinedShort.Add(float64(n)) }
func (p *Prometheus) DeclinedLong(n int)    { p.declinedLong.Add(float64(n)) }
func (p *Prometheus) Recommendations(n int) { p.recommendations.Add(float64(n)) }
func (p *Prometheus) ProcessingDuration(d time.Duration) {
	p.duration.Observe(d.Seconds())
}
func (p *Prometheus) ReconcileCalls(phase string) {
	p.reconcileCalls.WithLabelValues(phase).Inc()
}
