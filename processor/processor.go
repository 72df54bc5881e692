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

// Package processor owns the offer queue, runs the single consumer loop,
// invokes the client, declines unused offers, and executes the client's
// and the cleanup planner's recommendations against the driver.
package processor

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gogo/protobuf/proto"
	log "github.com/golang/glog"
	mesos "github.com/mesos/mesos-go/mesosproto"

	"github.com/teletome/dcos-commons/cleanup"
	"github.com/teletome/dcos-commons/clock"
	"github.com/teletome/dcos-commons/driver"
	"github.com/teletome/dcos-commons/metrics"
	schedoffer "github.com/teletome/dcos-commons/offer"
	"github.com/teletome/dcos-commons/offerqueue"
)

const (
	// ShortDeclineSeconds is used when the scheduler wants the offer back
	// soon: queue overflow, NOT_READY clients, transient errors.
	ShortDeclineSeconds = 5.0
	// LongDeclineSeconds is used when both the client and the cleanup
	// check reported PROCESSED and still left offers unused: "not
	// interested for a while".
	LongDeclineSeconds = 1800.0

	awaitPollInterval = 100 * time.Millisecond
	awaitTimeout       = 5 * time.Second
)

// ErrAwaitTimeout is the fatal state error raised by AwaitOffersProcessed
// when offersInProgress does not drain within awaitTimeout. Test-only path.
var ErrAwaitTimeout = errors.New("processor: timed out waiting for offers to finish processing")

// Processor owns the queue, the in-progress bookkeeping, and the single
// consumer loop that calls into the client.
type Processor struct {
	queue   *offerqueue.Queue
	driver  *driver.Handle
	client  Client
	metrics metrics.Sink
	clock   clock.Clock

	// singleThreaded runs the consumer synchronously inside Enqueue
	// instead of spawning a dedicated goroutine. Visible-for-testing hook,
	// expressed as a constructor option rather than subclassing.
	singleThreaded bool

	inProgressMu sync.Mutex
	inProgress   map[string]struct{}

	initializedMu sync.RWMutex
	initialized   bool

	startOnce sync.Once

	// Shutdown terminates the process on a fatal error. Overridable in
	// tests so a client-evaluation failure doesn't actually os.Exit the
	// test binary.
	Shutdown func(code int)
}

// Option configures a Processor at construction time.
type Option func(*Processor)

// WithSingleThreaded makes Enqueue call the consumer routine synchronously
// instead of relying on a background goroutine. Intended for tests and for
// tooling that drives the processor deterministically.
func WithSingleThreaded() Option {
	return func(p *Processor) { p.singleThreaded = true }
}

// WithClock overrides the time source. Defaults to clock.Real.
func WithClock(c clock.Clock) Option {
	return func(p *Processor) { p.clock = c }
}

// New constructs a Processor. queueCapacity is forwarded to offerqueue.New
// (zero means unbounded).
func New(queueCapacity int, d *driver.Handle, c Client, m metrics.Sink, opts ...Option) *Processor {
	p := &Processor{
		queue:      offerqueue.New(queueCapacity),
		driver:     d,
		client:     c,
		metrics:    m,
		clock:      clock.Real,
		inProgress: map[string]struct{}{},
		Shutdown:   os.Exit,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// MarkInitialized flips the initialization gate open. Until this is
// called, a consumer woken with an empty batch returns without touching
// downstream state (it may have been woken before registration finished).
func (p *Processor) MarkInitialized() {
	p.initializedMu.Lock()
	p.initialized = true
	p.initializedMu.Unlock()
}

func (p *Processor) isInitialized() bool {
	p.initializedMu.RLock()
	defer p.initializedMu.RUnlock()
	return p.initialized
}

// Start is idempotent. In multithreaded mode it spawns the single
// consumer goroutine; in single-threaded mode it does nothing (Enqueue
// drives evaluation itself).
func (p *Processor) Start() {
	if p.singleThreaded {
		return
	}
	p.startOnce.Do(func() {
		go p.consumerLoop()
	})
}

func (p *Processor) consumerLoop() {
	for {
		batch := p.queue.TakeAll()
		p.runBatch(batch)
	}
}

func (p *Processor) runBatch(batch []*mesos.Offer) {
	if len(batch) == 0 {
		if !p.isInitialized() {
			// The consumer may be woken before the scheduler has finished
			// registering; don't touch downstream state yet.
			return
		}
		// Spurious wake, or a close with nothing buffered.
		return
	}

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("processor: fatal error evaluating batch, exiting: %v", r)
			p.Shutdown(1)
		}
	}()

	p.evaluate(batch)
}

// Enqueue atomically adds each offer's id to offersInProgress, then tries
// to buffer each offer. An offer rejected by the bounded queue is declined
// for the short interval first, and only then removed from
// offersInProgress -- the removal strictly follows the decline call.
func (p *Processor) Enqueue(offers []*mesos.Offer) {
	if len(offers) == 0 {
		return
	}

	p.inProgressMu.Lock()
	for _, o := range offers {
		p.inProgress[o.GetId().GetValue()] = struct{}{}
	}
	p.inProgressMu.Unlock()
	p.metrics.OffersEnqueued(len(offers))

	for _, o := range offers {
		if p.queue.Offer(o) {
			continue
		}
		log.Warningf("processor: offer queue full, declining offer %s", o.GetId().GetValue())
		p.declineShort(o)
		p.inProgressMu.Lock()
		delete(p.inProgress, o.GetId().GetValue())
		p.inProgressMu.Unlock()
	}

	if p.singleThreaded {
		batch := p.queue.TakeAll()
		p.runBatch(batch)
	}
}

// Dequeue does a best-effort removal from the queue, used when the
// cluster manager rescinds an offer.
func (p *Processor) Dequeue(offerID string) bool {
	return p.queue.Remove(offerID)
}

// AwaitOffersProcessed polls offersInProgress until it drains, or raises a
// fatal state error after 5 seconds. Testing aid.
func (p *Processor) AwaitOffersProcessed() error {
	deadline := p.clock.Now().Add(awaitTimeout)
	for {
		p.inProgressMu.Lock()
		n := len(p.inProgress)
		p.inProgressMu.Unlock()
		if n == 0 {
			return nil
		}
		if p.clock.Now().After(deadline) {
			return ErrAwaitTimeout
		}
		time.Sleep(awaitPollInterval)
	}
}

func (p *Processor) evaluate(batch []*mesos.Offer) {
	start := p.clock.Now()
	defer func() {
		p.metrics.ProcessingDuration(p.clock.Now().Sub(start))
		p.metrics.OffersProcessed(len(batch))

		// The in-progress bookkeeping is cleared unconditionally: if
		// evaluation above panicked, the deferred recover in runBatch
		// still unwinds through this defer first, so offersInProgress
		// never gets stuck and AwaitOffersProcessed never deadlocks.
		p.inProgressMu.Lock()
		for _, o := range batch {
			delete(p.inProgress, o.GetId().GetValue())
		}
		p.inProgressMu.Unlock()
	}()

	offersResp, err := p.client.Offers(batch)
	if err != nil {
		panic(fmt.Errorf("client.Offers failed: %w", err))
	}

	unexpectedResp, err := p.client.UnexpectedResources(offersResp.UnusedOffers)
	if err != nil {
		panic(fmt.Errorf("client.UnexpectedResources failed: %w", err))
	}

	cleanupRecs := cleanup.Plan(unexpectedResp.OfferResources)
	referenced := cleanup.ReferencedOfferIDs(cleanupRecs)

	var finalUnused []*mesos.Offer
	for _, o := range offersResp.UnusedOffers {
		if _, ok := referenced[o.GetId().GetValue()]; !ok {
			finalUnused = append(finalUnused, o)
		}
	}

	if len(finalUnused) > 0 {
		bothProcessed := offersResp.Result == Processed && unexpectedResp.Result == Processed
		for _, o := range finalUnused {
			if bothProcessed {
				p.declineLong(o)
			} else {
				p.declineShort(o)
			}
		}
	}

	allRecs := append(append([]schedoffer.Recommendation{}, offersResp.Recommendations...), cleanupRecs...)
	p.accept(allRecs)
}

// accept groups recommendations by offer id and issues one AcceptOffers
// call per offer, preserving the caller's ordering within that offer's
// operation list (cleanup recommendations are already DESTROY-before-
// UNRESERVE internally, and are appended after the client's own
// recommendations).
func (p *Processor) accept(recs []schedoffer.Recommendation) {
	if len(recs) == 0 {
		return
	}
	p.metrics.Recommendations(len(recs))

	order := make([]string, 0, len(recs))
	byOffer := map[string][]*mesos.Offer_Operation{}
	offerByID := map[string]*mesos.Offer{}
	for _, rec := range recs {
		id := rec.OfferID()
		if _, seen := byOffer[id]; !seen {
			order = append(order, id)
		}
		byOffer[id] = append(byOffer[id], rec.Operation)
		offerByID[id] = rec.Offer
	}

	d := p.driver.MustGet()
	for _, id := range order {
		offerID := offerByID[id].GetId()
		if err := d.AcceptOffers([]*mesos.OfferID{offerID}, byOffer[id], &mesos.Filters{}); err != nil {
			log.Errorf("processor: AcceptOffers failed for offer %s: %v", id, err)
		}
	}
}

func (p *Processor) declineShort(o *mesos.Offer) {
	p.decline(o, ShortDeclineSeconds)
	p.metrics.DeclinedShort(1)
}

func (p *Processor) declineLong(o *mesos.Offer) {
	p.decline(o, LongDeclineSeconds)
	p.metrics.DeclinedLong(1)
}

func (p *Processor) decline(o *mesos.Offer, refuseSeconds float64) {
	d := p.driver.MustGet()
	filters := &mesos.Filters{RefuseSeconds: proto.Float64(refuseSeconds)}
	if err := d.DeclineOffer(o.GetId(), filters); err != nil {
		log.Errorf("processor: DeclineOffer failed for offer %s: %v", o.GetId().GetValue(), err)
	}
}
