package reconcile

import (
	"context"
	"sync"
	"testing"
	"time"

	mesos "github.com/mesos/mesos-go/mesosproto"

	"github.com/teletome/dcos-commons/clock"
	schedcommonsdriver "github.com/teletome/dcos-commons/driver"
	"github.com/teletome/dcos-commons/metrics"
)

type fakeStore struct {
	statuses []*mesos.TaskStatus
}

func (f *fakeStore) FetchStatuses(context.Context) ([]*mesos.TaskStatus, error) {
	return f.statuses, nil
}

type recordingDriver struct {
	mu    sync.Mutex
	calls [][]*mesos.TaskStatus
}

func (r *recordingDriver) DeclineOffer(*mesos.OfferID, *mesos.Filters) error { return nil }
func (r *recordingDriver) AcceptOffers([]*mesos.OfferID, []*mesos.Offer_Operation, *mesos.Filters) error {
	return nil
}
func (r *recordingDriver) ReconcileTasks(statuses []*mesos.TaskStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := append([]*mesos.TaskStatus{}, statuses...)
	r.calls = append(r.calls, cp)
	return nil
}
func (r *recordingDriver) KillTask(*mesos.TaskID) error { return nil }

func (r *recordingDriver) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func taskStatus(id string, state mesos.TaskState) *mesos.TaskStatus {
	return &mesos.TaskStatus{TaskId: &mesos.TaskID{Value: &id}, State: &state}
}

func newTestReconciler(store StateStore, fc *clock.Fake) (*Reconciler, *recordingDriver) {
	h := schedcommonsdriver.NewHandle()
	rd := &recordingDriver{}
	h.Set(rd)
	r := New(h, store, metrics.Noop{}, WithClock(fc))
	return r, rd
}

func TestStartOnlyInsertsNonTerminalStatuses(t *testing.T) {
	store := &fakeStore{statuses: []*mesos.TaskStatus{
		taskStatus("t1", mesos.TaskState_TASK_RUNNING),
		taskStatus("t2", mesos.TaskState_TASK_FINISHED),
		taskStatus("t3", mesos.TaskState_TASK_STAGING),
	}}
	r, _ := newTestReconciler(store, clock.NewFake(time.Unix(0, 0)))

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.UnreconciledCount() != 2 {
		t.Fatalf("expected 2 non-terminal statuses, got %d", r.UnreconciledCount())
	}
}

func TestUpdateIsIdempotentNoOpWhenAbsent(t *testing.T) {
	store := &fakeStore{statuses: []*mesos.TaskStatus{taskStatus("t1", mesos.TaskState_TASK_RUNNING)}}
	r, _ := newTestReconciler(store, clock.NewFake(time.Unix(0, 0)))
	r.Start(context.Background())

	r.Update(taskStatus("does-not-exist", mesos.TaskState_TASK_FINISHED))
	if r.UnreconciledCount() != 1 {
		t.Fatalf("expected no-op update to leave count at 1, got %d", r.UnreconciledCount())
	}

	r.Update(taskStatus("t1", mesos.TaskState_TASK_FINISHED))
	if r.UnreconciledCount() != 0 {
		t.Fatalf("expected t1 removed, got count %d", r.UnreconciledCount())
	}

	// Removing again is a no-op.
	r.Update(taskStatus("t1", mesos.TaskState_TASK_FINISHED))
	if r.UnreconciledCount() != 0 {
		t.Fatalf("expected count to remain 0, got %d", r.UnreconciledCount())
	}
}

// S5 end-to-end scenario from the spec. The fake clock starts well past the
// epoch: Start resets lastRequestTimeMs to 0, so a clock reading of 0 would
// still fall inside the first backoff window.
func TestScenarioS5TwoPhaseBackoffAndLatch(t *testing.T) {
	fc := clock.NewFake(time.Unix(1_000_000, 0))
	store := &fakeStore{statuses: []*mesos.TaskStatus{
		taskStatus("t1", mesos.TaskState_TASK_RUNNING),
		taskStatus("t2", mesos.TaskState_TASK_RUNNING),
	}}
	r, rd := newTestReconciler(store, fc)
	r.Start(context.Background())

	// First reconcile at t=0: triggers explicit call with {t1, t2}.
	r.Reconcile()
	if rd.callCount() != 1 {
		t.Fatalf("expected 1 explicit call, got %d", rd.callCount())
	}
	if len(rd.calls[0]) != 2 {
		t.Fatalf("expected 2 statuses in first call, got %d", len(rd.calls[0]))
	}
	if got := r.NextBackoffDuration(); got != 8*time.Second {
		t.Fatalf("expected backoff to become 8s, got %v", got)
	}

	r.Update(taskStatus("t1", mesos.TaskState_TASK_FINISHED))

	// Second reconcile at t=100ms: timer hasn't expired, no-op.
	fc.Advance(100 * time.Millisecond)
	r.Reconcile()
	if rd.callCount() != 1 {
		t.Fatalf("expected no new call before backoff expires, got %d total", rd.callCount())
	}

	// At t=8001ms: backoff has expired, reconcile with {t2}, backoff -> 16s.
	fc.Advance(7901 * time.Millisecond)
	r.Reconcile()
	if rd.callCount() != 2 {
		t.Fatalf("expected 2nd explicit call, got %d", rd.callCount())
	}
	if len(rd.calls[1]) != 1 || rd.calls[1][0].GetTaskId().GetValue() != "t2" {
		t.Fatalf("expected 2nd call to contain only t2, got %v", rd.calls[1])
	}
	if got := r.NextBackoffDuration(); got != 16*time.Second {
		t.Fatalf("expected backoff to become 16s, got %v", got)
	}

	r.Update(taskStatus("t2", mesos.TaskState_TASK_FINISHED))

	// Unreconciled set now empty: next reconcile triggers the implicit
	// (empty) call and latches.
	r.Reconcile()
	if rd.callCount() != 3 {
		t.Fatalf("expected implicit call, got %d total calls", rd.callCount())
	}
	if len(rd.calls[2]) != 0 {
		t.Fatalf("expected implicit call to carry no statuses, got %v", rd.calls[2])
	}

	// Further reconciles no-op until Start() is called again.
	r.Reconcile()
	r.Reconcile()
	if rd.callCount() != 3 {
		t.Fatalf("expected latched reconciler to stay at 3 calls, got %d", rd.callCount())
	}

	// Start() re-reads the store and resets the latch. The store now holds
	// the terminal statuses the framework would have persisted.
	store.statuses = []*mesos.TaskStatus{
		taskStatus("t1", mesos.TaskState_TASK_FINISHED),
		taskStatus("t2", mesos.TaskState_TASK_FINISHED),
	}
	r.Start(context.Background())
	if !r.IsReconciled() {
		t.Fatal("expected reconciler to report reconciled with no non-terminal statuses remaining")
	}
	r.Reconcile()
	if rd.callCount() != 4 {
		t.Fatalf("expected Start to clear the latch so a new implicit call is made, got %d total calls", rd.callCount())
	}
}

// Property 4: backoff doubles each explicit call, clamped at 30s.
func TestBackoffDoublingSequence(t *testing.T) {
	fc := clock.NewFake(time.Unix(1_000_000, 0))
	store := &fakeStore{statuses: []*mesos.TaskStatus{taskStatus("t1", mesos.TaskState_TASK_RUNNING)}}
	r, rd := newTestReconciler(store, fc)
	r.Start(context.Background())

	want := []time.Duration{8 * time.Second, 16 * time.Second, 30 * time.Second, 30 * time.Second, 30 * time.Second}
	for i, w := range want {
		r.Reconcile()
		if rd.callCount() != i+1 {
			t.Fatalf("iteration %d: expected %d calls, got %d", i, i+1, rd.callCount())
		}
		if got := r.NextBackoffDuration(); got != w {
			t.Fatalf("iteration %d: expected backoff %v, got %v", i, w, got)
		}
		fc.Advance(w + time.Millisecond)
	}
}

func TestNoDriverCallWhileLockHeld(t *testing.T) {
	// A driver whose ReconcileTasks call re-enters the reconciler would
	// deadlock if the lock were still held; this proves the
	// snapshot-then-release pattern by calling Update from another
	// goroutine inside ReconcileTasks and waiting for it to finish.
	fc := clock.NewFake(time.Unix(1_000_000, 0))
	store := &fakeStore{statuses: []*mesos.TaskStatus{taskStatus("t1", mesos.TaskState_TASK_RUNNING)}}
	h := schedcommonsdriver.NewHandle()

	var r *Reconciler
	reentrant := &reentrantDriver{onReconcile: func() {
		done := make(chan struct{})
		go func() {
			r.Update(taskStatus("t1", mesos.TaskState_TASK_FINISHED))
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("deadlock: Update blocked while ReconcileTasks held the lock")
		}
	}}
	h.Set(reentrant)
	r = New(h, store, metrics.Noop{}, WithClock(fc))
	r.Start(context.Background())
	r.Reconcile()
	if r.UnreconciledCount() != 0 {
		t.Fatalf("expected the re-entrant Update to have removed t1, got count %d", r.UnreconciledCount())
	}
}

type reentrantDriver struct {
	onReconcile func()
}

func (reentrantDriver) DeclineOffer(*mesos.OfferID, *mesos.Filters) error { return nil }
func (reentrantDriver) AcceptOffers([]*mesos.OfferID, []*mesos.Offer_Operation, *mesos.Filters) error {
	return nil
}
func (d reentrantDriver) ReconcileTasks(statuses []*mesos.TaskStatus) error {
	d.onReconcile()
	return nil
}
func (reentrantDriver) KillTask(*mesos.TaskID) error { return nil }
