package offerqueue

import (
	"testing"
	"time"

	mesos "github.com/mesos/mesos-go/mesosproto"
)

func offerWithID(id string) *mesos.Offer {
	return &mesos.Offer{Id: &mesos.OfferID{Value: &id}}
}

func TestOfferRejectsAtCapacity(t *testing.T) {
	q := New(1)
	if !q.Offer(offerWithID("a")) {
		t.Fatal("expected first offer to be accepted")
	}
	if q.Offer(offerWithID("b")) {
		t.Fatal("expected second offer to be rejected at capacity 1")
	}
	if q.Len() != 1 {
		t.Fatalf("expected len 1, got %d", q.Len())
	}
}

func TestZeroCapacityIsUnbounded(t *testing.T) {
	q := New(0)
	for i := 0; i < 1000; i++ {
		if !q.Offer(offerWithID("x")) {
			t.Fatalf("offer %d unexpectedly rejected in unbounded mode", i)
		}
	}
}

func TestTakeAllDrainsAtomically(t *testing.T) {
	q := New(0)
	q.Offer(offerWithID("a"))
	q.Offer(offerWithID("b"))
	q.Offer(offerWithID("c"))

	got := q.TakeAll()
	if len(got) != 3 {
		t.Fatalf("expected 3 offers drained, got %d", len(got))
	}
	if q.Len() != 0 {
		t.Fatalf("expected queue empty after TakeAll, got len %d", q.Len())
	}
}

func TestTakeAllBlocksUntilOffer(t *testing.T) {
	q := New(0)
	done := make(chan []*mesos.Offer, 1)
	go func() {
		done <- q.TakeAll()
	}()

	select {
	case <-done:
		t.Fatal("TakeAll returned before any offer was queued")
	case <-time.After(50 * time.Millisecond):
	}

	q.Offer(offerWithID("a"))

	select {
	case got := <-done:
		if len(got) != 1 {
			t.Fatalf("expected 1 offer, got %d", len(got))
		}
	case <-time.After(time.Second):
		t.Fatal("TakeAll did not unblock after an offer was queued")
	}
}

func TestCloseUnblocksWithEmptySlice(t *testing.T) {
	q := New(0)
	done := make(chan []*mesos.Offer, 1)
	go func() {
		done <- q.TakeAll()
	}()
	time.Sleep(20 * time.Millisecond)
	q.Close()

	select {
	case got := <-done:
		if got != nil {
			t.Fatalf("expected nil/empty slice on closed+empty wake, got %v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("TakeAll did not unblock on Close")
	}
}

func TestRemoveBestEffort(t *testing.T) {
	q := New(0)
	q.Offer(offerWithID("a"))
	q.Offer(offerWithID("b"))

	if !q.Remove("a") {
		t.Fatal("expected to remove queued offer a")
	}
	if q.Remove("a") {
		t.Fatal("expected second removal of a to be a no-op")
	}
	if q.Len() != 1 {
		t.Fatalf("expected 1 offer remaining, got %d", q.Len())
	}
}
