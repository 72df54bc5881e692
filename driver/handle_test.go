package driver

import (
	"errors"
	"testing"

	mesos "github.com/mesos/mesos-go/mesosproto"
)

type fakeDriver struct{}

func (fakeDriver) DeclineOffer(*mesos.OfferID, *mesos.Filters) error            { return nil }
func (fakeDriver) AcceptOffers([]*mesos.OfferID, []*mesos.Offer_Operation, *mesos.Filters) error {
	return nil
}
func (fakeDriver) ReconcileTasks([]*mesos.TaskStatus) error { return nil }
func (fakeDriver) KillTask(*mesos.TaskID) error             { return nil }

func TestHandleUnsetReturnsErrNoDriver(t *testing.T) {
	h := NewHandle()
	if _, err := h.Get(); !errors.Is(err, ErrNoDriver) {
		t.Fatalf("expected ErrNoDriver, got %v", err)
	}
}

func TestHandleSetThenGet(t *testing.T) {
	h := NewHandle()
	h.Set(fakeDriver{})
	d, err := h.Get()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d == nil {
		t.Fatal("expected non-nil driver")
	}
}

func TestMustGetPanicsWhenUnset(t *testing.T) {
	h := NewHandle()
	defer func() {
		if recover() == nil {
			t.Fatal("expected MustGet to panic when driver unset")
		}
	}()
	h.MustGet()
}
