package plan

import (
	"errors"
	"testing"

	mesos "github.com/mesos/mesos-go/mesosproto"

	schedoffer "github.com/teletome/dcos-commons/offer"
)

type fakeEvaluator struct {
	claim bool
}

func (f fakeEvaluator) Evaluate(req PodInstanceRequirement, offers []*mesos.Offer) ([]schedoffer.Recommendation, []*mesos.Offer, bool) {
	if !f.claim || len(offers) == 0 {
		return nil, offers, false
	}
	return []schedoffer.Recommendation{{Offer: offers[0]}}, offers[1:], true
}

func req(podType string, idx int, tasks ...string) *PodInstanceRequirement {
	return &PodInstanceRequirement{PodType: podType, PodIndex: idx, TaskNames: tasks}
}

func TestStepLifecycle(t *testing.T) {
	s := NewStep("s1", req("node", 0, "t1"), fakeEvaluator{claim: true})
	if s.Status() != StatusPending {
		t.Fatalf("expected PENDING, got %v", s.Status())
	}
	offers := []*mesos.Offer{{}}
	_, unused, claimed := s.Evaluate(offers)
	if !claimed || len(unused) != 0 {
		t.Fatalf("expected claim with no unused offers, got claimed=%v unused=%d", claimed, len(unused))
	}
	if s.Status() != StatusPrepared {
		t.Fatalf("expected PREPARED after claim, got %v", s.Status())
	}
}

func TestStepNeverEligibleOnceComplete(t *testing.T) {
	s := NewStep("s1", nil, nil)
	s.MarkComplete()
	if s.IsEligible(nil) {
		t.Fatal("expected COMPLETE step to be ineligible")
	}
}

func TestStepNeverEligibleWithErrors(t *testing.T) {
	s := NewStep("s1", nil, nil)
	s.AddError(errors.New("boom"))
	if s.IsEligible(nil) {
		t.Fatal("expected step with errors to be ineligible")
	}
	if s.Status() != StatusError {
		t.Fatalf("expected ERROR status, got %v", s.Status())
	}
}

func TestStepIneligibleOnConflict(t *testing.T) {
	s := NewStep("s1", req("node", 0, "t1"), nil)
	dirty := []PodInstanceRequirement{*req("node", 0, "other")}
	if s.IsEligible(dirty) {
		t.Fatal("expected conflicting step to be ineligible")
	}
}

func TestStepWithoutRequirementAlwaysEligible(t *testing.T) {
	s := NewStep("s1", nil, nil)
	dirty := []PodInstanceRequirement{*req("node", 0, "other")}
	if !s.IsEligible(dirty) {
		t.Fatal("expected requirement-less step to remain eligible regardless of dirty set")
	}
}

func TestStepEvaluateWithoutRequirementNeverClaims(t *testing.T) {
	s := NewStep("s1", nil, fakeEvaluator{claim: true})
	offers := []*mesos.Offer{{}}
	_, unused, claimed := s.Evaluate(offers)
	if claimed || len(unused) != 1 {
		t.Fatalf("expected no claim for requirement-less step, got claimed=%v unused=%d", claimed, len(unused))
	}
}
