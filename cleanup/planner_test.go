package cleanup

import (
	"testing"

	mesos "github.com/mesos/mesos-go/mesosproto"

	schedoffer "github.com/teletome/dcos-commons/offer"
)

func persistentVolume(name string) *mesos.Resource {
	return &mesos.Resource{
		Name: &name,
		Disk: &mesos.Resource_DiskInfo{
			Persistence: &mesos.Resource_DiskInfo_Persistence{Id: &name},
		},
	}
}

func plainReservation(name string) *mesos.Resource {
	return &mesos.Resource{Name: &name}
}

func TestPlanOrdersDestroyBeforeUnreserve(t *testing.T) {
	offerID := "offer-1"
	o := &mesos.Offer{Id: &mesos.OfferID{Value: &offerID}}

	groups := []schedoffer.Resources{
		{
			Offer: o,
			Unexpected: []*mesos.Resource{
				persistentVolume("vol"),
				plainReservation("cpus"),
			},
		},
	}

	recs := Plan(groups)
	if len(recs) != 3 {
		t.Fatalf("expected 3 recommendations (1 destroy + 2 unreserve), got %d", len(recs))
	}

	seenUnreserve := false
	for _, rec := range recs {
		switch rec.Operation.GetType() {
		case mesos.Offer_Operation_DESTROY:
			if seenUnreserve {
				t.Fatal("DESTROY recommendation appeared after an UNRESERVE")
			}
		case mesos.Offer_Operation_UNRESERVE:
			seenUnreserve = true
		default:
			t.Fatalf("unexpected operation type %v", rec.Operation.GetType())
		}
	}
}

func TestPlanEmptyInput(t *testing.T) {
	if recs := Plan(nil); len(recs) != 0 {
		t.Fatalf("expected no recommendations for empty input, got %d", len(recs))
	}
}

func TestReferencedOfferIDs(t *testing.T) {
	offerID := "offer-1"
	o := &mesos.Offer{Id: &mesos.OfferID{Value: &offerID}}
	recs := Plan([]schedoffer.Resources{{Offer: o, Unexpected: []*mesos.Resource{plainReservation("cpus")}}})

	ids := ReferencedOfferIDs(recs)
	if _, ok := ids[offerID]; !ok {
		t.Fatalf("expected %q in referenced offer ids, got %v", offerID, ids)
	}
}
