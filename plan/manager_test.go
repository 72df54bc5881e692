package plan

import "testing"

func TestManagerFirstPlanBecomesActive(t *testing.T) {
	m := NewManager()
	pl := NewPlan("install", nil, nil)
	m.AddPlan(pl)
	if m.ActivePlan() != pl {
		t.Fatal("expected first added plan to become active")
	}
}

func TestManagerSetActiveRejectsUnknownPlan(t *testing.T) {
	m := NewManager()
	m.AddPlan(NewPlan("install", nil, nil))
	if err := m.SetActive("nonexistent"); err == nil {
		t.Fatal("expected error switching to an unregistered plan")
	}
}

func TestManagerDirtyAssetsSpanAllPlans(t *testing.T) {
	m := NewManager()
	s := NewStep("s1", req("node", 0, "t1"), nil)
	s.Start()
	install := NewPlan("install", []*Phase{NewPhase("p", []*Step{s}, nil)}, nil)
	uninstall := NewPlan("uninstall", nil, nil)
	m.AddPlan(install)
	m.AddPlan(uninstall)
	m.SetActive("uninstall")

	dirty := m.DirtyAssets()
	if len(dirty) != 1 || dirty[0].PodInstance() != "node-0" {
		t.Fatalf("expected dirty asset from inactive plan to still be tracked, got %v", dirty)
	}
}

func TestManagerCandidateStepsOnlyFromActivePlan(t *testing.T) {
	m := NewManager()
	activeStep := NewStep("active-step", nil, nil)
	inactiveStep := NewStep("inactive-step", nil, nil)
	active := NewPlan("install", []*Phase{NewPhase("p", []*Step{activeStep}, nil)}, nil)
	inactive := NewPlan("update", []*Phase{NewPhase("p", []*Step{inactiveStep}, nil)}, nil)
	m.AddPlan(active)
	m.AddPlan(inactive)

	cands := m.CandidateSteps()
	if len(cands) != 1 || cands[0] != activeStep {
		t.Fatalf("expected only the active plan's step as candidate, got %v", cands)
	}
}
