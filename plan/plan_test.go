package plan

import "testing"

func onePhase(name string, complete bool) *Phase {
	s := NewStep(name+"-step", nil, nil)
	if complete {
		s.MarkComplete()
	}
	return NewPhase(name, []*Step{s}, nil)
}

func TestSerialPhaseStrategySkipsCompletePhases(t *testing.T) {
	p1 := onePhase("p1", true)
	p2 := onePhase("p2", false)
	cands := SerialPhaseStrategy{}.Candidates([]*Phase{p1, p2}, nil)
	if len(cands) != 1 || cands[0] != p2 {
		t.Fatalf("expected only p2 selected, got %v", cands)
	}
}

func TestDependencyPhaseStrategyGatesOnDependency(t *testing.T) {
	upstream := onePhase("upstream", false)
	downstream := onePhase("downstream", false)
	strat := DependencyPhaseStrategy{DependsOn: map[string][]string{"downstream": {"upstream"}}}

	cands := strat.Candidates([]*Phase{upstream, downstream}, nil)
	names := map[string]bool{}
	for _, p := range cands {
		names[p.Name] = true
	}
	if !names["upstream"] || names["downstream"] {
		t.Fatalf("expected only upstream ready, got %v", cands)
	}

	upstream.Steps[0].MarkComplete()
	cands = strat.Candidates([]*Phase{upstream, downstream}, nil)
	names = map[string]bool{}
	for _, p := range cands {
		names[p.Name] = true
	}
	if !names["downstream"] {
		t.Fatalf("expected downstream ready once upstream completes, got %v", cands)
	}
}

func TestPlanStatusAggregatesAcrossPhases(t *testing.T) {
	p1 := onePhase("p1", true)
	p2 := onePhase("p2", true)
	pl := NewPlan("install", []*Phase{p1, p2}, nil)
	if got := pl.Status(nil); got != StatusComplete {
		t.Fatalf("expected COMPLETE, got %v", got)
	}
}

func TestPlanInterruptHaltsCandidates(t *testing.T) {
	p1 := onePhase("p1", false)
	pl := NewPlan("install", []*Phase{p1}, nil)
	pl.Interrupt()
	if cands := pl.CandidatePhases(nil); len(cands) != 0 {
		t.Fatalf("expected no candidate phases while interrupted, got %v", cands)
	}
	pl.Continue()
	if cands := pl.CandidatePhases(nil); len(cands) != 1 {
		t.Fatalf("expected 1 candidate phase after continue, got %v", cands)
	}
}

func TestPlanHasOperations(t *testing.T) {
	p1 := onePhase("p1", true)
	pl := NewPlan("install", []*Phase{p1}, nil)
	if pl.HasOperations() {
		t.Fatal("expected no operations left when every phase is complete")
	}
}
