package plan

import "testing"

func TestConflictsSameInstanceDifferentTasks(t *testing.T) {
	a := PodInstanceRequirement{PodType: "node", PodIndex: 0, TaskNames: []string{"t1"}}
	b := PodInstanceRequirement{PodType: "node", PodIndex: 0, TaskNames: []string{"t2"}}
	if !a.Conflicts(b) {
		t.Fatal("expected same pod_instance to conflict regardless of task set")
	}
}

func TestNoConflictDifferentIndex(t *testing.T) {
	a := PodInstanceRequirement{PodType: "node", PodIndex: 0}
	b := PodInstanceRequirement{PodType: "node", PodIndex: 1}
	if a.Conflicts(b) {
		t.Fatal("expected different pod_instance index not to conflict")
	}
}

func TestDirtyAssetsOnlyPreparedOrStarting(t *testing.T) {
	pending := NewStep("pending", req("node", 0, "t1"), nil)
	prepared := NewStep("prepared", req("node", 1, "t2"), nil)
	prepared.Start()
	starting := NewStep("starting", req("node", 2, "t3"), nil)
	starting.MarkStarting()
	started := NewStep("started", req("node", 3, "t4"), nil)
	started.MarkStarted()

	pl := &Plan{Phases: []*Phase{NewPhase("p", []*Step{pending, prepared, starting, started}, nil)}}
	dirty := DirtyAssets([]*Plan{pl})
	if len(dirty) != 2 {
		t.Fatalf("expected 2 dirty assets (prepared, starting), got %d: %v", len(dirty), dirty)
	}
}

func TestLaunchableTasksUniquedAcrossPlans(t *testing.T) {
	s1 := NewStep("s1", req("node", 0, "t1", "t2"), nil)
	s2 := NewStep("s2", req("node", 1, "t1"), nil)
	pl := &Plan{Phases: []*Phase{NewPhase("p", []*Step{s1, s2}, nil)}}
	names := LaunchableTasks([]*Plan{pl})
	if len(names) != 2 {
		t.Fatalf("expected 2 unique task names, got %v", names)
	}
}
