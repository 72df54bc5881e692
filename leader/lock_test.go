package leader

import "testing"

func TestSequenceOfExtractsTrailingCounter(t *testing.T) {
	got := sequenceOf("_c_abc123-member-0000000007")
	if got != "0000000007" {
		t.Fatalf("expected trailing sequence, got %q", got)
	}
}

func TestSequenceOfNoPrefixReturnsEmpty(t *testing.T) {
	if got := sequenceOf("not-a-candidate"); got != "" {
		t.Fatalf("expected empty string for non-candidate node, got %q", got)
	}
}

func TestLockReportsNotLeaderBeforeWatchRuns(t *testing.T) {
	l := &Lock{}
	if l.IsLeader() {
		t.Fatal("expected a freshly constructed lock to report not-leader")
	}
}
