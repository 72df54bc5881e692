package httpapi

import (
	"strings"
	"testing"
)

func TestArtifactURLLiteralConcatenation(t *testing.T) {
	got := ArtifactURL("my-service", "my-job", "uuid-1", "node", "server", "config.yml")
	want := "http://api.my-service.marathon.l4lb.thisdcos.directory/v1/jobs/my-job/artifacts/template/uuid-1/node/server/config.yml"
	if got != want {
		t.Fatalf("unexpected URL:\n got: %s\nwant: %s", got, want)
	}
}

func TestArtifactURLPreservesEmbeddedSlashes(t *testing.T) {
	got := ArtifactURL("team/my-service", "my-job", "uuid-1", "node", "server", "config.yml")
	if !strings.Contains(got, "api.team/my-service.marathon") {
		t.Fatalf("expected embedded slash to survive verbatim, got %s", got)
	}
}

func TestArtifactUUIDIsNonEmpty(t *testing.T) {
	if ArtifactUUID() == "" {
		t.Fatal("expected a non-empty UUID")
	}
}
