package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(p, []byte(contents), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return p
}

func TestLoadOverlaysDefaults(t *testing.T) {
	p := writeTemp(t, `
service_name = "my-service"
master = "zk://master.mesos:2181/mesos"

[zookeeper]
servers = ["zk-1:2181", "zk-2:2181"]
cluster_name = "my-service"
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ChillSeconds != Default().ChillSeconds {
		t.Fatalf("expected default chill_seconds to survive overlay, got %d", cfg.ChillSeconds)
	}
	if cfg.Zookeeper.ClusterName != "my-service" {
		t.Fatalf("expected cluster_name from file, got %q", cfg.Zookeeper.ClusterName)
	}
}

func TestLoadRejectsMissingRequiredFields(t *testing.T) {
	p := writeTemp(t, `master = "zk://master.mesos:2181/mesos"`)
	if _, err := Load(p); err == nil {
		t.Fatal("expected error for missing service_name and zookeeper config")
	}
}

func TestMasterSyncTimeoutConversion(t *testing.T) {
	cfg := Default()
	cfg.MasterSyncTimeoutMs = 1500
	if got := cfg.MasterSyncTimeout(); got.Milliseconds() != 1500 {
		t.Fatalf("expected 1500ms, got %v", got)
	}
}
