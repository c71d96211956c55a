package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const minimalYAML = `
environment: test
providers:
  ports: [SGSIN]
  aishub:
    api_key: k1
    quota: 100
    quota_window: 1h
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Scheduler.PollInterval != 60*time.Second {
		t.Fatalf("expected 60s poll interval, got %s", cfg.Scheduler.PollInterval)
	}
	if cfg.Congestion.Threshold != 75 {
		t.Fatalf("expected threshold 75, got %v", cfg.Congestion.Threshold)
	}
	if cfg.Congestion.Metric != "vessels_waiting" {
		t.Fatalf("expected vessels_waiting metric, got %s", cfg.Congestion.Metric)
	}
	if cfg.Notifier.Channel != "log" {
		t.Fatalf("expected log channel, got %s", cfg.Notifier.Channel)
	}
	if cfg.Notifier.MaxAttempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", cfg.Notifier.MaxAttempts)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("expected default port, got %d", cfg.Server.Port)
	}
}

func TestLoadRejectsUnknownMetric(t *testing.T) {
	body := strings.Replace(minimalYAML, "environment: test",
		"environment: test\ncongestion:\n  metric: berth_count", 1)
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatalf("expected validation error for unknown metric")
	}
}

func TestLoadRequiresAProvider(t *testing.T) {
	if _, err := Load(writeConfig(t, "environment: test\n")); err == nil {
		t.Fatalf("expected validation error with no provider keys")
	}
}

func TestLoadKafkaChannelNeedsBrokers(t *testing.T) {
	body := minimalYAML + "notifier:\n  channel: kafka\n"
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatalf("expected validation error for kafka channel without brokers")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("AISHUB_API_KEY", "env-key")
	t.Setenv("POLL_INTERVAL_SECONDS", "30")
	t.Setenv("CONGESTION_THRESHOLD", "90")
	t.Setenv("PORTS", "NLRTM,CNSHA")

	cfg, err := LoadWithEnv(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Providers.AISHub.APIKey != "env-key" {
		t.Fatalf("expected env api key, got %q", cfg.Providers.AISHub.APIKey)
	}
	if cfg.Scheduler.PollInterval != 30*time.Second {
		t.Fatalf("expected 30s interval, got %s", cfg.Scheduler.PollInterval)
	}
	if cfg.Congestion.Threshold != 90 {
		t.Fatalf("expected threshold 90, got %v", cfg.Congestion.Threshold)
	}
	if len(cfg.Providers.Ports) != 2 || cfg.Providers.Ports[0] != "NLRTM" {
		t.Fatalf("unexpected ports %v", cfg.Providers.Ports)
	}
}

func TestLoadWithEnvSuppliesOnlyCredential(t *testing.T) {
	keyless := `
environment: test
providers:
  ports: [SGSIN]
  aishub:
    api_key: ""
    quota: 100
    quota_window: 1h
`
	path := writeConfig(t, keyless)

	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation error without any credential")
	}

	t.Setenv("AISHUB_API_KEY", "env-only-key")
	cfg, err := LoadWithEnv(path)
	if err != nil {
		t.Fatalf("env-supplied credential must satisfy validation: %v", err)
	}
	if cfg.Providers.AISHub.APIKey != "env-only-key" {
		t.Fatalf("expected env api key, got %q", cfg.Providers.AISHub.APIKey)
	}
	if cfg.Scheduler.PollInterval != 60*time.Second {
		t.Fatalf("defaults must still apply, got %s", cfg.Scheduler.PollInterval)
	}
}

func TestProviderEnabled(t *testing.T) {
	if (ProviderConfig{}).Enabled() {
		t.Fatalf("empty key must mean disabled")
	}
	if !(ProviderConfig{APIKey: "x"}).Enabled() {
		t.Fatalf("configured key must mean enabled")
	}
}
