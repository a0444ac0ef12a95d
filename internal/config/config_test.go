package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "app:\n  name: test\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Campaign.MaxCallsPerDay != 50 {
		t.Fatalf("expected default cap 50, got %d", cfg.Campaign.MaxCallsPerDay)
	}
	if cfg.Campaign.InterCallDelay != 5*time.Second {
		t.Fatalf("expected 5s inter-call delay, got %s", cfg.Campaign.InterCallDelay)
	}
	if cfg.Telephony.Provider != "mock" || cfg.Outcomes.Mode != "direct" {
		t.Fatalf("unexpected provider/mode: %s/%s", cfg.Telephony.Provider, cfg.Outcomes.Mode)
	}
	if cfg.LLM.Enabled() {
		t.Fatalf("llm should be disabled without a provider and key")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "agent:\n  name: Sarah\n")
	t.Setenv("COLDCALL_AGENT_NAME", "Maya")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Agent.Name != "Maya" {
		t.Fatalf("expected env override, got %q", cfg.Agent.Name)
	}
}

func TestValidateRejectsIncompleteTwilio(t *testing.T) {
	path := writeConfig(t, "telephony:\n  provider: twilio\n")

	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation error for twilio without credentials")
	}
}

func TestValidateKafkaModeRequiresKafka(t *testing.T) {
	path := writeConfig(t, "outcomes:\n  mode: kafka\n")

	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation error for kafka mode with kafka disabled")
	}
}
