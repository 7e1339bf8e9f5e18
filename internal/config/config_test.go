package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_EnvOnlyDefaults(t *testing.T) {
	cfg, err := Load("", true)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if cfg.Server.HTTPAddr != ":8080" {
		t.Fatalf("http_addr=%q want=:8080", cfg.Server.HTTPAddr)
	}
	if cfg.Agent.StepLengthCm != 80 {
		t.Fatalf("step_length_cm=%d want=80", cfg.Agent.StepLengthCm)
	}
	if cfg.Auth.TokenTTL != 24*time.Hour {
		t.Fatalf("token_ttl=%s want=24h", cfg.Auth.TokenTTL)
	}
	if cfg.Checkpoint.Backend != "sqlite" {
		t.Fatalf("backend=%q want=sqlite", cfg.Checkpoint.Backend)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := []byte("agent:\n  reset_policy: floor\nhealth:\n  source: mqtt\n  topic_prefix: gericht\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path, false)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if cfg.Agent.ResetPolicy != "floor" || cfg.Health.Source != "mqtt" || cfg.Health.TopicPrefix != "gericht" {
		t.Fatalf("cfg=%+v %+v", cfg.Agent, cfg.Health)
	}
}

func TestValidate_RejectsUnknownEnums(t *testing.T) {
	cases := []Config{
		{Agent: AgentConfig{ResetPolicy: "sum"}},
		{Health: HealthConfig{Source: "bluetooth"}},
		{Checkpoint: CheckpointConfig{Backend: "etcd"}},
	}
	for i, c := range cases {
		if err := c.Validate(); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}

func TestAppLocation_Fallback(t *testing.T) {
	if loc := (AppConfig{Timezone: "Not/AZone"}).Location(); loc != time.UTC {
		t.Fatalf("loc=%v want UTC", loc)
	}
}
