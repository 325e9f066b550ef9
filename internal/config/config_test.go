//go:build !integration

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_DefaultsAndEnv(t *testing.T) {
	t.Setenv("TEST_REPLICATE_TOKEN", "r8_secret")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("generation:\n  replicate_token: ${TEST_REPLICATE_TOKEN}\nreaper:\n  retention: 2h\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadConfig(path, false)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Generation.ReplicateToken != "r8_secret" {
		t.Errorf("env var not expanded: %q", cfg.Generation.ReplicateToken)
	}
	if cfg.Generation.Provider != "replicate" {
		t.Errorf("provider default = %q", cfg.Generation.Provider)
	}
	if cfg.Reaper.Retention != 2*time.Hour {
		t.Errorf("retention = %v", cfg.Reaper.Retention)
	}
	if cfg.Intake.MinPromptLength != 10 {
		t.Errorf("min prompt length = %d", cfg.Intake.MinPromptLength)
	}
	if cfg.Generation.NegativePrompt != DefaultNegativePrompt {
		t.Errorf("negative prompt default not applied")
	}
	if cfg.Reaper.StuckAfter != 2*cfg.Generation.Timeout {
		t.Errorf("stuck_after = %v", cfg.Reaper.StuckAfter)
	}
}

func TestParse_Validation(t *testing.T) {
	t.Run("replicate without token outside dev", func(t *testing.T) {
		if _, err := Parse([]byte("generation:\n  provider: replicate\n"), false); err == nil {
			t.Fatal("expected error")
		}
	})
	t.Run("replicate without token in dev", func(t *testing.T) {
		if _, err := Parse([]byte("generation:\n  provider: replicate\n"), true); err != nil {
			t.Fatalf("dev mode should relax token check: %v", err)
		}
	})
	t.Run("unknown provider", func(t *testing.T) {
		if _, err := Parse([]byte("generation:\n  provider: sora\n"), true); err == nil {
			t.Fatal("expected error")
		}
	})
	t.Run("half configured twilio", func(t *testing.T) {
		if _, err := Parse([]byte("generation:\n  provider: noop\ntwilio:\n  account_sid: AC1\n"), false); err == nil {
			t.Fatal("expected error")
		}
	})
	t.Run("malformed yaml", func(t *testing.T) {
		if _, err := Parse([]byte("generation: [\n"), false); err == nil {
			t.Fatal("expected error")
		}
	})
}
