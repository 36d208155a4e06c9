package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func withKey(t *testing.T) {
	t.Helper()
	t.Setenv("SECRETBOX_MASTER_KEY", "dGVzdC1rZXktdGVzdC1rZXktdGVzdC1rZXktdGVzdCE=")
}

func TestLoad_Defaults(t *testing.T) {
	withKey(t)
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	// Defaults heredados en minutos (escala-día, preservados adrede).
	if cfg.JWT.AccessTTLMinutes != 1440 {
		t.Fatalf("access ttl: got %d want 1440", cfg.JWT.AccessTTLMinutes)
	}
	if cfg.JWT.RefreshTTLMinutes != 2880 {
		t.Fatalf("refresh ttl: got %d want 2880", cfg.JWT.RefreshTTLMinutes)
	}
	if cfg.Passwordless.CodeTTLMinutes != 5 {
		t.Fatalf("code ttl: got %d want 5", cfg.Passwordless.CodeTTLMinutes)
	}
	if got := cfg.AccessTTL(); got != 1440*time.Minute {
		t.Fatalf("AccessTTL(): %v", got)
	}
	if cfg.Passwordless.MaxAttempts != 5 {
		t.Fatalf("max attempts: got %d", cfg.Passwordless.MaxAttempts)
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	withKey(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := []byte("jwt:\n  access_ttl_minutes: 15\npasswordless:\n  code_ttl_minutes: 10\n")
	if err := os.WriteFile(path, yml, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ACCESS_JWT_TIMEOUT", "30")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.JWT.AccessTTLMinutes != 30 {
		t.Fatalf("env debería pisar yaml: got %d", cfg.JWT.AccessTTLMinutes)
	}
	if cfg.Passwordless.CodeTTLMinutes != 10 {
		t.Fatalf("yaml: got %d", cfg.Passwordless.CodeTTLMinutes)
	}
}

func TestLoad_RequiresMasterKey(t *testing.T) {
	t.Setenv("SECRETBOX_MASTER_KEY", "")
	if _, err := FromEnv(); err == nil {
		t.Fatal("expected error without master key")
	}
}

func TestRateWindow(t *testing.T) {
	if d := RateWindow("2m", time.Minute); d != 2*time.Minute {
		t.Fatalf("got %v", d)
	}
	if d := RateWindow("garbage", time.Minute); d != time.Minute {
		t.Fatalf("fallback: got %v", d)
	}
}
