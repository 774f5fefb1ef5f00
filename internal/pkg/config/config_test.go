package config

import (
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		cfg, err := Load()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.RequestTimeout != 30*time.Second {
			t.Errorf("expected 30s request timeout, got %v", cfg.RequestTimeout)
		}
		if cfg.AdminAddr != ":9091" {
			t.Errorf("expected admin addr :9091, got %q", cfg.AdminAddr)
		}
	})

	t.Run("Environment overrides", func(t *testing.T) {
		t.Setenv("REQUEST_TIMEOUT", "2s")
		t.Setenv("REDACTION_FIELDS", " password, ,token ")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.RequestTimeout != 2*time.Second {
			t.Errorf("expected 2s request timeout, got %v", cfg.RequestTimeout)
		}
		fields := cfg.RedactionFieldList()
		if len(fields) != 2 || fields[0] != "password" || fields[1] != "token" {
			t.Errorf("expected [password token], got %v", fields)
		}
	})

	t.Run("Invalid duration", func(t *testing.T) {
		t.Setenv("ARCHIVE_FLUSH_INTERVAL", "soon")
		if _, err := Load(); err == nil {
			t.Error("expected an error for an invalid duration")
		}
	})
}
