package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/mmynk/worklog/internal/filter"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv(ServerURLEnv, "")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `server_url: https://worklog.example.com
export:
  dir: /tmp/exports
  label: 근무기록
filter:
  year: 2024
  end_month: 6
  name: kim
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Run("file", func(t *testing.T) {
		t.Setenv(ServerURLEnv, "")
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		want := Default()
		want.ServerURL = "https://worklog.example.com"
		want.Export.Dir = "/tmp/exports"
		want.Export.Label = "근무기록"
		want.Filter = filter.Spec{Year: 2024, EndMonth: time.June, Name: "kim"}
		if diff := cmp.Diff(want, cfg); diff != "" {
			t.Errorf("config mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("env overrides file", func(t *testing.T) {
		t.Setenv(ServerURLEnv, "http://override:9000")
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if cfg.ServerURL != "http://override:9000" {
			t.Errorf("ServerURL = %q", cfg.ServerURL)
		}
	})
}

func TestLoad_InvalidFilter(t *testing.T) {
	t.Setenv(ServerURLEnv, "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("filter:\n  end_month: 13\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, filter.ErrInvalidSpec) {
		t.Errorf("expected ErrInvalidSpec, got %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv(ServerURLEnv, "")
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.ServerURL = "http://10.0.0.5:8080"
	cfg.Filter = filter.Spec{Year: 2023, Company: "Acme"}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if diff := cmp.Diff(cfg, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSessionFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	s := NewSessionFile(path)
	if s.Token() != "" {
		t.Fatal("new session should be empty")
	}
	if err := s.SetToken("abc"); err != nil {
		t.Fatalf("SetToken failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("session file mode = %o, want 600", perm)
	}

	if got := NewSessionFile(path).Token(); got != "abc" {
		t.Errorf("reloaded token = %q, want abc", got)
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("second Clear failed: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("session file should be gone, stat err = %v", err)
	}
	if s.Token() != "" {
		t.Error("token should be empty after Clear")
	}
}

func TestServerFromEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "")
	t.Setenv("TOKEN_TTL", "2h")
	t.Setenv("OAUTH_GITHUB_CLIENT_ID", "id")
	t.Setenv("OAUTH_GITHUB_CLIENT_SECRET", "secret")
	t.Setenv("OAUTH_GOOGLE_CLIENT_ID", "")

	cfg, err := ServerFromEnv()
	if err != nil {
		t.Fatalf("ServerFromEnv failed: %v", err)
	}
	if cfg.Addr() != ":8080" || cfg.TokenTTL != 2*time.Hour {
		t.Errorf("unexpected config %+v", cfg)
	}
	if !cfg.GitHubEnabled() || cfg.GoogleEnabled() {
		t.Errorf("provider flags wrong: github=%v google=%v", cfg.GitHubEnabled(), cfg.GoogleEnabled())
	}

	t.Run("missing secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		if _, err := ServerFromEnv(); !errors.Is(err, ErrMissingSecret) {
			t.Errorf("expected ErrMissingSecret, got %v", err)
		}
	})

	t.Run("bad port", func(t *testing.T) {
		t.Setenv("PORT", "http")
		if _, err := ServerFromEnv(); err == nil {
			t.Error("expected error for bad PORT")
		}
	})
}
