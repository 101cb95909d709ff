package config_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/persistorai/ldpath/internal/config"
)

func noFile(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	noFile(t)

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.Addr() != "127.0.0.1:3040" {
		t.Errorf("expected addr 127.0.0.1:3040, got %s", cfg.Addr())
	}

	if cfg.ParallelRequests != 40 {
		t.Errorf("expected 40 parallel requests, got %d", cfg.ParallelRequests)
	}

	if cfg.FetchTimeout != 15*time.Second {
		t.Errorf("expected 15s fetch timeout, got %s", cfg.FetchTimeout)
	}

	if cfg.LimitTime != 30*time.Minute {
		t.Errorf("expected 30m time limit, got %s", cfg.LimitTime)
	}

	if !cfg.QuickGoal {
		t.Error("expected quick goal on by default")
	}

	if cfg.ArchiveEnabled() {
		t.Error("archive must be off without DATABASE_URL")
	}
}

func TestLoad_Env(t *testing.T) {
	noFile(t)
	t.Setenv("LDPATH_PARALLEL_REQUESTS", "8")
	t.Setenv("LDPATH_LIMIT_TIME", "90s")
	t.Setenv("LDPATH_CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("LDPATH_DATABASE_URL", "postgres://u:p@localhost:5432/ld")

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ParallelRequests != 8 {
		t.Errorf("expected 8, got %d", cfg.ParallelRequests)
	}

	if cfg.LimitTime != 90*time.Second {
		t.Errorf("expected 90s, got %s", cfg.LimitTime)
	}

	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.test" {
		t.Errorf("unexpected origins %v", cfg.CORSOrigins)
	}

	if !cfg.ArchiveEnabled() {
		t.Error("archive should be enabled")
	}
}

func TestLoad_File(t *testing.T) {
	noFile(t)

	path := filepath.Join(t.TempDir(), "ldpath.yaml")
	body := `algorithm: dfs
weight: 2.5
endpoints:
  - pattern: "^http://dbpedia\\.org/"
    url: https://dbpedia.org/sparql
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Algorithm != "dfs" || cfg.Weight != 2.5 {
		t.Errorf("file values not applied: %+v", cfg)
	}

	if len(cfg.Endpoints) != 1 || cfg.Endpoints[0].URL != "https://dbpedia.org/sparql" {
		t.Errorf("unexpected endpoints %+v", cfg.Endpoints)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	noFile(t)

	if _, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for a missing explicit config file")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key, value, want string
	}{
		{"LDPATH_LOG_LEVEL", "loud", "LOG_LEVEL"},
		{"LDPATH_LOG_FORMAT", "xml", "LOG_FORMAT"},
		{"LDPATH_PORT", "70000", "PORT"},
		{"LDPATH_LISTEN_HOST", "10.0.0.1", "LISTEN_HOST"},
		{"LDPATH_CORS_ORIGINS", "*", "CORS_ORIGINS"},
		{"LDPATH_DATABASE_URL", "mysql://localhost/x", "DATABASE_URL"},
		{"LDPATH_DATABASE_URL", "postgres://u:p@db.example.com/x?sslmode=disable", "sslmode"},
		{"LDPATH_FETCH_ATTEMPTS", "0", "FETCH_ATTEMPTS"},
		{"LDPATH_WEIGHT", "0", "WEIGHT"},
		{"LDPATH_PARALLEL_REQUESTS", "1000", "PARALLEL_REQUESTS"},
		{"LDPATH_LIMIT_ANSWERS", "-1", "limits"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s=%s", tt.key, tt.value), func(t *testing.T) {
			noFile(t)
			t.Setenv(tt.key, tt.value)

			_, err := config.Load("")
			if err == nil {
				t.Fatal("expected validation error")
			}

			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestSecret_Redacted(t *testing.T) {
	s := config.Secret("hunter2")

	if fmt.Sprint(s) != "[REDACTED]" || fmt.Sprintf("%#v", s) != "[REDACTED]" {
		t.Error("secret leaked through formatting")
	}

	if s.Value() != "hunter2" {
		t.Error("Value must return the secret")
	}
}
