package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":3000" || cfg.DBPath != "othello.db" || cfg.RedisURL != "" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.IdentifyTimeout != 500*time.Millisecond || cfg.CacheTTL != 24*time.Hour {
		t.Fatalf("unexpected durations: %+v", cfg)
	}
	if cfg.CompanionDepth != 6 || cfg.CompanionMaxDepth != 8 {
		t.Fatalf("unexpected depths: %+v", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("OTHELLO_HTTP_ADDR", ":8080")
	t.Setenv("OTHELLO_REDIS_URL", "redis://localhost:6379/1")
	t.Setenv("OTHELLO_IDENTIFY_TIMEOUT", "2s")
	t.Setenv("OTHELLO_COMPANION_DEPTH", "4")
	t.Setenv("OTHELLO_LOG_DEV", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.RedisURL != "redis://localhost:6379/1" || !cfg.LogDev {
		t.Fatalf("overrides ignored: %+v", cfg)
	}
	if cfg.IdentifyTimeout != 2*time.Second || cfg.CompanionDepth != 4 {
		t.Fatalf("overrides ignored: %+v", cfg)
	}
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name, key, value, want string
	}{
		{"bad duration", "OTHELLO_IDENTIFY_TIMEOUT", "soon", "parse env"},
		{"bad int", "OTHELLO_ROOM_BUFFER", "many", "parse env"},
		{"zero depth", "OTHELLO_COMPANION_DEPTH", "0", "companion depth"},
		{"max below default", "OTHELLO_COMPANION_MAX_DEPTH", "2", "max depth"},
		{"zero buffer", "OTHELLO_OUTBOUND_BUFFER", "0", "buffers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}
