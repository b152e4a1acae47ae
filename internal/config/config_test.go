package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MrSnakeDoc/roomwatch/internal/domain"
)

func TestParseServerList(t *testing.T) {
	tests := []struct {
		name     string
		entries  []string
		expected []domain.ServerAddress
		wantErr  bool
	}{
		{
			name:    "single server",
			entries: []string{"play.example.com:7000"},
			expected: []domain.ServerAddress{
				{Host: "play.example.com", Port: 7000},
			},
		},
		{
			name:    "duplicates dropped, first order kept",
			entries: []string{"b.example.com:7000", "a.example.com:7000", "b.example.com:7000"},
			expected: []domain.ServerAddress{
				{Host: "b.example.com", Port: 7000},
				{Host: "a.example.com", Port: 7000},
			},
		},
		{
			name:    "same host different ports",
			entries: []string{"10.0.0.1:7000", "10.0.0.1:7001"},
			expected: []domain.ServerAddress{
				{Host: "10.0.0.1", Port: 7000},
				{Host: "10.0.0.1", Port: 7001},
			},
		},
		{
			name:     "empty",
			entries:  nil,
			expected: []domain.ServerAddress{},
		},
		{
			name:    "invalid entry",
			entries: []string{"play.example.com:7000", "nope"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseServerList(tt.entries)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseServerList() should have failed, got %v", result)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseServerList() err=%v", err)
			}
			if len(result) != len(tt.expected) {
				t.Fatalf("ParseServerList() length = %v, want %v", len(result), len(tt.expected))
			}
			for i := range result {
				if result[i] != tt.expected[i] {
					t.Errorf("ParseServerList()[%d] = %v, want %v", i, result[i], tt.expected[i])
				}
			}
		})
	}
}

func TestSplitAndTrim(t *testing.T) {
	got := splitAndTrim(` a:1 , "b:2",, 'c:3' `)
	want := []string{"a:1", "b:2", "c:3"}
	if len(got) != len(want) {
		t.Fatalf("splitAndTrim() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("splitAndTrim()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if splitAndTrim("") != nil {
		t.Error("splitAndTrim(\"\") should be nil")
	}
}

func TestLoadServersFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "servers.yaml")
	content := "servers:\n  - play-eu.example.com:7000\n  - 10.0.0.12:7000\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write servers file: %v", err)
	}

	got, err := LoadServersFile(path)
	if err != nil {
		t.Fatalf("LoadServersFile() err=%v", err)
	}
	if len(got) != 2 || got[0] != "play-eu.example.com:7000" || got[1] != "10.0.0.12:7000" {
		t.Errorf("LoadServersFile() = %v", got)
	}

	if _, err := LoadServersFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("LoadServersFile() on a missing file should fail")
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("servers: [unterminated"), 0o600); err != nil {
		t.Fatalf("failed to write bad file: %v", err)
	}
	if _, err := LoadServersFile(bad); err == nil {
		t.Error("LoadServersFile() on invalid yaml should fail")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "servers.yaml")
	if err := os.WriteFile(path, []byte("servers:\n  - b.example.com:7000\n  - a.example.com:7000\n"), 0o600); err != nil {
		t.Fatalf("failed to write servers file: %v", err)
	}

	t.Setenv("ROOMWATCH_SERVER_LIST", "a.example.com:7000")
	t.Setenv("ROOMWATCH_SERVERS_FILE", path)
	t.Setenv("ROOMWATCH_BACKOFF", "45s")
	t.Setenv("ROOMWATCH_METRICS_ENABLED", "false")

	cfg := Load()

	if len(cfg.Servers) != 2 {
		t.Fatalf("Servers = %v, want 2 deduplicated entries", cfg.Servers)
	}
	if cfg.Servers[0].Host != "a.example.com" || cfg.Servers[1].Host != "b.example.com" {
		t.Errorf("Servers = %v", cfg.Servers)
	}
	if cfg.Backoff != 45*time.Second {
		t.Errorf("Backoff = %v, want 45s", cfg.Backoff)
	}
	if cfg.MetricsEnabled {
		t.Error("MetricsEnabled should be false")
	}
	if cfg.ServiceTimeout != 3*time.Second || cfg.PollInterval != 100*time.Millisecond {
		t.Errorf("unexpected session defaults: service=%v poll=%v", cfg.ServiceTimeout, cfg.PollInterval)
	}
	if cfg.FailureThreshold != 10 {
		t.Errorf("FailureThreshold = %d, want 10", cfg.FailureThreshold)
	}
}

func TestLoadPanicsWithoutServers(t *testing.T) {
	t.Setenv("ROOMWATCH_SERVER_LIST", "")
	t.Setenv("ROOMWATCH_SERVERS_FILE", "")

	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Load() should have panicked without servers")
		}
	}()
	Load()
}

func TestLoadPanicsOnInvalidServer(t *testing.T) {
	t.Setenv("ROOMWATCH_SERVER_LIST", "play.example.com")

	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Load() should have panicked on an invalid server")
		}
	}()
	Load()
}

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      time.Duration
		expected time.Duration
	}{
		{
			name:     "valid duration",
			key:      "TEST_DURATION",
			value:    "5s",
			def:      1 * time.Second,
			expected: 5 * time.Second,
		},
		{
			name:     "invalid duration uses default",
			key:      "TEST_DURATION_INVALID",
			value:    "invalid",
			def:      10 * time.Second,
			expected: 10 * time.Second,
		},
		{
			name:     "missing variable uses default",
			key:      "TEST_DURATION_MISSING",
			value:    "",
			def:      15 * time.Second,
			expected: 15 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv(tt.key, tt.value)
			}

			result := mustDuration(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("mustDuration() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMustBoolAndFloat(t *testing.T) {
	t.Setenv("TEST_BOOL", "true")
	t.Setenv("TEST_BOOL_INVALID", "maybe")
	t.Setenv("TEST_FLOAT", "2.5")
	t.Setenv("TEST_FLOAT_INVALID", "fast")

	if !mustBool("TEST_BOOL", false) {
		t.Error("mustBool() should read true")
	}
	if !mustBool("TEST_BOOL_INVALID", true) {
		t.Error("mustBool() should fall back to default on invalid value")
	}
	if got := mustFloat("TEST_FLOAT", 1); got != 2.5 {
		t.Errorf("mustFloat() = %v, want 2.5", got)
	}
	if got := mustFloat("TEST_FLOAT_INVALID", 1); got != 1 {
		t.Errorf("mustFloat() = %v, want default 1", got)
	}
	if got := getenvInt("TEST_INT_MISSING", 7); got != 7 {
		t.Errorf("getenvInt() = %v, want 7", got)
	}
}
