package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default("demo")
	if cfg == nil {
		t.Fatal("Default returned nil")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Workspace.Name != "demo" {
		t.Errorf("name = %q", cfg.Workspace.Name)
	}
	if cfg.Assistant.AssigneePlaceholder != "Unassigned" || cfg.Assistant.DefaultTaskName != "New task" {
		t.Errorf("assistant defaults = %+v", cfg.Assistant)
	}
	if cfg.ResponseDelay() != 600*time.Millisecond {
		t.Errorf("ResponseDelay = %v", cfg.ResponseDelay())
	}
	if cfg.PersistenceLatency() != 150*time.Millisecond {
		t.Errorf("PersistenceLatency = %v", cfg.PersistenceLatency())
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"missing name", func(c *Config) { c.Workspace.Name = "" }, "workspace.name"},
		{"missing placeholder", func(c *Config) { c.Assistant.AssigneePlaceholder = "" }, "assignee_placeholder"},
		{"missing default task name", func(c *Config) { c.Assistant.DefaultTaskName = "" }, "default_task_name"},
		{"negative delay", func(c *Config) { c.Assistant.ResponseDelayMS = -1 }, "response_delay_ms"},
		{"negative latency", func(c *Config) { c.Persistence.LatencyMS = -5 }, "latency_ms"},
		{"inverted region", func(c *Config) { c.Board.Region.MaxX = c.Board.Region.MinX }, "region"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default("demo")
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate accepted a broken config")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("err = %v, want mention of %s", err, tc.wantErr)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	ws := t.TempDir()
	if err := os.WriteFile(filepath.Join(ws, "flowdeck.yml"), []byte(GenerateDefault("loaded")), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(ws)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Workspace.Name != "loaded" {
		t.Fatalf("name = %q", cfg.Workspace.Name)
	}
}

func TestLoadMissing(t *testing.T) {
	ws := t.TempDir()
	if _, err := Load(ws); err == nil {
		t.Fatal("Load succeeded without a config file")
	}
	cfg, err := LoadOptional(ws)
	if err != nil || cfg != nil {
		t.Fatalf("LoadOptional = %v, %v; want nil, nil", cfg, err)
	}
}

func TestFromYAMLInvalid(t *testing.T) {
	if _, err := FromYAML([]byte("workspace: [")); err == nil {
		t.Fatal("FromYAML accepted malformed yaml")
	}
	if _, err := FromYAML([]byte("workspace:\n  name: x\n")); err == nil {
		t.Fatal("FromYAML accepted incomplete config")
	}
}
