package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pugilists_config.json")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadConfig_EmptyObjectUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `{}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ServerAddress != ":3000" {
		t.Fatalf("default address wrong: %q", cfg.ServerAddress)
	}
	if cfg.RoomTTL != 2*time.Hour {
		t.Fatalf("default room TTL wrong: %v", cfg.RoomTTL)
	}
	if cfg.MaxHP != 40 {
		t.Fatalf("default max HP wrong: %d", cfg.MaxHP)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `{
		"server": {"address": ":9999"},
		"room_ttl_seconds": 60,
		"reconnect_grace_seconds": 5,
		"max_hp": 100,
		"engine_system_prompt": "custom engine prompt"
	}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ServerAddress != ":9999" {
		t.Fatalf("address override ignored: %q", cfg.ServerAddress)
	}
	if cfg.RoomTTL != time.Minute || cfg.ReconnectGrace != 5*time.Second {
		t.Fatalf("duration overrides ignored: %v %v", cfg.RoomTTL, cfg.ReconnectGrace)
	}
	if cfg.MaxHP != 100 {
		t.Fatalf("max HP override ignored: %d", cfg.MaxHP)
	}
	if cfg.EngineSystemPrompt != "custom engine prompt" {
		t.Fatalf("prompt override ignored: %q", cfg.EngineSystemPrompt)
	}
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	if _, err := LoadConfig(writeConfig(t, `{nope`)); err == nil {
		t.Fatalf("expected error for invalid JSON")
	}
}
