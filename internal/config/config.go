package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

type rawConfig struct {
	Server *struct {
		Address string `json:"address"`
	} `json:"server"`
	// All durations are expressed in seconds in the config file.
	RoomTTLSeconds        int `json:"room_ttl_seconds"`
	ReconnectGraceSeconds int `json:"reconnect_grace_seconds"`
	// ActionTimeLimitSeconds is sent to clients as a display hint alongside
	// action choices. It is never enforced server-side.
	ActionTimeLimitSeconds int `json:"action_time_limit_seconds"`
	MaxHP                  int `json:"max_hp"`
	// Optional prompt template overrides for the oracle client. Each uses the
	// tokens documented in internal/oracle.
	EngineSystemPrompt       string `json:"engine_system_prompt"`
	CharacterEnhancePrompt   string `json:"character_enhance_prompt"`
	EnvironmentEnhancePrompt string `json:"environment_enhance_prompt"`
}

// LoadedConfig carries the fully-resolved server configuration.
type LoadedConfig struct {
	ServerAddress   string
	RoomTTL         time.Duration
	ReconnectGrace  time.Duration
	ActionTimeLimit time.Duration
	MaxHP           int

	EngineSystemPrompt       string
	CharacterEnhancePrompt   string
	EnvironmentEnhancePrompt string
}

// LoadConfig reads the configuration file at path. Every key is optional;
// missing values fall back to the documented defaults so a minimal `{}` file
// is a valid configuration.
func LoadConfig(path string) (*LoadedConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var rc rawConfig
	if err := json.Unmarshal(b, &rc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	out := &LoadedConfig{
		ServerAddress:   ":3000",
		RoomTTL:         2 * time.Hour,
		ReconnectGrace:  60 * time.Second,
		ActionTimeLimit: 30 * time.Second,
		MaxHP:           40,

		EngineSystemPrompt:       strings.TrimSpace(rc.EngineSystemPrompt),
		CharacterEnhancePrompt:   strings.TrimSpace(rc.CharacterEnhancePrompt),
		EnvironmentEnhancePrompt: strings.TrimSpace(rc.EnvironmentEnhancePrompt),
	}

	if rc.Server != nil && rc.Server.Address != "" {
		out.ServerAddress = rc.Server.Address
	}
	if rc.RoomTTLSeconds > 0 {
		out.RoomTTL = time.Duration(rc.RoomTTLSeconds) * time.Second
	}
	if rc.ReconnectGraceSeconds > 0 {
		out.ReconnectGrace = time.Duration(rc.ReconnectGraceSeconds) * time.Second
	}
	if rc.ActionTimeLimitSeconds > 0 {
		out.ActionTimeLimit = time.Duration(rc.ActionTimeLimitSeconds) * time.Second
	}
	if rc.MaxHP > 0 {
		out.MaxHP = rc.MaxHP
	}

	return out, nil
}

// Default returns the configuration used when no config file is present.
func Default() *LoadedConfig {
	return &LoadedConfig{
		ServerAddress:   ":3000",
		RoomTTL:         2 * time.Hour,
		ReconnectGrace:  60 * time.Second,
		ActionTimeLimit: 30 * time.Second,
		MaxHP:           40,
	}
}
