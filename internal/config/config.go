package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

type GameConfig struct {
	AllowedBetUnits       []int64 `json:"allowed_bet_units"`
	MinEntryMultiplier    int64   `json:"min_entry_multiplier"`
	TurnTimeoutSeconds    int     `json:"turn_timeout_seconds"`
	AutoStartDelaySeconds int     `json:"auto_start_delay_seconds"`
	BalanceSyncSeconds    int     `json:"balance_sync_seconds"`
	WelcomeBonusAmount    int64   `json:"welcome_bonus_amount"`
	LaunchTokenTTLSeconds int     `json:"launch_token_ttl_seconds"`
}

var defaults = GameConfig{
	AllowedBetUnits:       []int64{1, 5, 10, 50, 100, 500},
	MinEntryMultiplier:    15,
	TurnTimeoutSeconds:    30,
	AutoStartDelaySeconds: 15,
	BalanceSyncSeconds:    2,
	WelcomeBonusAmount:    10000,
	LaunchTokenTTLSeconds: 90,
}

var (
	cfg      *GameConfig
	loadOnce sync.Once
	loadErr  error
)

// LoadGameConfig loads the game configuration from the given path.
// Missing fields fall back to the built-in defaults.
func LoadGameConfig(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read game config: %w", err)
			return
		}

		c := defaults
		if err := json.Unmarshal(data, &c); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal game config: %w", err)
			return
		}
		cfg = &c
	})
	return loadErr
}

// GetGameConfig returns the global game configuration, or the built-in
// defaults when no file was loaded.
func GetGameConfig() *GameConfig {
	if cfg == nil {
		return &defaults
	}
	return cfg
}

// IsAllowedBetUnit reports whether the stake is one of the configured
// table stakes.
func IsAllowedBetUnit(betUnit int64) bool {
	for _, u := range GetGameConfig().AllowedBetUnits {
		if u == betUnit {
			return true
		}
	}
	return false
}

// MinimumEntry returns the balance a player needs to sit at a table
// with the given stake.
func MinimumEntry(betUnit int64) int64 {
	return betUnit * GetGameConfig().MinEntryMultiplier
}
