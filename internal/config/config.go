// Package config holds every tunable of the server: gameplay balance, debug affordances and
// runtime tuning. Values come from Default(), optionally overlaid by a YAML file and then by
// URPG_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration document.
type Config struct {
	Balance Balance `yaml:"balance" json:"balance"`
	Debug   Debug   `yaml:"debug" json:"debug"`
	Server  Server  `yaml:"server" json:"server"`
}

// Balance holds gameplay balance configuration.
type Balance struct {
	TickInterval time.Duration `yaml:"tick_interval" json:"tick_interval"`

	// Idle (per tick)
	IdleResourceChance  float64 `yaml:"idle_resource_chance" json:"idle_resource_chance"`
	IdleYieldMultiplier float64 `yaml:"idle_yield_multiplier" json:"idle_yield_multiplier"`
	IdleXPChance        float64 `yaml:"idle_xp_chance" json:"idle_xp_chance"`
	IdleNuminsChance    float64 `yaml:"idle_numins_chance" json:"idle_numins_chance"`
	IdleNuminsMin       int     `yaml:"idle_numins_min" json:"idle_numins_min"`
	IdleNuminsMax       int     `yaml:"idle_numins_max" json:"idle_numins_max"`

	// Tap bonuses
	TapNuminsChance float64 `yaml:"tap_numins_chance" json:"tap_numins_chance"`
	TapNuminsMin    int     `yaml:"tap_numins_min" json:"tap_numins_min"`
	TapNuminsMax    int     `yaml:"tap_numins_max" json:"tap_numins_max"`
	TapXPChance     float64 `yaml:"tap_xp_chance" json:"tap_xp_chance"`
	CardDropChance  float64 `yaml:"card_drop_chance" json:"card_drop_chance"`

	// Storage and construction
	BaseStorageCapacity    int     `yaml:"base_storage_capacity" json:"base_storage_capacity"`
	MinBuildTimeMultiplier float64 `yaml:"min_build_time_multiplier" json:"min_build_time_multiplier"`

	// Persistence
	BackupsKept      int           `yaml:"backups_kept" json:"backups_kept"`
	AutoSaveInterval time.Duration `yaml:"auto_save_interval" json:"auto_save_interval"`
}

// Debug toggles development affordances. None of them are normal progression.
type Debug struct {
	BuildWithoutIngredients bool `yaml:"build_without_ingredients" json:"build_without_ingredients"`
	AllLocationsUnlocked    bool `yaml:"all_locations_unlocked" json:"all_locations_unlocked"`
	UnlockAllBays           bool `yaml:"unlock_all_bays" json:"unlock_all_bays"`
	SeedTestAccount         bool `yaml:"seed_test_account" json:"seed_test_account"`
}

// Default returns the shipped game configuration.
func Default() Config {
	return Config{
		Balance: DefaultBalance(),
		Server:  DefaultServer(),
	}
}

// Dev returns Default with every debug affordance enabled and the low-resource server profile.
func Dev() Config {
	cfg := Default()
	cfg.Debug = Debug{
		BuildWithoutIngredients: true,
		AllLocationsUnlocked:    true,
		UnlockAllBays:           true,
		SeedTestAccount:         true,
	}
	cfg.Server = LowResourceServer()
	return cfg
}

// DefaultBalance returns the base balance values.
func DefaultBalance() Balance {
	return Balance{
		TickInterval: time.Second,

		IdleResourceChance:  0.10,
		IdleYieldMultiplier: 1.0,
		IdleXPChance:        0.02,
		IdleNuminsChance:    0.10,
		IdleNuminsMin:       1,
		IdleNuminsMax:       50,

		TapNuminsChance: 0.10,
		TapNuminsMin:    1,
		TapNuminsMax:    100,
		TapXPChance:     0.01,
		CardDropChance:  0.001,

		BaseStorageCapacity:    1000,
		MinBuildTimeMultiplier: 0.1,

		BackupsKept:      5,
		AutoSaveInterval: 30 * time.Second,
	}
}

// Load reads a YAML file over Default(). Fields absent from the file keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Marshal renders the configuration as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate rejects values the simulation cannot run with.
func (c Config) Validate() error {
	b := c.Balance
	var errs []error
	for name, p := range map[string]float64{
		"idle_resource_chance": b.IdleResourceChance,
		"idle_xp_chance":       b.IdleXPChance,
		"idle_numins_chance":   b.IdleNuminsChance,
		"tap_numins_chance":    b.TapNuminsChance,
		"tap_xp_chance":        b.TapXPChance,
		"card_drop_chance":     b.CardDropChance,
	} {
		if p < 0 || p > 1 {
			errs = append(errs, fmt.Errorf("%s must be within [0,1], got %v", name, p))
		}
	}
	if b.TickInterval <= 0 {
		errs = append(errs, errors.New("tick_interval must be positive"))
	}
	if b.IdleNuminsMin < 0 || b.IdleNuminsMax < b.IdleNuminsMin {
		errs = append(errs, fmt.Errorf("idle numins range [%d,%d] is invalid", b.IdleNuminsMin, b.IdleNuminsMax))
	}
	if b.TapNuminsMin < 0 || b.TapNuminsMax < b.TapNuminsMin {
		errs = append(errs, fmt.Errorf("tap numins range [%d,%d] is invalid", b.TapNuminsMin, b.TapNuminsMax))
	}
	if b.BaseStorageCapacity <= 0 {
		errs = append(errs, errors.New("base_storage_capacity must be positive"))
	}
	if b.MinBuildTimeMultiplier <= 0 || b.MinBuildTimeMultiplier > 1 {
		errs = append(errs, errors.New("min_build_time_multiplier must be within (0,1]"))
	}
	if b.BackupsKept < 1 {
		errs = append(errs, errors.New("backups_kept must be at least 1"))
	}
	if c.Server.ClientSendBuffer <= 0 {
		errs = append(errs, errors.New("client_send_buffer must be positive"))
	}
	return errors.Join(errs...)
}
