package config

import (
	"os"
	"strconv"
	"time"
)

// FromEnv overlays URPG_* environment variables onto cfg.
// Unset or malformed variables leave the existing value untouched.
func FromEnv(cfg Config) Config {
	// Preset modes replace the server profile first so individual overrides still apply.
	switch os.Getenv("URPG_PROFILE") {
	case "dev":
		cfg = Dev()
	case "stress":
		cfg.Server = StressServer()
	}

	if v, ok := getEnvString("URPG_ADDR"); ok {
		cfg.Server.Addr = v
	}
	if v, ok := getEnvString("URPG_DB_PATH"); ok {
		cfg.Server.DBPath = v
	}
	if v, ok := getEnvInt("URPG_BLOB_CACHE_SIZE"); ok && v > 0 {
		cfg.Server.BlobCacheSize = v
	}
	if v, ok := getEnvInt("URPG_BASE_STORAGE_CAPACITY"); ok && v > 0 {
		cfg.Balance.BaseStorageCapacity = v
	}
	if v, ok := getEnvInt("URPG_BACKUPS_KEPT"); ok && v > 0 {
		cfg.Balance.BackupsKept = v
	}
	if v, ok := getEnvFloat("URPG_IDLE_RESOURCE_CHANCE"); ok {
		cfg.Balance.IdleResourceChance = v
	}
	if v, ok := getEnvFloat("URPG_CARD_DROP_CHANCE"); ok {
		cfg.Balance.CardDropChance = v
	}
	if v, ok := getEnvDuration("URPG_TICK_INTERVAL"); ok && v > 0 {
		cfg.Balance.TickInterval = v
	}
	if v, ok := getEnvDuration("URPG_AUTO_SAVE_INTERVAL"); ok && v > 0 {
		cfg.Balance.AutoSaveInterval = v
	}
	if v, ok := getEnvBool("URPG_BUILD_WITHOUT_INGREDIENTS"); ok {
		cfg.Debug.BuildWithoutIngredients = v
	}
	if v, ok := getEnvBool("URPG_ALL_LOCATIONS_UNLOCKED"); ok {
		cfg.Debug.AllLocationsUnlocked = v
	}
	if v, ok := getEnvBool("URPG_UNLOCK_ALL_BAYS"); ok {
		cfg.Debug.UnlockAllBays = v
	}
	if v, ok := getEnvBool("URPG_SEED_TEST_ACCOUNT"); ok {
		cfg.Debug.SeedTestAccount = v
	}

	return cfg
}

func getEnvString(key string) (string, bool) {
	val := os.Getenv(key)
	return val, val != ""
}

func getEnvInt(key string) (int, bool) {
	val := os.Getenv(key)
	if val == "" {
		return 0, false
	}
	num, err := strconv.Atoi(val)
	if err != nil {
		return 0, false
	}
	return num, true
}

func getEnvFloat(key string) (float64, bool) {
	val := os.Getenv(key)
	if val == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func getEnvBool(key string) (bool, bool) {
	val := os.Getenv(key)
	if val == "" {
		return false, false
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, false
	}
	return b, true
}

func getEnvDuration(key string) (time.Duration, bool) {
	val := os.Getenv(key)
	if val == "" {
		return 0, false
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, false
	}
	return d, true
}
