package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Load reads a mission config file. A missing file is not an error: it
// yields the §6 defaults, and nothing is logged about it. A value that
// does not parse as an integer for a recognised numeric key is skipped,
// leaving that key at its previous value; out-of-range integers are
// clamped rather than rejected; unknown keys are silently ignored.
func Load(path string) (MissionConfig, error) {
	cfg := Default()

	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: opening %s: %w", path, err)
	}
	defer f.Close()

	if err := applyLines(&cfg, f); err != nil {
		return cfg, err
	}

	cfg.Clamp()
	return cfg, nil
}

func applyLines(cfg *MissionConfig, f *os.File) error {
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		applyKey(cfg, key, value)
	}
	return scanner.Err()
}

func applyKey(cfg *MissionConfig, key, value string) {
	switch key {
	case "W":
		if n, err := strconv.Atoi(value); err == nil {
			cfg.DefenceHitProb = n
		}
	case "Q":
		if n, err := strconv.Atoi(value); err == nil {
			cfg.LinkLossProb = n
		}
	case "Z":
		if n, err := strconv.Atoi(value); err == nil {
			cfg.ReconnectTimeout = n
		}
	case "speed":
		if n, err := strconv.Atoi(value); err == nil {
			cfg.Speed = n
		}
	case "fuel":
		if n, err := strconv.Atoi(value); err == nil {
			cfg.InitialFuel = n
		}
	case "ticks":
		if n, err := strconv.Atoi(value); err == nil {
			cfg.Ticks = n
		}
	case "log_level":
		cfg.LogLevel = value
	default:
		// unknown keys are ignored per spec.md §6
	}
}

// ApplyEnvOverrides overlays SWARMSIM_* environment variables onto cfg,
// loading a .env file first if one is present in the working directory
// (mirrors the teacher's MergeWithEnvironment, adapted to this repo's
// smaller key set).
func ApplyEnvOverrides(cfg *MissionConfig) {
	_ = godotenv.Load() // optional; absence is not an error

	if v, ok := os.LookupEnv("SWARMSIM_W"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.DefenceHitProb = n
		}
	}
	if v, ok := os.LookupEnv("SWARMSIM_Q"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.LinkLossProb = n
		}
	}
	if v, ok := os.LookupEnv("SWARMSIM_Z"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ReconnectTimeout = n
		}
	}
	if v, ok := os.LookupEnv("SWARMSIM_LOG_LEVEL"); ok {
		cfg.LogLevel = v
	}
	cfg.Clamp()
}
