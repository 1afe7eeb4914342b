package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// EnvWarning records an environment value that could not be parsed and the
// fallback used in its place.
type EnvWarning struct {
	Key      string
	Value    string
	Fallback string
	Reason   string
}

var (
	warnMu   sync.Mutex
	warnings []EnvWarning
)

func warnEnv(key, raw, reason string, fallback any) {
	warnMu.Lock()
	defer warnMu.Unlock()
	warnings = append(warnings, EnvWarning{Key: key, Value: raw, Fallback: fmt.Sprint(fallback), Reason: reason})
}

// EnvWarnings returns and clears the parse warnings collected while loading
// config. Config loads before the logger exists, so callers log them later.
func EnvWarnings() []EnvWarning {
	warnMu.Lock()
	defer warnMu.Unlock()
	out := warnings
	warnings = nil
	return out
}

// getEnv reads an environment variable or returns fallback when unset or blank.
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		warnEnv(key, raw, "not an integer", fallback)
		return fallback
	}
	return v
}

func boolEnv(key string, fallback bool) bool {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		warnEnv(key, raw, "not a boolean", fallback)
		return fallback
	}
	return v
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		warnEnv(key, raw, "not a positive duration", fallback)
		return fallback
	}
	return v
}
