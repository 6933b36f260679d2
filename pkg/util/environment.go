package util

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// GetEnvironmentVariables returns the process environment as a map.
func GetEnvironmentVariables() map[string]string {
	environmentVariables := map[string]string{}

	for _, variable := range os.Environ() {
		key, value, found := strings.Cut(variable, "=")
		if !found {
			continue
		}

		environmentVariables[key] = value
	}

	return environmentVariables
}

// Duration parses env[key] as a time.Duration, falling back when unset or malformed.
func Duration(env map[string]string, key string, fallback time.Duration) time.Duration {
	value := env[key]
	if value == "" {
		return fallback
	}

	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return fallback
	}

	return parsed
}

// Int parses env[key] as a positive integer, falling back when unset or malformed.
func Int(env map[string]string, key string, fallback int) int {
	value := env[key]
	if value == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}

	return parsed
}

// Enabled matches the YES convention used by the boolean switches.
func Enabled(env map[string]string, key string) bool {
	return strings.EqualFold(env[key], "YES")
}
