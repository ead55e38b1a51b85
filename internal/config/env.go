package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Environment overrides applied after the config file.
const (
	EnvConfigPath = "CANDOR_CONFIG"
	EnvLogLevel   = "CANDOR_LOG_LEVEL"
	EnvListen     = "CANDOR_LISTEN"
	EnvOffline    = "CANDOR_OFFLINE"
	EnvArchiveDir = "CANDOR_ARCHIVE_DIR"
)

type lookupFunc func(string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) []Warning {
	var warnings []Warning

	envString(lookup, EnvLogLevel, &cfg.Debug.LogLevel)
	envString(lookup, EnvListen, &cfg.HTTP.Listen)
	if envString(lookup, EnvArchiveDir, &cfg.Archive.Dir) && cfg.Archive.Backend == "none" {
		cfg.Archive.Backend = "dir"
	}

	if raw, ok := lookupTrimmed(lookup, EnvOffline); ok {
		offline, err := strconv.ParseBool(raw)
		if err != nil {
			warnings = append(warnings, Warning{Message: fmt.Sprintf("%s=%q is not a boolean; ignoring", EnvOffline, raw)})
		} else {
			cfg.Interview.Offline = offline
		}
	}
	return warnings
}

func envString(lookup lookupFunc, key string, dst *string) bool {
	value, ok := lookupTrimmed(lookup, key)
	if ok {
		*dst = value
	}
	return ok
}

func lookupTrimmed(lookup lookupFunc, key string) (string, bool) {
	value, ok := lookup(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}
