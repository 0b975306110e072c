package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvVarMapping defines the mapping between environment variables and
// config paths.
var EnvVarMapping = map[string]string{
	"AGENTRY_AGENTS_DIR":      "store.dir",
	"AGENTRY_READ_TIMEOUT":    "store.read_timeout",
	"AGENTRY_VALIDATE_SCHEMA": "store.validate_schema",
	"AGENTRY_CACHE_CAPACITY":  "cache.capacity",
	"AGENTRY_DEFAULT_LIMIT":   "listing.default_limit",
	"AGENTRY_MAX_LIMIT":       "listing.max_limit",
	"AGENTRY_DB_DIALECT":      "database.dialect",
	"AGENTRY_DB_DSN":          "database.dsn",
	"AGENTRY_HOST":            "server.host",
	"AGENTRY_PORT":            "server.port",
	"AGENTRY_LOG_LEVEL":       "log.level",
	"AGENTRY_LOG_FORMAT":      "log.format",
}

// ApplyEnvVars applies environment variable overrides to the config.
// Returns the list of config paths that were overridden.
func ApplyEnvVars(cfg *Config) []string {
	var overridden []string

	for envVar, configPath := range EnvVarMapping {
		value := os.Getenv(envVar)
		if value == "" {
			continue
		}
		if applyEnvVar(cfg, configPath, value) {
			overridden = append(overridden, configPath)
		}
	}

	return overridden
}

// applyEnvVar applies a single environment variable to the config.
// Returns true if the value was applied.
func applyEnvVar(cfg *Config, path string, value string) bool {
	switch path {
	case "store.dir":
		cfg.Store.Dir = value
	case "store.read_timeout":
		if d, err := time.ParseDuration(value); err == nil {
			cfg.Store.ReadTimeout = d
		} else {
			return false
		}
	case "store.validate_schema":
		cfg.Store.ValidateSchema = parseBool(value)
	case "cache.capacity":
		if v, err := strconv.Atoi(value); err == nil {
			cfg.Cache.Capacity = v
		} else {
			return false
		}
	case "listing.default_limit":
		if v, err := strconv.Atoi(value); err == nil {
			cfg.Listing.DefaultLimit = v
		} else {
			return false
		}
	case "listing.max_limit":
		if v, err := strconv.Atoi(value); err == nil {
			cfg.Listing.MaxLimit = v
		} else {
			return false
		}
	case "database.dialect":
		cfg.Database.Dialect = value
	case "database.dsn":
		cfg.Database.DSN = value
	case "server.host":
		cfg.Server.Host = value
	case "server.port":
		if v, err := strconv.Atoi(value); err == nil {
			cfg.Server.Port = v
		} else {
			return false
		}
	case "log.level":
		cfg.Log.Level = value
	case "log.format":
		cfg.Log.Format = value
	default:
		return false
	}
	return true
}

func parseBool(value string) bool {
	switch strings.ToLower(value) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
