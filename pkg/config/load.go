package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML configuration file, applies defaults, and validates.
// Environment variables are not consulted; use LoadWithEnvOverrides for
// that.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// LoadWithEnvOverrides loads the YAML file and then applies environment
// overrides, so the environment always takes precedence. When no path is
// given the defaults alone are used.
func LoadWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config
	if path == "" {
		cfg = DefaultConfig()
	} else {
		loaded, err := Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	applyEnvOverrides(cfg)
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies WARDEN_* variables plus the bare well-known
// keys deployments conventionally set.
func applyEnvOverrides(cfg *Config) {
	setString(&cfg.Server.ListenAddress, "WARDEN_SERVER_LISTEN_ADDRESS")
	setDuration(&cfg.Server.ReadTimeout, "WARDEN_SERVER_READ_TIMEOUT")
	setDuration(&cfg.Server.WriteTimeout, "WARDEN_SERVER_WRITE_TIMEOUT")
	setDuration(&cfg.Server.IdleTimeout, "WARDEN_SERVER_IDLE_TIMEOUT")
	setDuration(&cfg.Server.RequestTimeout, "WARDEN_SERVER_REQUEST_TIMEOUT")

	setString(&cfg.Auth.JWTSecret, "WARDEN_AUTH_JWT_SECRET", "JWT_SECRET")
	setString(&cfg.Auth.JWTIssuer, "WARDEN_AUTH_JWT_ISSUER", "JWT_ISSUER")
	setString(&cfg.Auth.JWTAudience, "WARDEN_AUTH_JWT_AUDIENCE", "JWT_AUDIENCE")

	setString(&cfg.Policy.Source, "WARDEN_POLICY_SOURCE")
	setString(&cfg.Policy.FilePath, "WARDEN_POLICY_FILE_PATH")
	setBool(&cfg.Policy.Watch, "WARDEN_POLICY_WATCH")
	setString(&cfg.Policy.Git.Repo, "WARDEN_POLICY_GIT_REPO")
	setString(&cfg.Policy.Git.Branch, "WARDEN_POLICY_GIT_BRANCH")
	setString(&cfg.Policy.Git.Path, "WARDEN_POLICY_GIT_PATH")
	setString(&cfg.Policy.Git.CheckoutPath, "WARDEN_POLICY_GIT_CHECKOUT_PATH")
	setDuration(&cfg.Policy.Git.PollInterval, "WARDEN_POLICY_GIT_POLL_INTERVAL")

	setString(&cfg.Routing.DefaultPool, "WARDEN_ROUTING_DEFAULT_POOL", "DEFAULT_MODEL_POOL")
	setBool(&cfg.Routing.StubResponses, "WARDEN_ROUTING_STUB_RESPONSES", "MODEL_GARDEN_STUB_RESPONSES")

	setString(&cfg.Audit.SQLitePath, "WARDEN_AUDIT_SQLITE_PATH")
	setString(&cfg.Audit.HashSalt, "WARDEN_AUDIT_HASH_SALT", "HASH_SALT")
	setString(&cfg.Audit.SweepSchedule, "WARDEN_AUDIT_SWEEP_SCHEDULE")

	setString(&cfg.Storage.ConfigDBPath, "WARDEN_STORAGE_CONFIG_DB_PATH")

	setString(&cfg.Telemetry.Logging.Level, "WARDEN_LOGGING_LEVEL")
	setString(&cfg.Telemetry.Logging.Format, "WARDEN_LOGGING_FORMAT")
	setBool(&cfg.Telemetry.Metrics.Enabled, "WARDEN_METRICS_ENABLED")
	setString(&cfg.Telemetry.Metrics.Path, "WARDEN_METRICS_PATH")
}

// setString assigns the first non-empty value among the named variables.
func setString(dst *string, names ...string) {
	for _, name := range names {
		if val := os.Getenv(name); val != "" {
			*dst = val
			return
		}
	}
}

func setBool(dst *bool, names ...string) {
	for _, name := range names {
		if val := os.Getenv(name); val != "" {
			if b, err := strconv.ParseBool(val); err == nil {
				*dst = b
			}
			return
		}
	}
}

func setDuration(dst *time.Duration, names ...string) {
	for _, name := range names {
		if val := os.Getenv(name); val != "" {
			if d, err := time.ParseDuration(val); err == nil {
				*dst = d
			}
			return
		}
	}
}
