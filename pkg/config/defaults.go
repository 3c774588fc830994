package config

import "time"

// Default values applied to zero-valued fields before validation.
const (
	DefaultListenAddress   = ":8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultRequestTimeout  = 30 * time.Second

	DefaultPolicySource = PolicySourceSQLite
	DefaultPollInterval = time.Minute

	DefaultAuditPath     = "data/audit.db"
	DefaultConfigDBPath  = "data/warden.db"
	DefaultSweepSchedule = "@hourly"
	DefaultSweepTimeout  = time.Minute

	DefaultLogLevel    = "info"
	DefaultLogFormat   = "json"
	DefaultMetricsPath = "/metrics"
)

// ApplyDefaults fills zero-valued fields with their defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = DefaultRequestTimeout
	}

	if cfg.Policy.Source == "" {
		cfg.Policy.Source = DefaultPolicySource
	}
	if cfg.Policy.Git.Branch == "" {
		cfg.Policy.Git.Branch = "main"
	}
	if cfg.Policy.Git.PollInterval == 0 {
		cfg.Policy.Git.PollInterval = DefaultPollInterval
	}

	if cfg.Audit.SQLitePath == "" {
		cfg.Audit.SQLitePath = DefaultAuditPath
	}
	if cfg.Audit.SweepSchedule == "" {
		cfg.Audit.SweepSchedule = DefaultSweepSchedule
	}
	if cfg.Audit.SweepTimeout == 0 {
		cfg.Audit.SweepTimeout = DefaultSweepTimeout
	}

	if cfg.Storage.ConfigDBPath == "" {
		cfg.Storage.ConfigDBPath = DefaultConfigDBPath
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
}

// DefaultConfig returns a configuration with every default applied. Stub
// responses are on so a fresh checkout works without a live connector.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Routing.StubResponses = true
	cfg.Telemetry.Metrics.Enabled = true
	ApplyDefaults(cfg)
	return cfg
}
