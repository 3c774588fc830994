package config

import "time"

// Config is the root gateway configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Auth      AuthConfig      `yaml:"auth"`
	Policy    PolicyConfig    `yaml:"policy"`
	Routing   RoutingConfig   `yaml:"routing"`
	Audit     AuditConfig     `yaml:"audit"`
	Storage   StorageConfig   `yaml:"storage"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	// ListenAddress is the host:port to bind.
	ListenAddress string `yaml:"listen_address"`

	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// RequestTimeout is the per-request decision deadline.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// CORSAllowedOrigins lists origins allowed by the browser console.
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
}

// AuthConfig configures bearer token verification.
type AuthConfig struct {
	// JWTSecret signs and verifies tokens. Required outside development.
	JWTSecret string `yaml:"jwt_secret"`

	JWTIssuer   string `yaml:"jwt_issuer"`
	JWTAudience string `yaml:"jwt_audience"`
}

// Policy source modes.
const (
	PolicySourceFile   = "file"
	PolicySourceGit    = "git"
	PolicySourceSQLite = "sqlite"
)

// PolicyConfig configures where policies come from.
type PolicyConfig struct {
	// Source selects the policy origin: file, git, or sqlite.
	Source string `yaml:"source"`

	// FilePath is the bundle directory for the file source.
	FilePath string `yaml:"file_path"`

	// Watch reloads the bundle when the source changes.
	Watch bool `yaml:"watch"`

	Git GitPolicyConfig `yaml:"git"`
}

// GitPolicyConfig configures the git policy source.
type GitPolicyConfig struct {
	Repo         string        `yaml:"repo"`
	Branch       string        `yaml:"branch"`
	Path         string        `yaml:"path"`
	CheckoutPath string        `yaml:"checkout_path"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

// RoutingConfig configures the model-routing defaults.
type RoutingConfig struct {
	// DefaultPool receives executable decisions that name no pool.
	DefaultPool string `yaml:"default_pool"`

	// StubResponses serves deterministic stub responses when no live
	// connector is configured.
	StubResponses bool `yaml:"stub_responses"`
}

// AuditConfig configures the tamper-evident chain.
type AuditConfig struct {
	// SQLitePath is the audit chain database file.
	SQLitePath string `yaml:"sqlite_path"`

	// HashSalt participates in every payload hash. It must stay stable
	// for the life of a deployment.
	HashSalt string `yaml:"hash_salt"`

	// SweepSchedule is the cron schedule of the integrity sweep; empty
	// disables it.
	SweepSchedule string `yaml:"sweep_schedule"`

	// SweepTimeout bounds one verification pass.
	SweepTimeout time.Duration `yaml:"sweep_timeout"`
}

// StorageConfig configures the operational configuration database holding
// policies, pools, and targets.
type StorageConfig struct {
	// ConfigDBPath is the SQLite file shared by the policy and routing
	// stores.
	ConfigDBPath string `yaml:"config_db_path"`
}

// TelemetryConfig configures logging and metrics.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is json or text.
	Format string `yaml:"format"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}
