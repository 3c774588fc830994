package config

import (
	"errors"
	"fmt"
)

// Validate checks the configuration for inconsistencies. It collects every
// problem rather than stopping at the first.
func Validate(cfg *Config) error {
	var errs []error

	switch cfg.Telemetry.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("telemetry.logging.level: unknown level %q", cfg.Telemetry.Logging.Level))
	}
	switch cfg.Telemetry.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("telemetry.logging.format: unknown format %q", cfg.Telemetry.Logging.Format))
	}

	switch cfg.Policy.Source {
	case PolicySourceFile:
		if cfg.Policy.FilePath == "" {
			errs = append(errs, errors.New("policy.file_path: required for the file source"))
		}
	case PolicySourceGit:
		if cfg.Policy.Git.Repo == "" {
			errs = append(errs, errors.New("policy.git.repo: required for the git source"))
		}
	case PolicySourceSQLite:
	default:
		errs = append(errs, fmt.Errorf("policy.source: unknown source %q", cfg.Policy.Source))
	}

	if cfg.Server.ListenAddress == "" {
		errs = append(errs, errors.New("server.listen_address: required"))
	}
	if cfg.Server.RequestTimeout <= 0 {
		errs = append(errs, errors.New("server.request_timeout: must be positive"))
	}

	return errors.Join(errs...)
}
