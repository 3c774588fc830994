// Package config defines the gateway configuration: the HTTP server, bearer
// authentication, policy sources, routing defaults, audit storage, and
// telemetry.
//
// Configuration is loaded from a YAML file, filled with defaults, overridden
// by WARDEN_* environment variables (plus the handful of bare well-known
// keys such as JWT_SECRET and HASH_SALT), and validated. Loading order means
// the environment always wins over the file.
package config
