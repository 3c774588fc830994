package config

import "sync"

var (
	globalMu  sync.RWMutex
	globalCfg *Config
)

// SetGlobal publishes the process-wide configuration. It is called once at
// startup, before any reader.
func SetGlobal(cfg *Config) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalCfg = cfg
}

// Global returns the process-wide configuration, or defaults when none was
// published. Components should prefer explicit injection; this exists for
// tooling that has no wiring path.
func Global() *Config {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalCfg == nil {
		return DefaultConfig()
	}
	return globalCfg
}
