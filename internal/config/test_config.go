package config

import "time"

// TestConfig returns a config suitable for testing
func TestConfig() *Config {
	cfg := defaultConfig()
	cfg.API = APIConfig{
		BaseURL:     "http://127.0.0.1:0",
		HTTPTimeout: 5 * time.Second,
		UserAgent:   AppName + "-test/1.0",
	}
	cfg.Database = DatabaseConfig{
		Path:    ":memory:",
		Timeout: 1 * time.Second,
	}
	cfg.Sync = SyncConfig{RefetchAfterMutation: false, ImportConcurrency: 2}
	cfg.Log = LogConfig{Level: "off"}
	return cfg
}
