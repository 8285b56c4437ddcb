package config

import "time"

// Config holds runtime settings for the Centinela client.
//
// Fields:
//   - GatewayURL: websocket endpoint of the realtime gateway.
//   - FirestoreProjectID: project for the durable document store.
//   - CredentialsFile: optional service-account key path; empty means ADC.
//   - DatabaseDSN: SQLite DSN of the local cache.
//   - PreciseLocationTimeout: budget for a fresh high-accuracy fix.
//   - UserID / UserName: session identity; empty UserID browses anonymously.
type Config struct {
	GatewayURL             string
	FirestoreProjectID     string
	CredentialsFile        string
	DatabaseDSN            string
	PreciseLocationTimeout time.Duration
	UserID                 string
	UserName               string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.GatewayURL = "ws://127.0.0.1:8090/ws"
	c.DatabaseDSN = "centinela.db"
	c.PreciseLocationTimeout = 6 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
