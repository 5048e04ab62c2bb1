package config

// APIConfig defines the HTTP API listener.
type APIConfig struct {
	// Enabled starts the HTTP API when true.
	Enabled bool `json:"enabled"`
	// Addr is the listen address of the API server.
	Addr string `json:"addr"`
}

// SetDefaults applies sane defaults.
func (c *APIConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
}
