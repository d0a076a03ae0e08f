package api

import "time"

// Config holds HTTP server settings.
type Config struct {
	Addr string `mapstructure:"addr"`

	// Mode is "release" or "debug". Debug responses include internal
	// error detail.
	Mode string `mapstructure:"mode"`

	CORSOrigins []string `mapstructure:"cors_origins"`

	// RateLimit is the number of submissions allowed per client address
	// per minute. Zero disables limiting.
	RateLimit int `mapstructure:"rate_limit"`

	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// MaterialsDir, when set, is served as a catalog at /api/materials.
	MaterialsDir string `mapstructure:"-"`
}

// DefaultConfig listens on :8080 in release mode.
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		Mode:            "release",
		CORSOrigins:     []string{"*"},
		RateLimit:       30,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Debug reports whether internal error detail may be returned.
func (c Config) Debug() bool { return c.Mode == "debug" }
