package api

import "time"

// Version is reported by the root and health endpoints.
const Version = "0.1.0"

// DefaultMaxBodyBytes caps request bodies and WebSocket messages.
const DefaultMaxBodyBytes = 10 << 20

// Config holds server configuration.
type Config struct {
	Port            int
	StorePath       string        // SQLite render store (empty = no persistence)
	CacheSize       int           // Render cache entries (0 = default)
	CacheBytes      int64         // Render cache SVG bytes (0 = default)
	MaxBodyBytes    int64         // Request body limit (0 = DefaultMaxBodyBytes)
	JobRetention    time.Duration // How long finished jobs stay queryable (0 = DefaultJobRetention)
	MaxFinishedJobs int           // Finished jobs kept (0 = DefaultMaxFinished)
	TLS             TLSConfig     // TLS configuration
	AllowedOrigins  []string      // CORS and WebSocket allowed origins (empty = allow all)
}

// TLSConfig holds TLS/HTTPS configuration.
type TLSConfig struct {
	Enabled  bool   // Enable HTTPS
	CertFile string // Path to TLS certificate file
	KeyFile  string // Path to TLS private key file
}

func (cfg Config) withDefaults() Config {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return cfg
}
