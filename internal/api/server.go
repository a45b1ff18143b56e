// Package api provides the Markdown Viewer preview API server.
package api

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/FocuswithJustin/MarkdownViewer/core/cache"
	"github.com/FocuswithJustin/MarkdownViewer/internal/logging"
	"github.com/FocuswithJustin/MarkdownViewer/internal/server"
	"github.com/FocuswithJustin/MarkdownViewer/internal/store"
)

// Server serves renders and line classifications over HTTP and WebSocket.
type Server struct {
	cfg     Config
	cache   *cache.RenderCache
	store   *store.Store // nil when persistence is off
	jobs    *JobStore
	hub     *Hub
	started time.Time
}

// NewServer creates a server and starts its WebSocket hub. Call Close when
// done.
func NewServer(cfg Config) (*Server, error) {
	cfg = cfg.withDefaults()

	entries, bytes := cfg.CacheSize, cfg.CacheBytes
	if entries == 0 {
		entries = cache.DefaultRenderEntries
	}
	if bytes == 0 {
		bytes = cache.DefaultRenderBytes
	}

	s := &Server{
		cfg:     cfg,
		cache:   cache.NewRenderCache(entries, bytes),
		jobs:    NewJobStore(cfg.JobRetention, cfg.MaxFinishedJobs),
		hub:     NewHub(),
		started: time.Now(),
	}

	if cfg.StorePath != "" {
		st, err := store.Open(cfg.StorePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open render store: %w", err)
		}
		s.store = st
	}

	go s.hub.Run()
	return s, nil
}

// Close stops the hub, cancels pending jobs and closes the store.
func (s *Server) Close() error {
	s.hub.Stop()
	s.jobs.CancelAll()
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := s.setupRoutes()

	var handler http.Handler = server.SecurityHeadersWithCSP(server.APICSPConfig(), mux)

	// CORS (outside security headers so preflights are answered early)
	handler = server.CORSMiddlewareWithConfig(s.corsConfig(), handler)

	return logging.CombinedMiddleware(handler)
}

func (s *Server) corsConfig() server.CORSConfig {
	return server.CORSConfig{AllowedOrigins: s.cfg.AllowedOrigins}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/render", s.handleRender)
	mux.HandleFunc("/render/", s.handleRenderByHash)
	mux.HandleFunc("/blocks", s.handleBlocks)
	mux.HandleFunc("/jobs", s.handleJobs)
	mux.HandleFunc("/jobs/", s.handleJobByID)
	mux.HandleFunc("/ws", s.handleWebSocket)

	return mux
}

// Start runs the API server with the given configuration until it fails.
func Start(cfg Config) error {
	if cfg.TLS.Enabled {
		if cfg.TLS.CertFile == "" || cfg.TLS.KeyFile == "" {
			return fmt.Errorf("TLS enabled but cert or key file not specified")
		}
		if _, err := os.Stat(cfg.TLS.CertFile); err != nil {
			return fmt.Errorf("TLS cert file not found: %w", err)
		}
		if _, err := os.Stat(cfg.TLS.KeyFile); err != nil {
			return fmt.Errorf("TLS key file not found: %w", err)
		}
	}

	s, err := NewServer(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	protocol := "http"
	wsProtocol := "ws"
	if cfg.TLS.Enabled {
		protocol = "https"
		wsProtocol = "wss"
		logging.Info("TLS enabled", "cert_file", cfg.TLS.CertFile)
	}

	storePath := "disabled"
	if cfg.StorePath != "" {
		storePath = server.AbsPath(cfg.StorePath)
	}
	logging.ServerStartup("preview_api", protocol, cfg.Port,
		"websocket_protocol", wsProtocol,
		"store", storePath,
		"max_body_bytes", s.cfg.MaxBodyBytes)

	if len(cfg.AllowedOrigins) > 0 {
		logging.SecurityEvent("cors_configured", "api",
			"mode", "restricted",
			"allowed_origins_count", len(cfg.AllowedOrigins))
	} else {
		logging.SecurityEvent("cors_configured", "api",
			"mode", "permissive",
			"note", "allowing all origins (*)")
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if cfg.TLS.Enabled {
		return srv.ListenAndServeTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile)
	}
	return srv.ListenAndServe()
}
