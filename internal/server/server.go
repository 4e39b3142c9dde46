// Package server exposes the live tracking results over HTTP: a health check,
// the latest landmark snapshot, an MJPEG preview and a WebSocket feed.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ayusman/mudra/internal/log"
	"github.com/ayusman/mudra/internal/server/api"
	"github.com/ayusman/mudra/internal/store"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config holds the server configuration.
type Config struct {
	Addr      string
	StaticDir string
	Hub       *Hub
	Store     *store.Store
}

// Server represents the HTTP server.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	http   *http.Server
}

// New creates a new Server with the given configuration. A nil Hub is
// replaced by an empty one.
func New(config Config) *Server {
	if config.Hub == nil {
		config.Hub = NewHub()
	}
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes registers the live API. Session routes exist only with a
// store, static files only with a directory.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/api/snapshot", s.handleSnapshot)
	s.mux.Handle("/api/stream", NewStreamHandler(s.config.Hub))
	s.mux.Handle("/api/landmarks", NewLandmarksHandler(s.config.Hub))
	s.mux.Handle("/metrics", promhttp.Handler())

	if s.config.Store != nil {
		sessions := api.NewSessionHandler(s.config.Store)
		s.mux.Handle("/api/sessions", sessions)
		s.mux.Handle("/api/sessions/", sessions)
	}

	if s.config.StaticDir != "" {
		s.mux.Handle("/", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// Hub returns the hub the server reads from.
func (s *Server) Hub() *Hub {
	return s.config.Hub
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

type healthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Viewers int    `json:"viewers"`
	Streams int    `json:"streams"`
	Sockets int    `json:"sockets"`
}

// handleHealth reports liveness and how many clients are attached.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	frames, updates := s.config.Hub.Subscribers()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(healthResponse{
		Status:  "ok",
		Uptime:  time.Since(s.start).Round(time.Second).String(),
		Viewers: frames + updates,
		Streams: frames,
		Sockets: updates,
	}); err != nil {
		log.Warn("encoding health response: %v", err)
	}
}

// handleSnapshot returns the latest update, or 204 before the first one.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	latest := s.config.Hub.Latest()
	if latest == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(latest)
}

// ListenAndServe serves on the configured address until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.http = &http.Server{Addr: s.config.Addr, Handler: s}

	errCh := make(chan error, 1)
	go func() {
		log.Info("serving live API on %s", s.config.Addr)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
