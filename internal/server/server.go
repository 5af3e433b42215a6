// Package server provides a local preview server for the artifact tree.
// It serves the synthesized JSON exactly as a static content API would,
// so frontend work can run against fresh artifacts without a deploy.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"git.home.luguber.info/inful/contentsync/internal/logfields"
	"git.home.luguber.info/inful/contentsync/internal/version"
)

// Options configures the preview server.
type Options struct {
	Addr        string
	ArtifactDir string
	// MetricsHandler, when non-nil, is mounted at MetricsPath.
	MetricsHandler http.Handler
	MetricsPath    string
}

// Server serves artifacts over HTTP for local preview.
type Server struct {
	srv  *http.Server
	opts Options
}

// New builds a preview server. Artifacts are served from the tree root with
// caching disabled so edits show up on the next fetch.
func New(opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}
	if opts.MetricsPath == "" {
		opts.MetricsPath = "/metrics"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", handleHealth)
	if opts.MetricsHandler != nil {
		mux.Handle(opts.MetricsPath, opts.MetricsHandler)
	}
	mux.Handle("/", noCache(corsAllowAll(http.FileServer(http.Dir(opts.ArtifactDir)))))

	return &Server{
		srv: &http.Server{
			Addr:              opts.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		opts: opts,
	}
}

// Start binds the listener and serves in a background goroutine. Binding
// happens here so port conflicts fail fast instead of surfacing later.
func (s *Server) Start(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("preview server port %s: %w", s.srv.Addr, err)
	}

	slog.Info("Preview server started",
		slog.String("addr", s.srv.Addr),
		logfields.Path(s.opts.ArtifactDir))

	go func() {
		if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("Preview server error", logfields.Error(err))
		}
	}()
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("preview server shutdown: %w", err)
	}
	slog.Info("Preview server stopped")
	return nil
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}

// noCache disables client caching for JSON artifacts. The runtime fetch
// layer appends cache busters, but the preview server should not depend
// on that.
func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, ".json") || r.URL.Path == "/" {
			w.Header().Set("Cache-Control", "no-cache, must-revalidate")
		}
		next.ServeHTTP(w, r)
	})
}

// corsAllowAll lets browser frontends on other origins fetch artifacts
// during local development.
func corsAllowAll(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
