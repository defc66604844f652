package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	feedService "github.com/reshetovitsme/nostr-feed-reader/internal/modules/feed/service"
	"github.com/reshetovitsme/nostr-feed-reader/internal/shared/config"
	sharederrors "github.com/reshetovitsme/nostr-feed-reader/internal/shared/errors"
	sloghttp "github.com/samber/slog-http"
)

// Server exposes the feed preview pipeline over HTTP
type Server struct {
	cfg         *config.Config
	feedService *feedService.Service
	logger      *slog.Logger
}

// New creates a new HTTP server
func New(cfg *config.Config, feedService *feedService.Service) *Server {
	return &Server{
		cfg:         cfg,
		feedService: feedService,
		logger:      slog.Default(),
	}
}

// SetLogger sets the logger
func (s *Server) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// Start starts the HTTP server
func (s *Server) Start() error {
	mux := http.NewServeMux()

	// Normalized feed preview endpoint
	mux.HandleFunc("GET /preview", s.handlePreview)

	// Health check endpoint
	mux.HandleFunc("GET /health", s.handleHealth)

	// Root endpoint with instructions
	mux.HandleFunc("GET /", s.handleRoot)

	addr := fmt.Sprintf(":%s", s.cfg.HTTPPort)
	s.logger.Info("Preview server starting", "addr", addr)

	// Use slog-http middleware with recovery
	handler := sloghttp.Recovery(mux)
	handler = sloghttp.New(s.logger)(handler)

	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server.ListenAndServe()
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		http.Error(w, "missing url parameter", http.StatusBadRequest)
		return
	}

	feed, err := s.feedService.Preview(r.Context(), rawURL)
	if err != nil {
		if errors.Is(err, sharederrors.ErrInvalidInput) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if errors.Is(err, sharederrors.ErrFeedNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		s.logger.Warn("Preview failed", "url", rawURL, "error", err)
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	rss, err := s.feedService.Render(feed)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	_, _ = w.Write([]byte(rss))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "nostr-feed-reader preview server")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "GET /preview?url=<site or feed URL>  - discover and normalize a feed")
	fmt.Fprintln(w, "GET /health                          - health check")
}
