package service

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/law-makers/parscrape/internal/reqctx"
	"github.com/law-makers/parscrape/pkg/models"
)

// ServerConfig holds listener settings.
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Server exposes a Scraper over HTTP.
type Server struct {
	scraper   *Scraper
	cfg       ServerConfig
	version   string
	startedAt time.Time
	handler   http.Handler
}

// NewServer creates a Server. version is reported by / and /health.
func NewServer(scraper *Scraper, cfg ServerConfig, version string) *Server {
	s := &Server{
		scraper:   scraper,
		cfg:       cfg,
		version:   version,
		startedAt: time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /scrape", s.handleScrape)

	s.handler = withRequestID(withAccessLog(withRecovery(mux)))
	return s
}

// Handler returns the root handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves on cfg.Addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run over an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", ln.Addr().String()).Str("version", s.version).Msg("Scrape service listening")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down scrape service")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

type endpointInfo struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Description string `json:"description"`
}

type rootInfo struct {
	Name        string                  `json:"name"`
	Version     string                  `json:"version"`
	Description string                  `json:"description"`
	Endpoints   map[string]endpointInfo `json:"endpoints"`
}

type healthInfo struct {
	Status        string  `json:"status"`
	Timestamp     string  `json:"timestamp"`
	Version       string  `json:"version"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rootInfo{
		Name:        "parscrape",
		Version:     s.version,
		Description: "Fetches web pages with a headless browser and returns their links and visible text",
		Endpoints: map[string]endpointInfo{
			"scrape": {Method: http.MethodPost, Path: "/scrape", Description: "Scrape a URL and return its links and text"},
			"health": {Method: http.MethodGet, Path: "/health", Description: "Service health check"},
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthInfo{
		Status:        "healthy",
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: time.Since(s.startedAt).Seconds(),
	})
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	var req models.ScrapeRequest
	if derr := decodeJSON(w, r, &req); derr != nil {
		writeError(w, derr)
		return
	}

	resp, err := s.scraper.Scrape(r.Context(), req)
	if err != nil {
		serr := fetchError(err, req.TimeoutSeconds())
		if serr.Status >= http.StatusInternalServerError {
			reqctx.Logger(r.Context()).Debug().Err(reqctx.NewRequestError(r.Context(), err)).Msg("Returning server error")
		}
		writeError(w, serr)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
