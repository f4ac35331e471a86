// Package api provides the HTTP ingest service: an upload batch in, a run
// report out. File storage and dashboards live elsewhere; this surface only
// fronts the pipeline.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"salesmerge/internal/intake"
	"salesmerge/internal/parser"
	"salesmerge/internal/pipeline"
	"salesmerge/pkg/canonical"
	"salesmerge/pkg/platform"
)

// Server is the HTTP ingest server.
type Server struct {
	httpServer *http.Server
	runner     *pipeline.Runner
	config     *Config
	logger     *slog.Logger
}

// Config holds server configuration.
type Config struct {
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxRequestSize int64
}

// DefaultConfig returns default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Port:           8080,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   120 * time.Second,
		MaxRequestSize: 32 * 1024 * 1024, // 32MB: a month of exports fits comfortably
	}
}

// NewServer creates the ingest server around a wired pipeline runner.
func NewServer(runner *pipeline.Runner, config *Config, logger *slog.Logger) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{runner: runner, config: config, logger: logger}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.config.WriteTimeout))

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/ingest", platform.APIKeyMiddleware(s.handleIngest))
	})

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      r,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("ingest server starting", "port", s.config.Port)
	return s.httpServer.ListenAndServe()
}

// StartWithGracefulShutdown starts the server and drains on SIGINT/SIGTERM.
func (s *Server) StartWithGracefulShutdown() error {
	errChan := make(chan error, 1)
	go func() {
		if err := s.Start(); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case <-quit:
		s.logger.Info("shutting down ingest server")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(ctx)
	}
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"remote", r.RemoteAddr,
			"request_id", middleware.GetReqID(r.Context()),
			"duration", time.Since(start))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// handleReady reports whether the pipeline's backing store is reachable, so
// orchestrators can hold traffic until the merge baseline loads.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.runner.Store.Load(r.Context()); err != nil {
		s.jsonError(w, http.StatusServiceUnavailable, fmt.Sprintf("store not ready: %v", err))
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ready"})
}

// =============================================================================
// INGEST ENDPOINT
// =============================================================================

// IngestRequest is one upload batch. Spreadsheet inputs arrive as extracted
// sheets (the upload layer owns workbook extraction); feed inputs as raw
// JSON pages.
type IngestRequest struct {
	Inputs []IngestInput `json:"inputs"`
}

// IngestInput mirrors parser.RawInput on the wire.
type IngestInput struct {
	Channel string `json:"channel"`
	Name    string `json:"name"`
	Sheets  []struct {
		Name string     `json:"name"`
		Rows [][]string `json:"rows"`
	} `json:"sheets,omitempty"`
	Pages []json.RawMessage `json:"pages,omitempty"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxRequestSize)
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, http.StatusBadRequest, fmt.Sprintf("bad request body: %v", err))
		return
	}
	if len(req.Inputs) == 0 {
		s.jsonError(w, http.StatusBadRequest, "no inputs in batch")
		return
	}

	inputs, err := s.toRawInputs(req)
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := s.runner.Run(r.Context(), inputs)
	if err != nil {
		s.logger.Error("run failed", "error", err)
		s.jsonError(w, http.StatusInternalServerError, fmt.Sprintf("run failed: %v", err))
		return
	}

	s.jsonResponse(w, http.StatusOK, report)
}

func (s *Server) toRawInputs(req IngestRequest) ([]parser.RawInput, error) {
	now := time.Now().UTC()
	inputs := make([]parser.RawInput, 0, len(req.Inputs))
	for _, in := range req.Inputs {
		channel := canonical.Channel(in.Channel)

		// Fingerprint the content exactly as received.
		content, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", in.Name, err)
		}

		raw := parser.RawInput{
			Channel:     channel,
			Name:        in.Name,
			Fingerprint: intake.Fingerprint(content),
			ReceivedAt:  now,
		}
		for _, sh := range in.Sheets {
			raw.Sheets = append(raw.Sheets, parser.Sheet{Name: sh.Name, Rows: sh.Rows})
		}
		for _, p := range in.Pages {
			raw.Pages = append(raw.Pages, []byte(p))
		}
		inputs = append(inputs, raw)
	}
	return inputs, nil
}

func (s *Server) jsonResponse(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

func (s *Server) jsonError(w http.ResponseWriter, code int, msg string) {
	s.jsonResponse(w, code, map[string]string{"error": msg})
}
