// Package httpapi serves layout computation and panel previews over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/1broseidon/duoview/internal/capture"
	"github.com/1broseidon/duoview/internal/compose"
	"github.com/1broseidon/duoview/internal/config"
	"github.com/1broseidon/duoview/internal/layout"
	"github.com/1broseidon/duoview/internal/logging"
)

// maxDimension bounds the window size a request may ask for.
const maxDimension = 8192

// Server is the HTTP layout API.
type Server struct {
	registry *capture.Registry
	logger   *log.Logger
	router   chi.Router

	mu  sync.RWMutex
	cfg *config.Config
}

func New(cfg *config.Config, registry *capture.Registry, logger *log.Logger) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	if registry == nil {
		registry = capture.DefaultRegistry(logger)
	}
	s := &Server{
		registry: registry,
		logger:   logger,
		cfg:      cfg,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/modes", s.handleModes)
		r.Get("/layout", s.handleLayout)
		r.Get("/preview.png", s.handlePreview)
	})
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// UpdateConfig replaces the config used for request defaults.
func (s *Server) UpdateConfig(cfg *config.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
}

func (s *Server) config() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP API listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start).Round(time.Microsecond),
				"request_id", middleware.GetReqID(r.Context()),
				"remote", r.RemoteAddr,
			)
		}()
		next.ServeHTTP(ww, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

type modesResponse struct {
	Modes   []layout.Kind `json:"modes"`
	Presets []string      `json:"presets"`
	Default layout.Kind   `json:"default"`
}

func (s *Server) handleModes(w http.ResponseWriter, r *http.Request) {
	cfg := s.config()
	writeJSON(w, http.StatusOK, modesResponse{
		Modes:   layout.Kinds(),
		Presets: cfg.PresetNames(),
		Default: cfg.DefaultMode,
	})
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	l, err := s.computeFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	l, err := s.computeFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	cfg := s.config()
	q := r.URL.Query()
	sources := compose.ConfigSources(cfg)
	for panel, src := range sources {
		if v := q.Get(string(panel)); v != "" {
			src.Provider = v
			sources[panel] = src
		}
	}

	img, err := compose.Preview(r.Context(), s.registry, l, sources)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := compose.WritePNG(w, img); err != nil {
		s.logger.Warn("failed to write preview", "err", err)
	}
}

// computeFromQuery reads width, height, mode, swapped and scale. Missing
// optional values take the configured defaults.
func (s *Server) computeFromQuery(r *http.Request) (layout.Layout, error) {
	cfg := s.config()
	q := r.URL.Query()

	width, err := positiveInt(q.Get("width"), "width")
	if err != nil {
		return layout.Layout{}, err
	}
	height, err := positiveInt(q.Get("height"), "height")
	if err != nil {
		return layout.Layout{}, err
	}

	sel := config.Selection{Mode: cfg.DefaultMode, Swapped: cfg.Swapped, Scale: cfg.LargeScreenScale}
	if name := q.Get("mode"); name != "" {
		if sel, err = cfg.Resolve(name, sel.Swapped); err != nil {
			return layout.Layout{}, err
		}
	}
	if v := q.Get("swapped"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return layout.Layout{}, fmt.Errorf("swapped: %q is not a boolean", v)
		}
		sel.Swapped = b
	}
	if v := q.Get("scale"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return layout.Layout{}, fmt.Errorf("scale: %q is not a number", v)
		}
		if err := config.ValidateScale(f); err != nil {
			return layout.Layout{}, err
		}
		sel.Scale = f
	}

	mode, err := layout.ModeFor(sel.Mode, cfg.ModeParams(sel.Scale))
	if err != nil {
		return layout.Layout{}, err
	}
	return layout.Compute(width, height, mode, sel.Swapped), nil
}

func positiveInt(v, name string) (int, error) {
	if v == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not an integer", name, v)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", name, n)
	}
	if n > maxDimension {
		return 0, fmt.Errorf("%s must be at most %d, got %d", name, maxDimension, n)
	}
	return n, nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
