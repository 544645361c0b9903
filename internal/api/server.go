// Package api exposes the HTTP interface for the news ingest service.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/coinpulse/btcnews/internal/config"
	"github.com/coinpulse/btcnews/internal/metrics"
	"github.com/coinpulse/btcnews/internal/news"
	"github.com/coinpulse/btcnews/internal/store"
)

// Version is reported by the status endpoint.
const Version = "3.0.0"

// Runner executes one crawl run on demand.
type Runner interface {
	Run(ctx context.Context) news.RunSummary
}

// Server wires HTTP handlers to the store and the crawl engine.
type Server struct {
	router chi.Router
	store  *store.Adapter
	runner Runner
	clock  news.Clock
	cfg    config.Config
	logger *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(st *store.Adapter, runner Runner, clock news.Clock, cfg config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		store:  st,
		runner: runner,
		clock:  clock,
		cfg:    cfg,
		logger: logger,
	}

	r := chi.NewRouter()
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(timeoutMiddleware(2 * time.Minute))

	r.Get("/", s.index)
	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(corsMiddleware)
		if cfg.Auth.Enabled {
			r.Use(apiKeyMiddleware(cfg.Auth.APIKey))
		}
		r.Get("/news", s.news)
		r.Get("/refresh", s.refresh)
		r.Post("/refresh", s.refresh)
		r.Get("/status", s.status)
		r.Get("/reset", s.reset)
		r.Post("/reset", s.reset)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("Not Found"))
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	// The store is the only downstream; one cheap read proves it answers.
	s.store.LastProcessedID(r.Context())
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	records := s.store.Archive(r.Context())
	s.renderPage(w, records)
}

func (s *Server) news(w http.ResponseWriter, r *http.Request) {
	records := s.store.Archive(r.Context())
	s.writeJSON(w, http.StatusOK, records)
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	summary := s.runner.Run(r.Context())
	s.writeJSON(w, http.StatusOK, summary)
}

type statusResponse struct {
	TotalNews         int                `json:"totalNews"`
	LastProcessedID   int                `json:"lastProcessedId"`
	LastUpdate        string             `json:"lastUpdate"`
	ServerTime        string             `json:"serverTime"`
	LastCronExecution *news.ExecutionLog `json:"lastCronExecution"`
	CronStatus        string             `json:"cronStatus"`
	Version           string             `json:"version"`
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	records := s.store.Archive(ctx)
	entry := s.store.ExecutionLog(ctx)

	resp := statusResponse{
		TotalNews:         len(records),
		LastProcessedID:   s.store.LastProcessedID(ctx),
		LastUpdate:        "暂无数据",
		ServerTime:        news.FormatTime(s.clock.Now()),
		LastCronExecution: entry,
		CronStatus:        cronStatus(entry),
		Version:           Version,
	}
	if len(records) > 0 {
		resp.LastUpdate = records[0].ScrapedAt
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func cronStatus(entry *news.ExecutionLog) string {
	switch {
	case entry == nil:
		return "未知"
	case entry.Success:
		return "正常"
	default:
		return "异常"
	}
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := s.cfg.Crawl.DefaultCursor
	if raw := r.URL.Query().Get("id"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid id")
			return
		}
		id = parsed
	}

	s.store.SaveLastProcessedID(ctx, id)
	s.store.DeleteArchive(ctx)
	s.logger.Info("system reset", zap.Int("cursor", id))

	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   fmt.Sprintf("系统已重置，新起始ID: %d", id),
		"timestamp": news.FormatTime(s.clock.Now()),
	})
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		s.logger.Info("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		metrics.ObserveHTTPRequest(r.Method, r.URL.Path, ww.status, time.Since(start))
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", zap.Any("cause", rec))
				s.writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		next.ServeHTTP(w, r)
	})
}

func apiKeyMiddleware(expected string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				key = r.URL.Query().Get("api_key")
			}
			if key != expected {
				http.Error(w, "unauthorized", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type requestIDKey struct{}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write JSON failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
