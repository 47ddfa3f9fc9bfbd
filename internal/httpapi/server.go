package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/ent0n29/callcoach/internal/archive"
	"github.com/ent0n29/callcoach/internal/coaching"
	"github.com/ent0n29/callcoach/internal/config"
	"github.com/ent0n29/callcoach/internal/observability"
	"github.com/ent0n29/callcoach/internal/session"
)

// Status describes the resolved backends reported by the health endpoints.
type Status struct {
	ProviderMode   string
	ArchiveBackend string
}

type Server struct {
	cfg      config.Config
	service  *coaching.Service
	metrics  *observability.Metrics
	status   Status
	upgrader websocket.Upgrader
}

func New(cfg config.Config, service *coaching.Service, metrics *observability.Metrics, status Status) *Server {
	return &Server{
		cfg:     cfg,
		service: service,
		metrics: metrics,
		status:  status,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only same-origin browsers may stream a call unless configured otherwise.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})
	r.Get("/v1/perf/pipeline", s.handlePerfPipeline)

	r.Route("/v1/calls", func(r chi.Router) {
		r.Post("/", s.handleStartCall)
		r.Route("/{id}", func(r chi.Router) {
			r.Post("/end", s.handleEndCall)
			r.Get("/state", s.handleGetState)
			r.Get("/insights", s.handleInsightHistory)
			r.Post("/utterances", s.handleAppendUtterance)
			r.Post("/evaluate", s.handleEvaluate)
			r.Post("/audio", s.handleAudio)
			r.Post("/summary", s.handleSummary)
			r.Get("/ws", s.handleCallWS)
		})
	})

	r.Route("/v1/archive/calls", func(r chi.Router) {
		r.Get("/", s.handleListArchived)
		r.Get("/{id}", s.handleGetArchived)
		r.Post("/{id}/summary", s.handleArchivedSummary)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"active_sessions": s.service.ActiveSessions(),
		"provider_mode":   s.status.ProviderMode,
		"archive_backend": s.status.ArchiveBackend,
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":          "ready",
		"provider_mode":   s.status.ProviderMode,
		"archive_backend": s.status.ArchiveBackend,
	})
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}

// respondServiceError maps service sentinels to HTTP statuses.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
	case errors.Is(err, archive.ErrNotFound):
		respondError(w, http.StatusNotFound, "call_not_found", err.Error())
	case errors.Is(err, coaching.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, "invalid_input", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
