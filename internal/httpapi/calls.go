package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ent0n29/callcoach/internal/coaching"
	"github.com/ent0n29/callcoach/internal/conversation"
	"github.com/ent0n29/callcoach/internal/session"
	"github.com/ent0n29/callcoach/internal/summary"
)

const maxAudioUpload = 32 << 20

func (s *Server) handleStartCall(w http.ResponseWriter, r *http.Request) {
	var cfg session.Config
	if err := decodeJSON(r, &cfg); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	resp, err := s.service.StartSession(cfg)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleEndCall(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.EndSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	snap, err := s.service.GetState(chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

func (s *Server) handleInsightHistory(w http.ResponseWriter, r *http.Request) {
	h, err := s.service.GetInsightHistory(chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h)
}

type appendUtteranceRequest struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

func (s *Server) handleAppendUtterance(w http.ResponseWriter, r *http.Request) {
	var req appendUtteranceRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	role, err := conversation.ParseSpeaker(req.Role)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_role", err.Error())
		return
	}
	msg, err := s.service.AppendUtterance(r.Context(), chi.URLParam(r, "id"), role, req.Text)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, msg)
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	out, err := s.service.EvaluateAndMaybeGenerateInsight(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

// handleAudio accepts a multipart form with one raw PCM16LE file per
// channel. commercial_audio is accepted as an alias of salesperson_audio.
func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxAudioUpload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	salesperson, err := formFile(r, "salesperson_audio", "commercial_audio")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	client, err := formFile(r, "client_audio")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	rate := 0
	if raw := strings.TrimSpace(r.FormValue("sample_rate")); raw != "" {
		rate, err = strconv.Atoi(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_request", "sample_rate must be an integer")
			return
		}
	}

	res, err := s.service.ProcessChunk(r.Context(), chi.URLParam(r, "id"), coaching.Chunk{
		Salesperson: salesperson,
		Client:      client,
		SampleRate:  rate,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// formFile reads the first present field among names. A missing field
// yields nil so the service reports the missing channel.
func formFile(r *http.Request, names ...string) ([]byte, error) {
	for _, name := range names {
		f, _, err := r.FormFile(name)
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return data, nil
	}
	return nil, nil
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	focus, err := summary.ParseFocus(r.URL.Query().Get("focus"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_focus", err.Error())
		return
	}
	res, err := s.service.Summarize(r.Context(), chi.URLParam(r, "id"), focus)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}
