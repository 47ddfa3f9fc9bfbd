package httpapi

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/ent0n29/callcoach/internal/coaching"
	"github.com/ent0n29/callcoach/internal/conversation"
	"github.com/ent0n29/callcoach/internal/insight"
	"github.com/ent0n29/callcoach/internal/protocol"
	"github.com/ent0n29/callcoach/internal/reliability"
	"github.com/ent0n29/callcoach/internal/session"
)

const (
	wsReadTimeout  = 120 * time.Second
	wsWriteTimeout = 10 * time.Second
	wsReadLimit    = 4 << 20
)

// handleCallWS streams a live call. Frames are handled one at a time in
// arrival order; a single writer goroutine owns the connection writes.
func (s *Server) handleCallWS(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	if _, err := s.service.GetState(sessionID); err != nil {
		respondServiceError(w, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	outbound := make(chan any, 64)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range outbound {
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(msg); err != nil {
				cancel()
				// Drain so the reader never blocks on a dead connection.
				for range outbound {
				}
				return
			}
			if t, ok := messageTypeOf(msg); ok {
				s.metrics.WSMessage("outbound", string(t))
			}
		}
	}()

	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		return nil
	})

	for ctx.Err() == nil {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		if msgType != websocket.TextMessage {
			continue
		}
		parsed, err := protocol.ParseClientMessage(data)
		if err != nil {
			outbound <- errorEvent(sessionID, "invalid_client_message", err)
			continue
		}
		if t, ok := messageTypeOf(parsed); ok {
			s.metrics.WSMessage("inbound", string(t))
		}
		if done := s.handleFrame(ctx, sessionID, parsed, outbound); done {
			break
		}
	}

	close(outbound)
	<-writerDone
}

// handleFrame processes one client frame and queues the replies. It
// reports true when the connection should close.
func (s *Server) handleFrame(ctx context.Context, sessionID string, msg any, outbound chan<- any) bool {
	switch m := msg.(type) {
	case protocol.AudioChunk:
		salesperson, err := base64.StdEncoding.DecodeString(m.SalespersonBase64)
		if err != nil {
			outbound <- errorEvent(sessionID, "invalid_audio", err)
			return false
		}
		client, err := base64.StdEncoding.DecodeString(m.ClientBase64)
		if err != nil {
			outbound <- errorEvent(sessionID, "invalid_audio", err)
			return false
		}
		res, err := s.service.ProcessChunk(ctx, sessionID, coaching.Chunk{
			Salesperson: salesperson,
			Client:      client,
			SampleRate:  m.SampleRate,
		})
		if err != nil {
			return s.queueServiceError(sessionID, err, outbound)
		}
		if res.Transcript != "" {
			outbound <- protocol.Transcript{Type: protocol.TypeTranscript, SessionID: sessionID, Seq: m.Seq, Text: res.Transcript}
		}
		if res.Outcome == nil {
			outbound <- protocol.Decision{Type: protocol.TypeDecision, SessionID: sessionID, Reason: res.Reason}
			return false
		}
		queueOutcome(sessionID, *res.Outcome, outbound)
	case protocol.Utterance:
		role, err := conversation.ParseSpeaker(m.Role)
		if err != nil {
			outbound <- errorEvent(sessionID, "invalid_role", err)
			return false
		}
		if _, err := s.service.AppendUtterance(ctx, sessionID, role, m.Text); err != nil {
			return s.queueServiceError(sessionID, err, outbound)
		}
		if m.Evaluate {
			return s.evaluateFrame(ctx, sessionID, outbound)
		}
	case protocol.Control:
		switch m.Action {
		case protocol.ActionEvaluate:
			return s.evaluateFrame(ctx, sessionID, outbound)
		case protocol.ActionEnd:
			stats, err := s.service.EndSession(ctx, sessionID)
			if err != nil {
				return s.queueServiceError(sessionID, err, outbound)
			}
			outbound <- protocol.SessionEnded{Type: protocol.TypeSessionEnded, SessionID: sessionID, Stats: stats}
			return true
		}
	}
	return false
}

func (s *Server) evaluateFrame(ctx context.Context, sessionID string, outbound chan<- any) bool {
	out, err := s.service.EvaluateAndMaybeGenerateInsight(ctx, sessionID)
	if err != nil {
		return s.queueServiceError(sessionID, err, outbound)
	}
	queueOutcome(sessionID, out, outbound)
	return false
}

// queueServiceError reports err to the client. An unknown session ends
// the stream.
func (s *Server) queueServiceError(sessionID string, err error, outbound chan<- any) bool {
	if errors.Is(err, session.ErrNotFound) {
		outbound <- errorEvent(sessionID, "session_not_found", err)
		return true
	}
	code := "internal_error"
	if errors.Is(err, coaching.ErrInvalidInput) {
		code = "invalid_input"
	}
	outbound <- errorEvent(sessionID, code, err)
	return false
}

func queueOutcome(sessionID string, out insight.Outcome, outbound chan<- any) {
	d := protocol.Decision{
		Type:        protocol.TypeDecision,
		SessionID:   sessionID,
		Reason:      string(out.Reason),
		Score:       out.Relevance.Score,
		Triggers:    out.Relevance.Triggers,
		ParseStatus: string(out.ParseStatus),
	}
	if out.Duplicate != nil {
		d.Duplicate = string(out.Duplicate.Check)
	}
	outbound <- d
	if out.Accepted && out.Insight != nil {
		outbound <- protocol.Insight{
			Type:        protocol.TypeInsight,
			SessionID:   sessionID,
			Title:       out.Insight.Title,
			InsightType: string(out.Insight.Type),
			Description: out.Insight.Description,
			Text:        out.Insight.Text(),
			Concepts:    out.Concepts,
			Score:       out.Relevance.Score,
		}
	}
}

func errorEvent(sessionID, code string, err error) protocol.ErrorEvent {
	return protocol.ErrorEvent{
		Type:      protocol.TypeError,
		SessionID: sessionID,
		Code:      code,
		Retryable: reliability.IsRetryable(err),
		Detail:    err.Error(),
	}
}

func messageTypeOf(v any) (protocol.MessageType, bool) {
	switch m := v.(type) {
	case protocol.AudioChunk:
		return m.Type, true
	case protocol.Utterance:
		return m.Type, true
	case protocol.Control:
		return m.Type, true
	case protocol.Transcript:
		return m.Type, true
	case protocol.Insight:
		return m.Type, true
	case protocol.Decision:
		return m.Type, true
	case protocol.SessionEnded:
		return m.Type, true
	case protocol.ErrorEvent:
		return m.Type, true
	default:
		return "", false
	}
}
