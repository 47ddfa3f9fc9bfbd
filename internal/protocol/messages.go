// Package protocol defines the WebSocket envelopes exchanged on a live call.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MessageType identifies websocket payload variants.
type MessageType string

const (
	TypeAudioChunk MessageType = "audio_chunk"
	TypeUtterance  MessageType = "utterance"
	TypeControl    MessageType = "control"

	TypeTranscript   MessageType = "transcript"
	TypeInsight      MessageType = "insight"
	TypeDecision     MessageType = "decision"
	TypeSessionEnded MessageType = "session_ended"
	TypeError        MessageType = "error"
)

// Control actions.
const (
	ActionEnd      = "end"
	ActionEvaluate = "evaluate"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

// AudioChunk carries one stereo slice, base64 PCM16LE per channel.
type AudioChunk struct {
	Type              MessageType `json:"type"`
	Seq               int         `json:"seq"`
	SalespersonBase64 string      `json:"salesperson_pcm16_base64"`
	ClientBase64      string      `json:"client_pcm16_base64"`
	SampleRate        int         `json:"sample_rate,omitempty"`
}

// Utterance appends already transcribed text. Evaluate runs an admission
// cycle right after the append.
type Utterance struct {
	Type     MessageType `json:"type"`
	Role     string      `json:"role"`
	Text     string      `json:"text"`
	Evaluate bool        `json:"evaluate,omitempty"`
}

type Control struct {
	Type   MessageType `json:"type"`
	Action string      `json:"action"`
}

type Transcript struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Seq       int         `json:"seq"`
	Text      string      `json:"text"`
}

type Insight struct {
	Type        MessageType `json:"type"`
	SessionID   string      `json:"session_id"`
	Title       string      `json:"title"`
	InsightType string      `json:"insight_type"`
	Description string      `json:"description"`
	Text        string      `json:"text"`
	Concepts    []string    `json:"concepts"`
	Score       int         `json:"score"`
}

// Decision reports every evaluation cycle, accepted or not.
type Decision struct {
	Type        MessageType `json:"type"`
	SessionID   string      `json:"session_id"`
	Reason      string      `json:"reason"`
	Score       int         `json:"score"`
	Triggers    []string    `json:"triggers,omitempty"`
	ParseStatus string      `json:"parse_status,omitempty"`
	Duplicate   string      `json:"duplicate_check,omitempty"`
}

type SessionEnded struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Stats     any         `json:"stats"`
}

type ErrorEvent struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Code      string      `json:"code"`
	Retryable bool        `json:"retryable"`
	Detail    string      `json:"detail"`
}

// ParseClientMessage decodes and validates one inbound frame.
func ParseClientMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeAudioChunk:
		var msg AudioChunk
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.SalespersonBase64 == "" || msg.ClientBase64 == "" || msg.SampleRate < 0 {
			return nil, errors.New("invalid audio_chunk")
		}
		return msg, nil
	case TypeUtterance:
		var msg Utterance
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.Role == "" || msg.Text == "" {
			return nil, errors.New("invalid utterance")
		}
		return msg, nil
	case TypeControl:
		var msg Control
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.Action != ActionEnd && msg.Action != ActionEvaluate {
			return nil, fmt.Errorf("invalid control action %q", msg.Action)
		}
		return msg, nil
	default:
		return nil, ErrUnsupportedType
	}
}
