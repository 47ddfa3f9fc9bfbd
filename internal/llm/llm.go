// Package llm is the narrow text-completion seam used by the insight
// generator, the phase classifier and the call summarizer.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

// ErrEmptyResponse is returned when the model produced no choice.
var ErrEmptyResponse = errors.New("llm: empty response")

// Request is a single-turn completion request.
type Request struct {
	Model       string
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
	// JSON asks the backend for a JSON object answer.
	JSON bool
}

// Completer returns the model's text answer for a request.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// DecodeJSON unmarshals a model answer into v, tolerating markdown code
// fences and leading or trailing prose around the object.
func DecodeJSON(answer string, v any) error {
	s := strings.TrimSpace(answer)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)
	if start, end := strings.Index(s, "{"), strings.LastIndex(s, "}"); start >= 0 && end > start {
		s = s[start : end+1]
	}
	return json.Unmarshal([]byte(s), v)
}
