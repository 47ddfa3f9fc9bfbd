package voice

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	oai "github.com/openai/openai-go"

	"github.com/ent0n29/callcoach/internal/audio"
	"github.com/ent0n29/callcoach/internal/conversation"
)

// DefaultTranscribeModel is used when no model is configured.
const DefaultTranscribeModel = string(oai.AudioModelWhisper1)

// OpenAITranscriber sends each channel as a WAV upload to the OpenAI
// transcription endpoint.
type OpenAITranscriber struct {
	client   oai.Client
	model    string
	language string
}

// NewOpenAITranscriber wraps client. An empty model uses DefaultTranscribeModel;
// an empty language lets the service detect it.
func NewOpenAITranscriber(client oai.Client, model, language string) *OpenAITranscriber {
	if strings.TrimSpace(model) == "" {
		model = DefaultTranscribeModel
	}
	return &OpenAITranscriber{
		client:   client,
		model:    strings.TrimSpace(model),
		language: strings.TrimSpace(language),
	}
}

// Model returns the configured transcription model.
func (t *OpenAITranscriber) Model() string { return t.model }

// Transcribe implements Transcriber.
func (t *OpenAITranscriber) Transcribe(ctx context.Context, samples []int16, sampleRate int, channel conversation.Speaker) (string, error) {
	if len(samples) == 0 {
		return "", ErrNoAudio
	}
	wav, err := audio.EncodeWAV(samples, sampleRate)
	if err != nil {
		return "", fmt.Errorf("encode %s audio: %w", channel, err)
	}
	params := oai.AudioTranscriptionNewParams{
		File:  oai.File(bytes.NewReader(wav), string(channel)+".wav", "audio/wav"),
		Model: oai.AudioModel(t.model),
	}
	if t.language != "" {
		params.Language = oai.String(t.language)
	}
	res, err := t.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai transcription (%s): %w", t.model, err)
	}
	return strings.TrimSpace(res.Text), nil
}
