package coaching

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ent0n29/callcoach/internal/audio"
	"github.com/ent0n29/callcoach/internal/conversation"
	"github.com/ent0n29/callcoach/internal/insight"
	"github.com/ent0n29/callcoach/internal/observability"
	"github.com/ent0n29/callcoach/internal/voice"
)

// ReasonNoSpeech is reported when neither channel produced usable text.
const ReasonNoSpeech = "no_speech"

// Chunk is one stereo slice of a call: raw PCM16LE per channel.
type Chunk struct {
	Salesperson []byte
	Client      []byte
	SampleRate  int
}

// ChunkResult is returned for every processed chunk. Outcome is nil when
// the chunk carried no speech.
type ChunkResult struct {
	Transcript string                 `json:"transcript"`
	Utterances []conversation.Message `json:"utterances"`
	Reason     string                 `json:"reason"`
	Outcome    *insight.Outcome       `json:"outcome,omitempty"`
}

type track struct {
	speaker conversation.Speaker
	samples []int16
	onset   float64
	silent  bool
	raw     string
	text    string
}

// ProcessChunk transcribes both channels concurrently, appends the
// resulting utterances in speaking order and runs one admission cycle.
func (s *Service) ProcessChunk(ctx context.Context, sessionID string, chunk Chunk) (ChunkResult, error) {
	if len(chunk.Salesperson) == 0 || len(chunk.Client) == 0 {
		return ChunkResult{}, fmt.Errorf("%w: both salesperson and client audio are required", ErrInvalidInput)
	}
	if chunk.SampleRate < 0 {
		return ChunkResult{}, fmt.Errorf("%w: negative sample rate", ErrInvalidInput)
	}
	rate := chunk.SampleRate
	if rate == 0 {
		rate = s.sampleRate
	}
	salesperson, err := audio.DecodePCM16LE(chunk.Salesperson)
	if err != nil {
		return ChunkResult{}, fmt.Errorf("%w: salesperson audio: %w", ErrInvalidInput, err)
	}
	client, err := audio.DecodePCM16LE(chunk.Client)
	if err != nil {
		return ChunkResult{}, fmt.Errorf("%w: client audio: %w", ErrInvalidInput, err)
	}

	var res ChunkResult
	err = s.sessions.With(sessionID, func(state *conversation.State) error {
		started := time.Now()
		tracks := []*track{
			{speaker: conversation.SpeakerSalesperson, samples: salesperson},
			{speaker: conversation.SpeakerClient, samples: client},
		}
		s.transcribeAll(ctx, sessionID, tracks, rate)

		// Equal or missing onsets keep the salesperson first.
		slices.SortStableFunc(tracks, func(a, b *track) int { return cmp.Compare(a.onset, b.onset) })

		lines := make([]string, 0, len(tracks))
		for _, t := range tracks {
			if t.text == "" {
				continue
			}
			msg, err := s.append(ctx, sessionID, state, t.speaker, t.text)
			if err != nil {
				continue
			}
			res.Utterances = append(res.Utterances, msg)
			lines = append(lines, msg.Line())
		}
		res.Transcript = strings.Join(lines, "\n")

		if len(res.Utterances) == 0 {
			res.Reason = ReasonNoSpeech
			state.RecordDecision(ReasonNoSpeech)
			s.metrics.Indicate(ReasonNoSpeech)
		} else {
			out := s.evaluate(ctx, sessionID, state, res.Transcript)
			res.Outcome = &out
			res.Reason = string(out.Reason)
		}
		s.metrics.ObserveDuration(observability.StageChunkTotal, time.Since(started))
		return nil
	})
	return res, err
}

// transcribeAll fills onset and text for every track. Transcriber errors
// are logged and leave the track empty; the group never fails.
func (s *Service) transcribeAll(ctx context.Context, sessionID string, tracks []*track, rate int) {
	g, gctx := errgroup.WithContext(ctx)
	for _, t := range tracks {
		t.onset = s.onsets.DetectStart(t.samples, rate, t.speaker)
		if s.silence.IsSilent(t.samples) {
			t.silent = true
			continue
		}
		g.Go(func() error {
			started := time.Now()
			raw, err := s.transcriber.Transcribe(gctx, t.samples, rate, t.speaker)
			s.metrics.ObserveDuration(observability.StageTranscription, time.Since(started))
			if err != nil {
				s.metrics.CollaboratorFailed("transcriber")
				s.logger.Warn("transcription failed", "session_id", sessionID, "channel", t.speaker, "error", err)
				return nil
			}
			t.raw = raw
			return nil
		})
	}
	_ = g.Wait()

	for _, t := range tracks {
		if t.silent || t.raw == "" {
			continue
		}
		text, rejection := s.cleaner.Clean(t.raw)
		if rejection != voice.RejectNone {
			s.logger.Debug("transcript dropped", "session_id", sessionID, "channel", t.speaker, "rejection", rejection, "raw", t.raw)
			continue
		}
		t.text = text
	}
}
