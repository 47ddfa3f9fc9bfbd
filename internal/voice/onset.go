package voice

import (
	"math"

	"github.com/ent0n29/callcoach/internal/audio"
	"github.com/ent0n29/callcoach/internal/conversation"
)

const (
	DefaultOnsetThreshold      = 500
	DefaultSilenceRMSThreshold = 200.0
	DefaultSilenceMinSamples   = 1600
)

// OnsetDetector returns the second at which speech starts in a channel,
// or +Inf when no speech is found. It only orders the two channels of a
// chunk.
type OnsetDetector interface {
	DetectStart(samples []int16, sampleRate int, channel conversation.Speaker) float64
}

// AmplitudeOnset reports the first sample whose magnitude exceeds Threshold.
type AmplitudeOnset struct {
	Threshold int
}

// DetectStart implements OnsetDetector.
func (d AmplitudeOnset) DetectStart(samples []int16, sampleRate int, _ conversation.Speaker) float64 {
	threshold := d.Threshold
	if threshold <= 0 {
		threshold = DefaultOnsetThreshold
	}
	if sampleRate <= 0 {
		sampleRate = audio.DefaultSampleRate
	}
	for i, s := range samples {
		v := int(s)
		if v < 0 {
			v = -v
		}
		if v > threshold {
			return float64(i) / float64(sampleRate)
		}
	}
	return math.Inf(1)
}

// SilenceGate decides whether a channel is worth sending to the transcriber.
type SilenceGate struct {
	RMSThreshold  float64
	PeakThreshold int
	MinSamples    int
}

// DefaultSilenceGate returns the production thresholds.
func DefaultSilenceGate() SilenceGate {
	return SilenceGate{
		RMSThreshold:  DefaultSilenceRMSThreshold,
		PeakThreshold: DefaultOnsetThreshold,
		MinSamples:    DefaultSilenceMinSamples,
	}
}

// IsSilent reports a chunk that is too short, or whose RMS and peak are
// both under their thresholds.
func (g SilenceGate) IsSilent(samples []int16) bool {
	if len(samples) == 0 || len(samples) < g.MinSamples {
		return true
	}
	return audio.RMS(samples) < g.RMSThreshold && audio.Peak(samples) < g.PeakThreshold
}
