package voice

import (
	"math"
	"testing"

	"github.com/ent0n29/callcoach/internal/conversation"
)

func TestAmplitudeOnset(t *testing.T) {
	d := AmplitudeOnset{Threshold: 500}
	samples := make([]int16, 320)
	samples[160] = 500
	samples[200] = -600
	if got := d.DetectStart(samples, 16000, conversation.SpeakerClient); got != 200.0/16000 {
		t.Fatalf("DetectStart() = %v, want %v", got, 200.0/16000)
	}
	if got := d.DetectStart(make([]int16, 100), 16000, conversation.SpeakerClient); !math.IsInf(got, 1) {
		t.Fatalf("DetectStart(silence) = %v, want +Inf", got)
	}
	if got := d.DetectStart(nil, 0, conversation.SpeakerSalesperson); !math.IsInf(got, 1) {
		t.Fatalf("DetectStart(nil) = %v, want +Inf", got)
	}
}

func TestSilenceGate(t *testing.T) {
	g := DefaultSilenceGate()

	spike := make([]int16, 1600)
	spike[800] = 1000
	loud := make([]int16, 1600)
	for i := range loud {
		loud[i] = 300
	}

	cases := []struct {
		name    string
		samples []int16
		want    bool
	}{
		{"empty", nil, true},
		{"too short", make([]int16, 100), true},
		{"all zero", make([]int16, 1600), true},
		{"single spike", spike, false},
		{"steady level", loud, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := g.IsSilent(tc.samples); got != tc.want {
				t.Fatalf("IsSilent() = %v, want %v", got, tc.want)
			}
		})
	}
}
