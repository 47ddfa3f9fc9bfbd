package conversation

import (
	"fmt"
	"strings"
	"time"
)

// Speaker identifies the audio channel a message came from.
type Speaker string

const (
	SpeakerSalesperson Speaker = "salesperson"
	SpeakerClient      Speaker = "client"
)

// Label is the uppercase prefix used in transcripts and prompts.
func (s Speaker) Label() string {
	if s == SpeakerClient {
		return "CLIENT"
	}
	return "COMMERCIAL"
}

// ParseSpeaker accepts the canonical role names plus the legacy aliases
// emitted by older clients ("commercial"/"user", "assistant").
func ParseSpeaker(raw string) (Speaker, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "salesperson", "commercial", "user", "seller":
		return SpeakerSalesperson, nil
	case "client", "assistant", "customer", "prospect":
		return SpeakerClient, nil
	default:
		return "", fmt.Errorf("unknown speaker %q", raw)
	}
}

// Message is one transcribed utterance. Messages are never mutated after append.
type Message struct {
	Role    Speaker   `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// Line renders the message as "LABEL: content".
func (m Message) Line() string {
	return m.Role.Label() + ": " + m.Content
}

// Phase is the sales-call stage.
type Phase string

const (
	PhaseIntroduction Phase = "introduction"
	PhaseDiscovery    Phase = "discovery"
	PhasePresentation Phase = "presentation"
	PhaseNegotiation  Phase = "negotiation"
	PhaseClosing      Phase = "closing"
)

// Phases lists every phase in call order.
var Phases = []Phase{PhaseIntroduction, PhaseDiscovery, PhasePresentation, PhaseNegotiation, PhaseClosing}

// ParsePhase maps free text to a Phase.
func ParsePhase(raw string) (Phase, bool) {
	p := Phase(strings.ToLower(strings.Trim(strings.TrimSpace(raw), ".:!\"'")))
	for _, known := range Phases {
		if p == known {
			return p, true
		}
	}
	return "", false
}

// Label returns the human label shown to salespeople.
func (p Phase) Label() string {
	switch p {
	case PhaseIntroduction:
		return "Introduction / Prise de contact"
	case PhaseDiscovery:
		return "Découverte des besoins"
	case PhasePresentation:
		return "Présentation de la solution"
	case PhaseNegotiation:
		return "Négociation / Discussion budget"
	case PhaseClosing:
		return "Closing / Prochaines étapes"
	default:
		return string(p)
	}
}

// PillarStatus tracks coverage of one discovery pillar.
type PillarStatus string

const (
	PillarNotStarted PillarStatus = "not_started"
	PillarInProgress PillarStatus = "in_progress"
	PillarCompleted  PillarStatus = "completed"
)

func (s PillarStatus) rank() int {
	switch s {
	case PillarInProgress:
		return 1
	case PillarCompleted:
		return 2
	default:
		return 0
	}
}

// Pillar is one discovery checkpoint.
type Pillar struct {
	ID     int          `json:"id"`
	Name   string       `json:"name"`
	Status PillarStatus `json:"status"`
}

var pillarNames = map[int]string{
	1: "Comprendre le contexte",
	2: "Identifier le problème",
	3: "Mesurer l'impact",
	4: "Valider le décisionnel",
	5: "Next Step",
}

// InsightType is the category of a coaching insight.
type InsightType string

const (
	InsightAlert       InsightType = "alert"
	InsightOpportunity InsightType = "opportunity"
	InsightProgression InsightType = "progression"
)

// InsightRecord is one accepted insight held in the anti-duplicate memory.
type InsightRecord struct {
	Title       string      `json:"title"`
	Type        InsightType `json:"type"`
	Description string      `json:"description"`
	Text        string      `json:"text"`
	Concepts    []string    `json:"concepts"`
	At          time.Time   `json:"at"`
}
