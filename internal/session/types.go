package session

import "time"

// Config is the optional call setup supplied when a session starts.
type Config struct {
	SalespersonName string `json:"salesperson_name,omitempty"`
	ClientName      string `json:"client_name,omitempty"`
	ClientCompany   string `json:"client_company,omitempty"`
	Product         string `json:"product,omitempty"`
	// MaxContextMessages and MaxInsights override the service defaults when positive.
	MaxContextMessages int `json:"max_context_messages,omitempty"`
	MaxInsights        int `json:"max_insights,omitempty"`
}

// Info is the metadata of a live session.
type Info struct {
	ID             string    `json:"session_id"`
	Config         Config    `json:"config"`
	StartedAt      time.Time `json:"started_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

// CreateResponse is returned when a call session is opened.
type CreateResponse struct {
	SessionID       string    `json:"session_id"`
	StartedAt       time.Time `json:"started_at"`
	InactivityTTLMS int64     `json:"inactivity_ttl_ms"`
}
