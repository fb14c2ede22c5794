package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"arbdash/internal/core"
)

// SyncRequested asks a worker to ingest one month of the configured sheet.
type SyncRequested struct {
	Year      int       `json:"year"`
	Month     int       `json:"month"`
	Timestamp time.Time `json:"timestamp"`
}

// NewSyncRequested creates a request for period.
func NewSyncRequested(p core.Period) *SyncRequested {
	return &SyncRequested{
		Year:      p.Year,
		Month:     int(p.Month),
		Timestamp: time.Now(),
	}
}

// Period returns the requested month, validated.
func (m *SyncRequested) Period() (core.Period, error) {
	p := core.Period{Year: m.Year, Month: time.Month(m.Month)}
	if err := p.Validate(); err != nil {
		return core.Period{}, fmt.Errorf("sync request %d-%d: %w", m.Year, m.Month, err)
	}
	return p, nil
}

// ToJSON converts the message to JSON bytes
func (m *SyncRequested) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SyncRequestedFromJSON creates a message from JSON bytes
func SyncRequestedFromJSON(data []byte) (*SyncRequested, error) {
	var msg SyncRequested
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// SyncCompleted is published after every sync that was applied.
type SyncCompleted struct {
	Period   string    `json:"period"`
	Success  bool      `json:"success"`
	Records  int       `json:"records"`
	Skipped  int       `json:"skipped"`
	Error    string    `json:"error,omitempty"`
	Kind     string    `json:"kind,omitempty"`
	SyncedAt time.Time `json:"synced_at"`
}

func (m *SyncCompleted) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SyncCompletedFromJSON(data []byte) (*SyncCompleted, error) {
	var msg SyncCompleted
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
