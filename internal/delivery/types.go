package delivery

import (
	"errors"
	"time"
)

// ErrNotFound is returned by Get for an unknown delivery id.
var ErrNotFound = errors.New("delivery not found")

// Delivery is one authenticated webhook request as received by an endpoint.
type Delivery struct {
	ID         string            `json:"id"`
	Endpoint   string            `json:"endpoint"`
	CallSID    string            `json:"call_sid,omitempty"`
	MessageSID string            `json:"message_sid,omitempty"`
	Status     string            `json:"status,omitempty"`
	From       string            `json:"from,omitempty"`
	To         string            `json:"to,omitempty"`
	Params     map[string]string `json:"params"`
	DedupeKey  string            `json:"dedupe_key"`
	Duplicate  bool              `json:"duplicate"`
	ReceivedAt time.Time         `json:"received_at"`
}

// RecordRequest describes a request to log. URL is the externally visible
// URL the provider signed.
type RecordRequest struct {
	Endpoint string
	URL      string
	Params   map[string]string
}

// Filter narrows List. Zero fields match everything.
type Filter struct {
	Endpoint string
	CallSID  string
	Since    time.Time
	// Limit caps the number of rows; 0 means DefaultListLimit.
	Limit int
}

// DefaultListLimit applies when Filter.Limit is zero.
const DefaultListLimit = 50
