package webhook

import (
	"context"

	"github.com/mattjoyce/switchboard/internal/delivery"
	"github.com/mattjoyce/switchboard/internal/twiml"
)

//go:generate mockgen -destination=mocks/mock_recorder.go -package=mocks github.com/mattjoyce/switchboard/internal/webhook DeliveryRecorder

// DeliveryRecorder stores authenticated webhook deliveries.
type DeliveryRecorder interface {
	Record(ctx context.Context, req delivery.RecordRequest) (string, error)
}

// Config holds webhook server configuration.
type Config struct {
	Listen string
	// PublicBaseURL overrides the scheme and host used to rebuild the signed
	// URL, for deployments behind a proxy that rewrites Host.
	PublicBaseURL string
	Endpoints     []EndpointConfig
}

// EndpointConfig defines a single webhook endpoint.
type EndpointConfig struct {
	// Path is the URL path for this webhook (e.g., "/voice")
	Path string

	// Name labels deliveries and log lines; defaults to Path.
	Name string

	// Document is the markup returned to every authenticated request.
	// Nil answers with an empty Response.
	Document *twiml.Element

	// MaxBodySize is the maximum allowed request body size in bytes (default: 1MB)
	MaxBodySize int64
}

// ErrorResponse is the JSON response for webhook errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// DefaultMaxBodySize applies to endpoints configured without a limit.
const DefaultMaxBodySize = 1048576 // 1 MB
