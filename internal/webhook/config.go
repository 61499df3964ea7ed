package webhook

import (
	"fmt"

	"github.com/mattjoyce/switchboard/internal/config"
	"github.com/mattjoyce/switchboard/internal/twiml"
)

// FromGlobalConfig converts config.WebhooksConfig to webhook.Config.
// Literal responses are parsed and plans compiled here, so a document that
// breaks the nesting rules fails at startup rather than per request.
func FromGlobalConfig(wc *config.WebhooksConfig) (Config, error) {
	if wc == nil {
		return Config{}, fmt.Errorf("webhooks config is nil")
	}

	cfg := Config{
		Listen:        wc.Listen,
		PublicBaseURL: wc.PublicBaseURL,
		Endpoints:     make([]EndpointConfig, len(wc.Endpoints)),
	}

	for i, ep := range wc.Endpoints {
		maxBodySize, err := config.ParseSize(ep.MaxBodySize)
		if err != nil {
			return Config{}, fmt.Errorf("webhook endpoint %q: invalid max_body_size %q: %w", ep.Path, ep.MaxBodySize, err)
		}

		doc, err := endpointDocument(ep)
		if err != nil {
			return Config{}, fmt.Errorf("webhook endpoint %q: %w", ep.Path, err)
		}

		name := ep.Name
		if name == "" {
			name = ep.Path
		}

		cfg.Endpoints[i] = EndpointConfig{
			Path:        ep.Path,
			Name:        name,
			Document:    doc,
			MaxBodySize: maxBodySize,
		}
	}

	return cfg, nil
}

func endpointDocument(ep config.WebhookEndpoint) (*twiml.Element, error) {
	switch {
	case ep.Response != "":
		doc, err := twiml.Parse(ep.Response)
		if err != nil {
			return nil, fmt.Errorf("response: %w", err)
		}
		if doc.Kind() != twiml.KindResponse {
			return nil, fmt.Errorf("response: root must be Response, got %s", doc.Kind())
		}
		return doc, nil
	case len(ep.Plan) > 0:
		doc, err := CompilePlan(ep.Plan)
		if err != nil {
			return nil, fmt.Errorf("plan: %w", err)
		}
		return doc, nil
	default:
		return twiml.NewResponse(twiml.ResponseOptions{}), nil
	}
}
