package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mattjoyce/switchboard/internal/delivery"
	"github.com/mattjoyce/switchboard/internal/signature"
	"github.com/mattjoyce/switchboard/internal/twiml"
)

// Server represents the webhook HTTP server.
type Server struct {
	config    Config
	validator *signature.Validator
	recorder  DeliveryRecorder
	logger    *slog.Logger
	server    *http.Server

	// endpoints maps URL paths to their configurations
	endpoints map[string]*EndpointConfig
}

// New creates a new webhook server instance.
func New(config Config, validator *signature.Validator, recorder DeliveryRecorder, logger *slog.Logger) *Server {
	endpoints := make(map[string]*EndpointConfig)
	for i := range config.Endpoints {
		ep := &config.Endpoints[i]

		if ep.MaxBodySize == 0 {
			ep.MaxBodySize = DefaultMaxBodySize
		}
		if ep.Name == "" {
			ep.Name = ep.Path
		}
		if ep.Document == nil {
			ep.Document = twiml.NewResponse(twiml.ResponseOptions{})
		}

		endpoints[ep.Path] = ep
	}

	return &Server{
		config:    config,
		validator: validator,
		recorder:  recorder,
		logger:    logger,
		endpoints: endpoints,
	}
}

// Handler returns the HTTP handler serving every endpoint.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

// Start starts the webhook HTTP server (blocking).
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.config.Listen,
		Handler:      s.setupRoutes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("webhook server starting", "listen", s.config.Listen, "endpoints", len(s.endpoints))

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("webhook server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("webhook server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("webhook server error: %w", err)
	}
}

// setupRoutes configures the HTTP router.
func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	// The provider calls back with whichever method the number is configured for.
	for path := range s.endpoints {
		r.Get(path, s.handleWebhook)
		r.Post(path, s.handleWebhook)
	}

	return r
}

// loggingMiddleware logs HTTP requests (excludes sensitive payloads).
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Info("webhook request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
			"remote_addr", r.RemoteAddr,
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleWebhook authenticates a provider callback, records it and answers
// with the endpoint's document.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	endpoint, ok := s.endpoints[r.URL.Path]
	if !ok {
		s.respondError(w, http.StatusNotFound, "endpoint not found")
		return
	}
	logger := s.logger.With("endpoint", endpoint.Name)

	// GET callbacks are signed over the full URL alone; POST callbacks over
	// the URL plus the form fields.
	signed := map[string]string{}
	recorded := signature.FormParams(r.URL.Query())
	if r.Method == http.MethodPost {
		body, err := io.ReadAll(io.LimitReader(r.Body, endpoint.MaxBodySize+1))
		if err != nil {
			s.respondError(w, http.StatusInternalServerError, "failed to read request body")
			return
		}
		if int64(len(body)) > endpoint.MaxBodySize {
			s.respondError(w, http.StatusRequestEntityTooLarge, "payload too large")
			return
		}
		form, err := url.ParseQuery(string(body))
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "malformed form body")
			return
		}
		signed = signature.FormParams(form)
		recorded = signed
	}

	sig := r.Header.Get(signature.Header)
	if sig == "" {
		logger.Warn("webhook signature missing", "path", r.URL.Path)
		s.respondError(w, http.StatusForbidden, "forbidden")
		return
	}

	signedURL := signature.RequestURL(r, s.config.PublicBaseURL)
	if !s.validator.Validate(signedURL, signed, sig) {
		logger.Warn("webhook signature verification failed", "path", r.URL.Path)
		s.respondError(w, http.StatusForbidden, "forbidden")
		return
	}

	id, err := s.recorder.Record(ctx, delivery.RecordRequest{
		Endpoint: endpoint.Name,
		URL:      signedURL,
		Params:   recorded,
	})
	if err != nil {
		logger.Error("failed to record delivery", "path", r.URL.Path, "error", err)
		s.respondError(w, http.StatusInternalServerError, "failed to record delivery")
		return
	}

	logger.Info("webhook delivery recorded",
		"path", r.URL.Path,
		"delivery_id", id,
		"call_sid", recorded["CallSid"],
	)

	w.Header().Set("Content-Type", twiml.ContentType)
	w.WriteHeader(http.StatusOK)
	if _, err := endpoint.Document.WriteTo(w); err != nil {
		logger.Warn("failed to write response", "error", err)
	}
}

// respondJSON sends a JSON response.
func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respondError sends a JSON error response.
func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, ErrorResponse{Error: message})
}
