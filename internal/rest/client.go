// Package rest is a client for the telephony provider's REST API.
//
// Every remote resource is reached through a Client, which carries the
// account credentials and exposes one field per list resource:
//
//	c, err := rest.FromEnv()
//	if err != nil {
//		return err
//	}
//	call, err := c.Calls.Create(ctx, rest.CallParams{
//		To:   "+15558675309",
//		From: "+15551234567",
//		URL:  "https://example.com/voice",
//	})
//
// Requests are form encoded; responses are JSON. Any status of 400 or above
// is returned as an *Error.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.twilio.com"
	DefaultVersion = "2010-04-01"

	userAgent = "switchboard/0.1"
	maxBody   = 10 << 20
)

// Environment variables consulted by FromEnv.
const (
	EnvAccountSID = "TWILIO_ACCOUNT_SID"
	EnvAuthToken  = "TWILIO_AUTH_TOKEN"
)

// ErrNoCredentials is returned when no account SID or auth token is available.
var ErrNoCredentials = errors.New("could not find account credentials")

// Error is an HTTP error reported by the API.
type Error struct {
	Status  int
	URI     string
	Code    int
	Message string
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("HTTP %d: %d: %s (%s)", e.Status, e.Code, e.Message, e.URI)
	}
	return fmt.Sprintf("HTTP %d: %s (%s)", e.Status, e.Message, e.URI)
}

// IsNotFound reports whether err is an API 404.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Client talks to the API on behalf of one account.
type Client struct {
	accountSID string
	authToken  string
	baseURL    string
	version    string
	http       *http.Client
	logger     *slog.Logger

	Accounts       *Accounts
	Calls          *Calls
	Messages       *Messages
	Recordings     *Recordings
	Notifications  *Notifications
	Transcriptions *Transcriptions
	Conferences    *Conferences
	PhoneNumbers   *PhoneNumbers
	CallerIDs      *CallerIDs
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL points the client at another API host, e.g. a test server.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithVersion selects the API version path segment.
func WithVersion(v string) Option {
	return func(c *Client) { c.version = v }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New returns a client for the given account.
func New(accountSID, authToken string, opts ...Option) (*Client, error) {
	if accountSID == "" || authToken == "" {
		return nil, ErrNoCredentials
	}

	c := &Client{
		accountSID: accountSID,
		authToken:  authToken,
		baseURL:    DefaultBaseURL,
		version:    DefaultVersion,
		http:       &http.Client{Timeout: 30 * time.Second},
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}

	versionURI := "/" + c.version
	accountURI := versionURI + "/Accounts/" + url.PathEscape(accountSID)

	c.Accounts = &Accounts{list: newList[Account](c, versionURI+"/Accounts", "accounts")}
	c.Calls = &Calls{list: newList[Call](c, accountURI+"/Calls", "calls")}
	c.Messages = &Messages{list: newList[Message](c, accountURI+"/SMS/Messages", "sms_messages")}
	c.Recordings = newRecordings(c, accountURI)
	c.Notifications = newNotifications(c, accountURI)
	c.Transcriptions = newTranscriptions(c, accountURI)
	c.Conferences = &Conferences{list: newList[Conference](c, accountURI+"/Conferences", "conferences")}
	c.PhoneNumbers = newPhoneNumbers(c, accountURI)
	c.CallerIDs = &CallerIDs{list: newList[CallerID](c, accountURI+"/OutgoingCallerIds", "outgoing_caller_ids")}
	return c, nil
}

// FromEnv builds a client from TWILIO_ACCOUNT_SID and TWILIO_AUTH_TOKEN.
func FromEnv(opts ...Option) (*Client, error) {
	sid, token := os.Getenv(EnvAccountSID), os.Getenv(EnvAuthToken)
	if sid == "" || token == "" {
		return nil, fmt.Errorf("%w: set %s and %s", ErrNoCredentials, EnvAccountSID, EnvAuthToken)
	}
	return New(sid, token, opts...)
}

// AccountSID returns the account the client acts for.
func (c *Client) AccountSID() string { return c.accountSID }

// Do sends a request for path (relative to the API host, without format
// extension). GET and DELETE encode form as the query string; other methods
// send it as the form body. A JSON response is decoded into out when out is
// non-nil. The HTTP status is returned for callers that distinguish 200/201/204.
func (c *Client) Do(ctx context.Context, method, path string, form url.Values, out any) (int, error) {
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete:
	default:
		return 0, fmt.Errorf("HTTP %s method not implemented", method)
	}
	if path == "" {
		return 0, fmt.Errorf("invalid path")
	}

	uri := c.baseURL + path + ".json"
	var body io.Reader
	if method == http.MethodGet || method == http.MethodDelete {
		if len(form) > 0 {
			uri += "?" + form.Encode()
		}
	} else {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, uri, body)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, uri, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug("api request",
		"method", method,
		"uri", uri,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode >= 400 {
		return resp.StatusCode, decodeError(resp, uri, data)
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response from %s: %w", uri, err)
		}
	}
	return resp.StatusCode, nil
}

func decodeError(resp *http.Response, uri string, data []byte) error {
	apiErr := &Error{Status: resp.StatusCode, URI: uri}

	var body struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Message != "" {
		apiErr.Code = body.Code
		apiErr.Message = body.Message
		return apiErr
	}
	apiErr.Message = http.StatusText(resp.StatusCode)
	return apiErr
}
