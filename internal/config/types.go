package config

import (
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete switchboard configuration.
type Config struct {
	Include  []string        `yaml:"include,omitempty"`
	Service  ServiceConfig   `yaml:"service"`
	State    StateConfig     `yaml:"state"`
	Account  AccountConfig   `yaml:"account"`
	Webhooks *WebhooksConfig `yaml:"webhooks,omitempty"`

	// SourceFiles holds the parsed YAML of every file that contributed to
	// this config, keyed by absolute path.
	SourceFiles map[string]*yaml.Node `yaml:"-"`
}

// ServiceConfig defines core service settings.
type ServiceConfig struct {
	Name              string        `yaml:"name"`
	LogLevel          string        `yaml:"log_level"`
	DedupeTTL         time.Duration `yaml:"dedupe_ttl"`
	DeliveryRetention time.Duration `yaml:"delivery_retention"`
}

// StateConfig defines state storage settings.
type StateConfig struct {
	Path string `yaml:"path"`
}

// AccountConfig holds the API credentials. The auth token doubles as the
// webhook signing secret.
type AccountConfig struct {
	SID       string `yaml:"sid"`
	AuthToken string `yaml:"auth_token"`
	BaseURL   string `yaml:"base_url,omitempty"`
}

// WebhooksConfig defines webhook listener settings.
type WebhooksConfig struct {
	Listen string `yaml:"listen"`
	// PublicBaseURL is the scheme and host the provider calls, used to
	// rebuild the signed URL behind a proxy.
	PublicBaseURL string            `yaml:"public_base_url,omitempty"`
	Endpoints     []WebhookEndpoint `yaml:"endpoints"`
}

// WebhookEndpoint defines a single webhook endpoint. Exactly one of Response
// (literal markup) or Plan is expected; neither answers with an empty
// Response document.
type WebhookEndpoint struct {
	Path        string     `yaml:"path"`
	Name        string     `yaml:"name"`
	Response    string     `yaml:"response,omitempty"`
	Plan        []PlanStep `yaml:"plan,omitempty"`
	MaxBodySize string     `yaml:"max_body_size"`
}

// PlanStep is one instruction of a response plan. Exactly one verb field is
// set per step; the remaining fields qualify it.
type PlanStep struct {
	Say      string      `yaml:"say,omitempty"`
	Play     string      `yaml:"play,omitempty"`
	Pause    *int        `yaml:"pause,omitempty"`
	Redirect string      `yaml:"redirect,omitempty"`
	Hangup   bool        `yaml:"hangup,omitempty"`
	Gather   *GatherStep `yaml:"gather,omitempty"`
	Dial     *DialStep   `yaml:"dial,omitempty"`
	Record   *RecordStep `yaml:"record,omitempty"`
	Sms      *SmsStep    `yaml:"sms,omitempty"`
	Voice    string      `yaml:"voice,omitempty"`
	Language string      `yaml:"language,omitempty"`
	Loop     *int        `yaml:"loop,omitempty"`
	Method   string      `yaml:"method,omitempty"`
}

// GatherStep collects keypad digits while its nested steps play.
type GatherStep struct {
	Action      string     `yaml:"action,omitempty"`
	Method      string     `yaml:"method,omitempty"`
	NumDigits   *int       `yaml:"num_digits,omitempty"`
	Timeout     *int       `yaml:"timeout,omitempty"`
	FinishOnKey string     `yaml:"finish_on_key,omitempty"`
	Steps       []PlanStep `yaml:"steps,omitempty"`
}

// DialStep connects the caller to numbers or a conference.
type DialStep struct {
	Numbers    []string `yaml:"numbers,omitempty"`
	Conference string   `yaml:"conference,omitempty"`
	Action     string   `yaml:"action,omitempty"`
	Method     string   `yaml:"method,omitempty"`
	Muted      *bool    `yaml:"muted,omitempty"`
	Beep       *bool    `yaml:"beep,omitempty"`
}

// RecordStep records the caller.
type RecordStep struct {
	Action    string `yaml:"action,omitempty"`
	Method    string `yaml:"method,omitempty"`
	MaxLength *int   `yaml:"max_length,omitempty"`
	Timeout   *int   `yaml:"timeout,omitempty"`
}

// SmsStep sends an SMS during the call.
type SmsStep struct {
	Body           string `yaml:"body"`
	To             string `yaml:"to,omitempty"`
	From           string `yaml:"from,omitempty"`
	StatusCallback string `yaml:"status_callback,omitempty"`
}

// Defaults returns a Config with sensible defaults.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:              "switchboard",
			LogLevel:          "info",
			DedupeTTL:         24 * time.Hour,
			DeliveryRetention: 30 * 24 * time.Hour,
		},
		State: StateConfig{
			Path: "./data/switchboard.db",
		},
		Account: AccountConfig{
			BaseURL: "https://api.twilio.com",
		},
	}
}

// ChecksumManifest is the content of a .checksums file.
type ChecksumManifest struct {
	Version     int               `yaml:"version"`
	GeneratedAt string            `yaml:"generated_at"`
	Hashes      map[string]string `yaml:"hashes"`
}

// IntegrityResult collects the outcome of VerifyIntegrity.
type IntegrityResult struct {
	Passed   bool
	Errors   []string
	Warnings []string
}
