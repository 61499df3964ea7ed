// Package doctor validates switchboard configuration beyond what the loader
// enforces: compiled webhook documents, credentials and deployment hints.
package doctor

import (
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/mattjoyce/switchboard/internal/config"
	"github.com/mattjoyce/switchboard/internal/rest"
	"github.com/mattjoyce/switchboard/internal/webhook"
)

// Result holds the outcome of a validation run.
type Result struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors,omitempty"`
	Warnings []Issue `json:"warnings,omitempty"`
}

// Issue describes a single validation error or warning.
type Issue struct {
	Category string `json:"category"`
	Message  string `json:"message"`
	Field    string `json:"field,omitempty"`
}

// Doctor validates a loaded configuration.
type Doctor struct {
	cfg       *config.Config
	configDir string
}

// New creates a Doctor from a loaded config.
func New(cfg *config.Config) *Doctor {
	return &Doctor{cfg: cfg}
}

// WithConfigDir enables checksum verification of the files in dir.
func (d *Doctor) WithConfigDir(dir string) *Doctor {
	d.configDir = dir
	return d
}

// Validate runs all checks and returns a result.
func (d *Doctor) Validate() *Result {
	r := &Result{Valid: true}

	d.validateServiceConfig(r)
	d.validateAccount(r)
	d.validateWebhooks(r)
	d.validatePublicBaseURL(r)
	d.warnRetention(r)
	d.validateIntegrity(r)

	r.Valid = len(r.Errors) == 0
	return r
}

func (d *Doctor) addError(r *Result, category, field, msg string) {
	r.Errors = append(r.Errors, Issue{Category: category, Field: field, Message: msg})
}

func (d *Doctor) addWarning(r *Result, category, field, msg string) {
	r.Warnings = append(r.Warnings, Issue{Category: category, Field: field, Message: msg})
}

// validateServiceConfig checks required service fields.
func (d *Doctor) validateServiceConfig(r *Result) {
	if d.cfg.State.Path == "" {
		d.addError(r, "service", "state.path", "state.path is required")
	}
	if d.cfg.Service.DedupeTTL < 0 {
		d.addError(r, "service", "service.dedupe_ttl", "dedupe_ttl must not be negative")
	}
}

// validateAccount checks the API credentials. A missing SID only limits the
// REST commands, so it is a warning.
func (d *Doctor) validateAccount(r *Result) {
	acct := d.cfg.Account
	if acct.SID == "" {
		d.addWarning(r, "account", "account.sid",
			"account.sid is empty; REST commands will fall back to "+rest.EnvAccountSID)
	} else if !strings.HasPrefix(acct.SID, "AC") {
		d.addWarning(r, "account", "account.sid",
			fmt.Sprintf("account sid %q does not start with AC", acct.SID))
	}
	if acct.AuthToken == "" {
		if d.cfg.Webhooks != nil {
			d.addError(r, "account", "account.auth_token",
				"auth_token is required to verify webhook signatures")
		} else {
			d.addWarning(r, "account", "account.auth_token", "auth_token is empty")
		}
	}
	if acct.BaseURL != "" {
		if u, err := url.Parse(acct.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			d.addError(r, "account", "account.base_url",
				fmt.Sprintf("base_url %q is not an absolute URL", acct.BaseURL))
		} else if u.Scheme != "https" {
			d.addWarning(r, "account", "account.base_url",
				fmt.Sprintf("base_url %q does not use https; credentials travel in clear text", acct.BaseURL))
		}
	}
}

// validateWebhooks checks for path conflicts and compiles every endpoint
// document so nesting and enum errors surface before the server starts.
func (d *Doctor) validateWebhooks(r *Result) {
	if d.cfg.Webhooks == nil {
		return
	}
	if d.cfg.Webhooks.Listen == "" {
		d.addError(r, "webhooks", "webhooks.listen", "webhooks.listen is required")
	}
	if len(d.cfg.Webhooks.Endpoints) == 0 {
		d.addWarning(r, "webhooks", "webhooks.endpoints", "webhooks configured without endpoints")
	}

	seen := make(map[string]int)
	for i, ep := range d.cfg.Webhooks.Endpoints {
		field := fmt.Sprintf("webhooks.endpoints[%d]", i)

		normalized := strings.TrimSuffix(ep.Path, "/")
		if prevIdx, exists := seen[normalized]; exists {
			d.addError(r, "webhooks", field+".path",
				fmt.Sprintf("webhook path %q conflicts with webhooks.endpoints[%d]", ep.Path, prevIdx))
		}
		seen[normalized] = i

		if ep.Response != "" && len(ep.Plan) > 0 {
			d.addError(r, "webhooks", field,
				fmt.Sprintf("webhook %q: response and plan are mutually exclusive", ep.Path))
			continue
		}

		single := &config.WebhooksConfig{Endpoints: []config.WebhookEndpoint{ep}}
		if _, err := webhook.FromGlobalConfig(single); err != nil {
			d.addError(r, "documents", field, err.Error())
			continue
		}
		if ep.Response == "" && len(ep.Plan) == 0 {
			d.addWarning(r, "documents", field,
				fmt.Sprintf("webhook %q has no response or plan; callers receive an empty Response", ep.Path))
		}
	}
}

// validatePublicBaseURL checks the URL the provider signs against. A
// loopback listener almost always sits behind a proxy or tunnel, where the
// request host differs from the one the provider signed.
func (d *Doctor) validatePublicBaseURL(r *Result) {
	if d.cfg.Webhooks == nil {
		return
	}
	base := d.cfg.Webhooks.PublicBaseURL
	if base == "" {
		if isLoopback(d.cfg.Webhooks.Listen) {
			d.addWarning(r, "webhooks", "webhooks.public_base_url",
				"listener is loopback-only; set public_base_url to the address the provider calls or signatures will not match")
		}
		return
	}
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		d.addError(r, "webhooks", "webhooks.public_base_url",
			fmt.Sprintf("public_base_url %q is not an absolute URL", base))
		return
	}
	if u.Path != "" && u.Path != "/" {
		d.addWarning(r, "webhooks", "webhooks.public_base_url",
			fmt.Sprintf("public_base_url %q has a path; only scheme and host are used", base))
	}
}

// warnRetention flags retention windows shorter than the dedupe window,
// which prune the rows duplicate detection relies on.
func (d *Doctor) warnRetention(r *Result) {
	svc := d.cfg.Service
	if svc.DeliveryRetention > 0 && svc.DedupeTTL > svc.DeliveryRetention {
		d.addWarning(r, "service", "service.delivery_retention",
			fmt.Sprintf("delivery_retention %s is shorter than dedupe_ttl %s", svc.DeliveryRetention, svc.DedupeTTL))
	}
}

// validateIntegrity checks the config directory against its .checksums
// manifest. High-security files fail the check; plan files only warn.
func (d *Doctor) validateIntegrity(r *Result) {
	if d.configDir == "" {
		return
	}
	files, err := config.DiscoverConfigFiles(d.configDir)
	if err != nil {
		d.addError(r, "integrity", "", err.Error())
		return
	}
	res, err := config.VerifyIntegrity(files.Root, files)
	if err != nil {
		d.addError(r, "integrity", "", err.Error())
		return
	}
	for _, msg := range res.Errors {
		d.addError(r, "integrity", "", msg)
	}
	for _, msg := range res.Warnings {
		d.addWarning(r, "integrity", "", msg)
	}
}

func isLoopback(listen string) bool {
	host, _, err := net.SplitHostPort(listen)
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// FormatHuman returns a human-readable validation report.
func FormatHuman(r *Result) string {
	var b strings.Builder

	if r.Valid && len(r.Warnings) == 0 {
		b.WriteString("Configuration valid.\n")
		return b.String()
	}

	if r.Valid && len(r.Warnings) > 0 {
		b.WriteString("Configuration valid")
		fmt.Fprintf(&b, " (%d warning(s))\n", len(r.Warnings))
	}

	if !r.Valid {
		fmt.Fprintf(&b, "Configuration invalid (%d error(s), %d warning(s))\n", len(r.Errors), len(r.Warnings))
	}

	for _, e := range r.Errors {
		if e.Field != "" {
			fmt.Fprintf(&b, "  ERROR [%s] %s: %s\n", e.Category, e.Field, e.Message)
		} else {
			fmt.Fprintf(&b, "  ERROR [%s] %s\n", e.Category, e.Message)
		}
	}
	for _, w := range r.Warnings {
		if w.Field != "" {
			fmt.Fprintf(&b, "  WARN  [%s] %s: %s\n", w.Category, w.Field, w.Message)
		} else {
			fmt.Fprintf(&b, "  WARN  [%s] %s\n", w.Category, w.Message)
		}
	}

	return b.String()
}

// FormatJSON returns the result as indented JSON.
func FormatJSON(r *Result) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
