package signature

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// Header is the request header carrying the provider's signature.
const Header = "X-Twilio-Signature"

// ErrConfig marks credentials that cannot be used for signing.
var ErrConfig = errors.New("invalid signing credentials")

// ConfigError describes which credential field is unusable.
type ConfigError struct {
	Field string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%v: %s is empty", ErrConfig, e.Field)
}

func (e *ConfigError) Unwrap() error { return ErrConfig }

// Credentials identify an account and hold its shared secret.
type Credentials struct {
	AccountSID string
	AuthToken  string
}

// Validator signs and verifies webhook requests for one account.
// It is immutable and safe for concurrent use.
type Validator struct {
	creds Credentials
}

// New returns a Validator for the given account. The auth token is required;
// signing with an empty key would accept forged requests from anyone who
// knows the scheme.
func New(accountSID, authToken string) (*Validator, error) {
	if authToken == "" {
		return nil, &ConfigError{Field: "auth token"}
	}
	return &Validator{creds: Credentials{AccountSID: accountSID, AuthToken: authToken}}, nil
}

// AccountSID returns the account this validator was built for.
func (v *Validator) AccountSID() string {
	return v.creds.AccountSID
}

// Sign computes the signature the provider would send for uri and params.
func (v *Validator) Sign(uri string, params map[string]string) string {
	mac := hmac.New(sha1.New, []byte(v.creds.AuthToken))
	mac.Write([]byte(signingString(uri, params)))
	return strings.TrimSpace(base64.StdEncoding.EncodeToString(mac.Sum(nil)))
}

// Validate reports whether signature matches the one computed for uri and
// params. The comparison runs in constant time.
func (v *Validator) Validate(uri string, params map[string]string, signature string) bool {
	expected := v.Sign(uri, params)
	actual := strings.TrimSpace(signature)
	if actual == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(actual)) == 1
}

// SigningString returns the string that Sign MACs. Exposed so callers can
// derive stable keys (e.g. for deduplication) from exactly the signed content.
func SigningString(uri string, params map[string]string) string {
	return signingString(uri, params)
}

func signingString(uri string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(uri)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(params[k])
	}
	return b.String()
}

// FormParams flattens parsed form values to the single-valued mapping the
// scheme signs. The first value of each key wins, matching Request.FormValue.
func FormParams(values url.Values) map[string]string {
	out := make(map[string]string, len(values))
	for k, vs := range values {
		if len(vs) == 0 {
			out[k] = ""
			continue
		}
		out[k] = vs[0]
	}
	return out
}

// RequestURL reconstructs the externally visible URL of r. When publicBase is
// set (e.g. "https://hooks.example.com") it replaces scheme and host, which is
// required behind proxies that rewrite the Host header. Otherwise the scheme
// comes from X-Forwarded-Proto or the TLS state.
func RequestURL(r *http.Request, publicBase string) string {
	path := r.URL.RequestURI()
	if publicBase != "" {
		return strings.TrimRight(publicBase, "/") + path
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}
	return scheme + "://" + r.Host + path
}
