// Package params translates Go-side parameter names and values into the
// REST API's capitalized form fields.
package params

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the date format the API accepts in filters.
const DateLayout = "2006-01-02"

// special holds names whose wire form is not a plain CamelCase conversion.
var special = map[string]string{
	"started_before": "StartTime<",
	"started_after":  "StartTime>",
	"started":        "StartTime",
	"ended_before":   "EndTime<",
	"ended_after":    "EndTime>",
	"ended":          "EndTime",
	"from_":          "From",
	"from":           "From",
}

// ConvertCase turns a snake_case name into CamelCase. Empty segments are
// dropped, so "friendly__name_" becomes "FriendlyName".
func ConvertCase(s string) string {
	var b strings.Builder
	for _, part := range strings.Split(s, "_") {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(strings.ToLower(part[1:]))
	}
	return b.String()
}

// WireName returns the form field name for a snake_case parameter name.
func WireName(name string) string {
	if w, ok := special[name]; ok {
		return w
	}
	return ConvertCase(name)
}

// ConvertKeys renames every key with WireName and formats the values with
// Format. Nil values are dropped.
func ConvertKeys(in map[string]any) (url.Values, error) {
	out := url.Values{}
	for k, v := range in {
		if v == nil {
			continue
		}
		s, err := Format(v)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", k, err)
		}
		out.Set(WireName(k), s)
	}
	return out, nil
}

// Format renders a parameter value in its wire form. Times are reduced to
// their date, since every date filter of the API works at day granularity.
func Format(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case time.Time:
		return t.Format(DateLayout), nil
	case *time.Time:
		if t == nil {
			return "", nil
		}
		return t.Format(DateLayout), nil
	case bool:
		return strconv.FormatBool(t), nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case fmt.Stringer:
		return t.String(), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}

// Set accumulates form fields, skipping unset values.
type Set struct {
	values url.Values
}

// New returns an empty Set.
func New() *Set {
	return &Set{values: url.Values{}}
}

// Add sets key to v unless v is empty.
func (s *Set) Add(key, v string) *Set {
	if v != "" {
		s.values.Set(key, v)
	}
	return s
}

// Int sets key when v is non-nil.
func (s *Set) Int(key string, v *int) *Set {
	if v != nil {
		s.values.Set(key, strconv.Itoa(*v))
	}
	return s
}

// Bool sets key when v is non-nil.
func (s *Set) Bool(key string, v *bool) *Set {
	if v != nil {
		s.values.Set(key, strconv.FormatBool(*v))
	}
	return s
}

// Date sets key to the date of t unless t is zero.
func (s *Set) Date(key string, t time.Time) *Set {
	if !t.IsZero() {
		s.values.Set(key, t.Format(DateLayout))
	}
	return s
}

// Values returns the accumulated fields.
func (s *Set) Values() url.Values {
	return s.values
}
