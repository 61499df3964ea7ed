package rest

import (
	"context"
	"iter"
	"net/url"
	"time"

	"github.com/mattjoyce/switchboard/internal/params"
)

// Calls is the account's call log and the entry point for placing calls.
type Calls struct {
	list[Call]
}

// CallFilter narrows Calls.List. Time bounds are compared by date.
type CallFilter struct {
	To            string
	From          string
	Status        string
	Started       time.Time
	StartedBefore time.Time
	StartedAfter  time.Time
	Ended         time.Time
	EndedBefore   time.Time
	EndedAfter    time.Time
}

func (f CallFilter) values() url.Values {
	return params.New().
		Add("To", f.To).
		Add("From", f.From).
		Add("Status", f.Status).
		Date(params.WireName("started"), f.Started).
		Date(params.WireName("started_before"), f.StartedBefore).
		Date(params.WireName("started_after"), f.StartedAfter).
		Date(params.WireName("ended"), f.Ended).
		Date(params.WireName("ended_before"), f.EndedBefore).
		Date(params.WireName("ended_after"), f.EndedAfter).
		Values()
}

// CallParams describes an outbound call. To, From and URL are required.
type CallParams struct {
	To                   string
	From                 string
	URL                  string
	Method               string
	FallbackURL          string
	FallbackMethod       string
	StatusCallback       string
	StatusCallbackMethod string
	SendDigits           string
	IfMachine            string
	Timeout              *int
}

// List returns one page of calls.
func (c *Calls) List(ctx context.Context, f CallFilter, opts PageOptions) (*Page[Call], error) {
	return c.page(ctx, f.values(), opts)
}

// All iterates every call matching f.
func (c *Calls) All(ctx context.Context, f CallFilter) iter.Seq2[Call, error] {
	return c.all(ctx, f.values(), 0)
}

// Create places an outbound call.
func (c *Calls) Create(ctx context.Context, p CallParams) (*Call, error) {
	form := params.New().
		Add("To", p.To).
		Add("From", p.From).
		Add("Url", p.URL).
		Add("Method", p.Method).
		Add("FallbackUrl", p.FallbackURL).
		Add("FallbackMethod", p.FallbackMethod).
		Add("StatusCallback", p.StatusCallback).
		Add("StatusCallbackMethod", p.StatusCallbackMethod).
		Add("SendDigits", p.SendDigits).
		Add("IfMachine", p.IfMachine).
		Int("Timeout", p.Timeout).
		Values()
	return c.create(ctx, form)
}

// Hangup ends an active call, or removes a queued one.
func (c *Calls) Hangup(ctx context.Context, sid string) (*Call, error) {
	return c.update(ctx, sid, url.Values{"Status": {CallCanceled}})
}

// Route redirects a live call to the markup at target. Method defaults to POST.
func (c *Calls) Route(ctx context.Context, sid, target, method string) (*Call, error) {
	if method == "" {
		method = "POST"
	}
	return c.update(ctx, sid, url.Values{"Url": {target}, "Method": {method}})
}

// Recordings returns the recordings made during one call.
func (c *Calls) Recordings(callSID string) *Recordings {
	return newRecordings(c.client, c.instanceURI(callSID))
}

// Notifications returns the notifications raised during one call.
func (c *Calls) Notifications(callSID string) *Notifications {
	return newNotifications(c.client, c.instanceURI(callSID))
}
