package rest

import (
	"context"
	"iter"
	"net/url"
	"time"

	"github.com/mattjoyce/switchboard/internal/params"
)

// Messages is the account's SMS log and the entry point for sending SMS.
type Messages struct {
	list[Message]
}

// MessageParams describes an outbound SMS. To, From and Body are required.
type MessageParams struct {
	To             string
	From           string
	Body           string
	StatusCallback string
}

// MessageFilter narrows Messages.List.
type MessageFilter struct {
	To         string
	From       string
	SentBefore time.Time
	SentAfter  time.Time
}

func (f MessageFilter) values() url.Values {
	return params.New().
		Add("To", f.To).
		Add("From", f.From).
		Date("DateSent<", f.SentBefore).
		Date("DateSent>", f.SentAfter).
		Values()
}

// Send queues an SMS for delivery.
func (m *Messages) Send(ctx context.Context, p MessageParams) (*Message, error) {
	form := params.New().
		Add("To", p.To).
		Add("From", p.From).
		Add("Body", p.Body).
		Add("StatusCallback", p.StatusCallback).
		Values()
	return m.create(ctx, form)
}

// List returns one page of messages.
func (m *Messages) List(ctx context.Context, f MessageFilter, opts PageOptions) (*Page[Message], error) {
	return m.page(ctx, f.values(), opts)
}

// All iterates every message matching f.
func (m *Messages) All(ctx context.Context, f MessageFilter) iter.Seq2[Message, error] {
	return m.all(ctx, f.values(), 0)
}
