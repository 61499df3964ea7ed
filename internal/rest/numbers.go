package rest

import (
	"context"
	"errors"
	"iter"
	"net/http"
	"net/url"

	"github.com/mattjoyce/switchboard/internal/params"
)

// Number types accepted by PhoneNumbers.Search.
const (
	NumberLocal    = "Local"
	NumberTollFree = "TollFree"
)

// ErrNumberRequired is returned by Purchase when neither a phone number nor
// an area code is given.
var ErrNumberRequired = errors.New("must specify either phone_number or area_code")

// PhoneNumbers is the list of numbers the account owns.
type PhoneNumbers struct {
	list[PhoneNumber]
	available string
}

func newPhoneNumbers(c *Client, accountURI string) *PhoneNumbers {
	return &PhoneNumbers{
		list:      newList[PhoneNumber](c, accountURI+"/IncomingPhoneNumbers", "incoming_phone_numbers"),
		available: accountURI + "/AvailablePhoneNumbers",
	}
}

// NumberParams configures how an owned number handles calls and SMS.
type NumberParams struct {
	PhoneNumber         string
	AreaCode            string
	FriendlyName        string
	VoiceURL            string
	VoiceMethod         string
	VoiceFallbackURL    string
	VoiceFallbackMethod string
	SmsURL              string
	SmsMethod           string
	StatusCallback      string
	VoiceCallerIDLookup *bool
}

func (p NumberParams) values() url.Values {
	return params.New().
		Add("PhoneNumber", p.PhoneNumber).
		Add("AreaCode", p.AreaCode).
		Add("FriendlyName", p.FriendlyName).
		Add("VoiceUrl", p.VoiceURL).
		Add("VoiceMethod", p.VoiceMethod).
		Add("VoiceFallbackUrl", p.VoiceFallbackURL).
		Add("VoiceFallbackMethod", p.VoiceFallbackMethod).
		Add("SmsUrl", p.SmsURL).
		Add("SmsMethod", p.SmsMethod).
		Add("StatusCallback", p.StatusCallback).
		Bool("VoiceCallerIdLookup", p.VoiceCallerIDLookup).
		Values()
}

// NumberFilter narrows PhoneNumbers.List.
type NumberFilter struct {
	PhoneNumber  string
	FriendlyName string
}

func (f NumberFilter) values() url.Values {
	return params.New().
		Add("PhoneNumber", f.PhoneNumber).
		Add("FriendlyName", f.FriendlyName).
		Values()
}

// List returns one page of owned numbers.
func (n *PhoneNumbers) List(ctx context.Context, f NumberFilter, opts PageOptions) (*Page[PhoneNumber], error) {
	return n.page(ctx, f.values(), opts)
}

// All iterates every owned number matching f.
func (n *PhoneNumbers) All(ctx context.Context, f NumberFilter) iter.Seq2[PhoneNumber, error] {
	return n.all(ctx, f.values(), 0)
}

// Purchase buys a number. Either PhoneNumber or AreaCode must be set.
func (n *PhoneNumbers) Purchase(ctx context.Context, p NumberParams) (*PhoneNumber, error) {
	if p.PhoneNumber == "" && p.AreaCode == "" {
		return nil, ErrNumberRequired
	}
	return n.create(ctx, p.values())
}

// Update reconfigures an owned number.
func (n *PhoneNumbers) Update(ctx context.Context, sid string, p NumberParams) (*PhoneNumber, error) {
	return n.update(ctx, sid, p.values())
}

// Transfer moves a number to another account or subaccount.
func (n *PhoneNumbers) Transfer(ctx context.Context, sid, accountSID string) (*PhoneNumber, error) {
	return n.update(ctx, sid, url.Values{"AccountSid": {accountSID}})
}

// SearchParams narrows PhoneNumbers.Search.
type SearchParams struct {
	Country    string
	Type       string
	AreaCode   string
	Contains   string
	InRegion   string
	InPostal   string
	InLata     string
	InRate     string
	NearNumber string
	Distance   *int
}

// Search lists numbers available for purchase. Country defaults to US and
// Type to NumberLocal.
func (n *PhoneNumbers) Search(ctx context.Context, s SearchParams) ([]AvailablePhoneNumber, error) {
	country, kind := s.Country, s.Type
	if country == "" {
		country = "US"
	}
	if kind == "" {
		kind = NumberLocal
	}
	q := params.New().
		Add("AreaCode", s.AreaCode).
		Add("Contains", s.Contains).
		Add("InRegion", s.InRegion).
		Add("InPostalCode", s.InPostal).
		Add("InLata", s.InLata).
		Add("InRateCenter", s.InRate).
		Add("NearNumber", s.NearNumber).
		Int("Distance", s.Distance).
		Values()

	var out struct {
		Numbers []AvailablePhoneNumber `json:"available_phone_numbers"`
	}
	uri := n.available + "/" + url.PathEscape(country) + "/" + kind
	if _, err := n.client.Do(ctx, http.MethodGet, uri, q, &out); err != nil {
		return nil, err
	}
	return out.Numbers, nil
}

// CallerIDs is the list of verified outgoing caller IDs.
type CallerIDs struct {
	list[CallerID]
}

// List returns one page of caller IDs, optionally filtered by number or name.
func (c *CallerIDs) List(ctx context.Context, f NumberFilter, opts PageOptions) (*Page[CallerID], error) {
	return c.page(ctx, f.values(), opts)
}

// Update renames a caller ID.
func (c *CallerIDs) Update(ctx context.Context, sid, friendlyName string) (*CallerID, error) {
	return c.update(ctx, sid, url.Values{"FriendlyName": {friendlyName}})
}

// Validate starts verification of a new caller ID. The returned code must be
// entered on the phone when the verification call arrives.
func (c *CallerIDs) Validate(ctx context.Context, phoneNumber, friendlyName string, callDelay *int) (*CallerIDValidation, error) {
	form := params.New().
		Add("PhoneNumber", phoneNumber).
		Add("FriendlyName", friendlyName).
		Int("CallDelay", callDelay).
		Values()
	var out CallerIDValidation
	if _, err := c.client.Do(ctx, http.MethodPost, c.uri, form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
