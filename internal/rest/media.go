package rest

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/mattjoyce/switchboard/internal/params"
)

// Recordings lists recordings of an account or of one call.
type Recordings struct {
	list[Recording]
}

func newRecordings(c *Client, parentURI string) *Recordings {
	return &Recordings{list: newList[Recording](c, parentURI+"/Recordings", "recordings")}
}

// RecordingFilter narrows Recordings.List.
type RecordingFilter struct {
	CallSID string
	Before  time.Time
	After   time.Time
}

// List returns one page of recordings.
func (r *Recordings) List(ctx context.Context, f RecordingFilter, opts PageOptions) (*Page[Recording], error) {
	q := params.New().
		Add("CallSid", f.CallSID).
		Date("DateCreated<", f.Before).
		Date("DateCreated>", f.After).
		Values()
	return r.page(ctx, q, opts)
}

// Transcriptions returns the transcriptions of one recording.
func (r *Recordings) Transcriptions(recordingSID string) *Transcriptions {
	return newTranscriptions(r.client, r.instanceURI(recordingSID))
}

// Notifications lists error and warning notifications.
type Notifications struct {
	list[Notification]
}

func newNotifications(c *Client, parentURI string) *Notifications {
	return &Notifications{list: newList[Notification](c, parentURI+"/Notifications", "notifications")}
}

// Notification log levels.
const (
	LogError   = 0
	LogWarning = 1
)

// NotificationFilter narrows Notifications.List.
type NotificationFilter struct {
	Before   time.Time
	After    time.Time
	LogLevel *int
}

// List returns one page of notifications.
func (n *Notifications) List(ctx context.Context, f NotificationFilter, opts PageOptions) (*Page[Notification], error) {
	q := params.New().
		Date("MessageDate<", f.Before).
		Date("MessageDate>", f.After).
		Int("Log", f.LogLevel).
		Values()
	return n.page(ctx, q, opts)
}

// Transcriptions lists transcriptions of an account or of one recording.
type Transcriptions struct {
	list[Transcription]
}

func newTranscriptions(c *Client, parentURI string) *Transcriptions {
	return &Transcriptions{list: newList[Transcription](c, parentURI+"/Transcriptions", "transcriptions")}
}

// List returns one page of transcriptions.
func (t *Transcriptions) List(ctx context.Context, opts PageOptions) (*Page[Transcription], error) {
	return t.page(ctx, url.Values{}, opts)
}

// Conferences lists conference rooms.
type Conferences struct {
	list[Conference]
}

// ConferenceFilter narrows Conferences.List.
type ConferenceFilter struct {
	Status        string
	FriendlyName  string
	Created       time.Time
	CreatedBefore time.Time
	CreatedAfter  time.Time
	Updated       time.Time
	UpdatedBefore time.Time
	UpdatedAfter  time.Time
}

// List returns one page of conferences.
func (c *Conferences) List(ctx context.Context, f ConferenceFilter, opts PageOptions) (*Page[Conference], error) {
	q := params.New().
		Add("Status", f.Status).
		Add("FriendlyName", f.FriendlyName).
		Date("DateCreated", f.Created).
		Date("DateCreated<", f.CreatedBefore).
		Date("DateCreated>", f.CreatedAfter).
		Date("DateUpdated", f.Updated).
		Date("DateUpdated<", f.UpdatedBefore).
		Date("DateUpdated>", f.UpdatedAfter).
		Values()
	return c.page(ctx, q, opts)
}

// Participants returns the participants of one conference.
func (c *Conferences) Participants(conferenceSID string) *Participants {
	return &Participants{list: newList[Participant](c.client, c.instanceURI(conferenceSID)+"/Participants", "participants")}
}

// Participants lists the calls connected to a conference, keyed by call SID.
type Participants struct {
	list[Participant]
}

// List returns one page of participants; muted filters on mute state when set.
func (p *Participants) List(ctx context.Context, muted *bool, opts PageOptions) (*Page[Participant], error) {
	return p.page(ctx, params.New().Bool("Muted", muted).Values(), opts)
}

// Mute silences a participant.
func (p *Participants) Mute(ctx context.Context, callSID string) (*Participant, error) {
	return p.update(ctx, callSID, url.Values{"Muted": {strconv.FormatBool(true)}})
}

// Unmute lets a participant speak again.
func (p *Participants) Unmute(ctx context.Context, callSID string) (*Participant, error) {
	return p.update(ctx, callSID, url.Values{"Muted": {strconv.FormatBool(false)}})
}

// Kick removes a participant from the conference.
func (p *Participants) Kick(ctx context.Context, callSID string) (bool, error) {
	return p.Delete(ctx, callSID)
}
