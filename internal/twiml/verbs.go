package twiml

import "strings"

// ResponseOptions configures the document root.
type ResponseOptions struct {
	// Version defaults to DefaultVersion.
	Version string
}

// SayOptions configures a Say. Voice defaults to man, Language to en and
// Loop to 1. A Loop of 0 repeats until the call ends.
type SayOptions struct {
	Voice    string
	Language string
	Loop     *int
}

// PlayOptions configures a Play. Loop defaults to 1.
type PlayOptions struct {
	Loop *int
}

// PauseOptions configures a Pause. Length is in seconds and defaults to 1.
type PauseOptions struct {
	Length *int
}

// RedirectOptions configures a Redirect. Method defaults to POST.
type RedirectOptions struct {
	Method string
}

// GatherOptions configures keypad input collection.
type GatherOptions struct {
	Action      string
	Method      string
	NumDigits   *int
	Timeout     *int
	FinishOnKey string
}

// DialOptions configures a Dial.
type DialOptions struct {
	Action string
	Method string
}

// NumberOptions configures a Number nested in a Dial.
type NumberOptions struct {
	SendDigits string
}

// ConferenceOptions configures a Conference nested in a Dial.
type ConferenceOptions struct {
	Muted                  *bool
	Beep                   *bool
	StartConferenceOnEnter *bool
	EndConferenceOnExit    *bool
	WaitURL                string
	WaitMethod             string
}

// RecordOptions configures a Record. MaxLength and Timeout are in seconds.
type RecordOptions struct {
	Action    string
	Method    string
	MaxLength *int
	Timeout   *int
}

// SmsOptions configures an Sms. From is written as the "from" attribute.
type SmsOptions struct {
	To             string
	From           string
	Action         string
	Method         string
	StatusCallback string
}

// NewResponse returns a document root.
func NewResponse(opts ResponseOptions) *Element {
	version := opts.Version
	if version == "" {
		version = DefaultVersion
	}
	e, _ := newElement(KindResponse, attrSet{"version": version}, "")
	return e
}

// NewSay returns a Say speaking text.
func NewSay(text string, opts SayOptions) (*Element, error) {
	if opts.Voice == "" {
		opts.Voice = VoiceMan
	}
	if opts.Language == "" {
		opts.Language = LanguageEnglish
	}
	if opts.Loop == nil {
		opts.Loop = Int(1)
	}
	attrs := attrSet{}.
		str("voice", opts.Voice).
		str("language", opts.Language).
		num("loop", opts.Loop)
	return newElement(KindSay, attrs, text)
}

// NewPlay returns a Play of the audio at url.
func NewPlay(url string, opts PlayOptions) *Element {
	if opts.Loop == nil {
		opts.Loop = Int(1)
	}
	e, _ := newElement(KindPlay, attrSet{}.num("loop", opts.Loop), url)
	return e
}

// NewPause returns a Pause.
func NewPause(opts PauseOptions) *Element {
	if opts.Length == nil {
		opts.Length = Int(1)
	}
	e, _ := newElement(KindPause, attrSet{}.num("length", opts.Length), "")
	return e
}

// NewRedirect returns a Redirect to url. An empty url means the current
// document URL.
func NewRedirect(url string, opts RedirectOptions) (*Element, error) {
	if opts.Method == "" {
		opts.Method = MethodPOST
	}
	return newElement(KindRedirect, attrSet{}.str("method", opts.Method), url)
}

// NewHangup returns a Hangup.
func NewHangup() *Element {
	e, _ := newElement(KindHangup, nil, "")
	return e
}

// NewReject returns a Reject. No container kind lists Reject in its
// nestable set, so the element can be built but not appended.
func NewReject() *Element {
	e, _ := newElement(KindReject, nil, "")
	return e
}

// NewGather returns a Gather. Say, Play and Pause may be nested inside it.
func NewGather(opts GatherOptions) (*Element, error) {
	attrs := attrSet{}.
		str("action", opts.Action).
		str("method", opts.Method).
		num("numDigits", opts.NumDigits).
		num("timeout", opts.Timeout).
		str("finishOnKey", opts.FinishOnKey)
	return newElement(KindGather, attrs, "")
}

// NewDial returns a Dial. A comma separated number is expanded into one
// Number child per entry, trimmed, in order; empty entries are skipped. A
// single number is kept as the Dial's own text.
func NewDial(number string, opts DialOptions) (*Element, error) {
	attrs := attrSet{}.
		str("action", opts.Action).
		str("method", opts.Method)

	if !strings.Contains(number, ",") {
		return newElement(KindDial, attrs, number)
	}

	dial, err := newElement(KindDial, attrs, "")
	if err != nil {
		return nil, err
	}
	for _, n := range strings.Split(number, ",") {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, err := dial.Append(NewNumber(n, NumberOptions{})); err != nil {
			return nil, err
		}
	}
	return dial, nil
}

// NewNumber returns a Number for use inside a Dial.
func NewNumber(number string, opts NumberOptions) *Element {
	e, _ := newElement(KindNumber, attrSet{}.str("sendDigits", opts.SendDigits), number)
	return e
}

// NewConference returns a Conference room named name for use inside a Dial.
func NewConference(name string, opts ConferenceOptions) (*Element, error) {
	attrs := attrSet{}.
		flag("muted", opts.Muted).
		flag("beep", opts.Beep).
		flag("startConferenceOnEnter", opts.StartConferenceOnEnter).
		flag("endConferenceOnExit", opts.EndConferenceOnExit).
		str("waitUrl", opts.WaitURL).
		str("waitMethod", opts.WaitMethod)
	return newElement(KindConference, attrs, name)
}

// NewRecord returns a Record.
func NewRecord(opts RecordOptions) (*Element, error) {
	attrs := attrSet{}.
		str("action", opts.Action).
		str("method", opts.Method).
		num("maxLength", opts.MaxLength).
		num("timeout", opts.Timeout)
	return newElement(KindRecord, attrs, "")
}

// NewSms returns an Sms sending msg.
func NewSms(msg string, opts SmsOptions) (*Element, error) {
	attrs := attrSet{}.
		str("to", opts.To).
		str("from", opts.From).
		str("action", opts.Action).
		str("method", opts.Method).
		str("statusCallback", opts.StatusCallback)
	return newElement(KindSms, attrs, msg)
}

func appendNew(parent *Element, child *Element, err error) (*Element, error) {
	if err != nil {
		return nil, err
	}
	return parent.Append(child)
}

// Say appends a new Say under e.
func (e *Element) Say(text string, opts SayOptions) (*Element, error) {
	child, err := NewSay(text, opts)
	return appendNew(e, child, err)
}

// Play appends a new Play under e.
func (e *Element) Play(url string, opts PlayOptions) (*Element, error) {
	return e.Append(NewPlay(url, opts))
}

// Pause appends a new Pause under e.
func (e *Element) Pause(opts PauseOptions) (*Element, error) {
	return e.Append(NewPause(opts))
}

// Redirect appends a new Redirect under e.
func (e *Element) Redirect(url string, opts RedirectOptions) (*Element, error) {
	child, err := NewRedirect(url, opts)
	return appendNew(e, child, err)
}

// Hangup appends a new Hangup under e.
func (e *Element) Hangup() (*Element, error) {
	return e.Append(NewHangup())
}

// Reject appends a new Reject under e.
func (e *Element) Reject() (*Element, error) {
	return e.Append(NewReject())
}

// Gather appends a new Gather under e.
func (e *Element) Gather(opts GatherOptions) (*Element, error) {
	child, err := NewGather(opts)
	return appendNew(e, child, err)
}

// Dial appends a new Dial under e. See NewDial for how number is handled.
func (e *Element) Dial(number string, opts DialOptions) (*Element, error) {
	child, err := NewDial(number, opts)
	return appendNew(e, child, err)
}

// Number appends a new Number under e.
func (e *Element) Number(number string, opts NumberOptions) (*Element, error) {
	return e.Append(NewNumber(number, opts))
}

// Conference appends a new Conference under e.
func (e *Element) Conference(name string, opts ConferenceOptions) (*Element, error) {
	child, err := NewConference(name, opts)
	return appendNew(e, child, err)
}

// Record appends a new Record under e.
func (e *Element) Record(opts RecordOptions) (*Element, error) {
	child, err := NewRecord(opts)
	return appendNew(e, child, err)
}

// Sms appends a new Sms under e.
func (e *Element) Sms(msg string, opts SmsOptions) (*Element, error) {
	child, err := NewSms(msg, opts)
	return appendNew(e, child, err)
}
