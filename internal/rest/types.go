package rest

// Account is an account or subaccount.
type Account struct {
	SID          string `json:"sid"`
	FriendlyName string `json:"friendly_name"`
	Status       string `json:"status"`
	Type         string `json:"type"`
	AuthToken    string `json:"auth_token"`
	DateCreated  string `json:"date_created"`
	DateUpdated  string `json:"date_updated"`
}

// Account statuses.
const (
	AccountActive    = "active"
	AccountSuspended = "suspended"
	AccountClosed    = "closed"
)

// Call is a phone call, inbound or outbound.
type Call struct {
	SID            string `json:"sid"`
	AccountSID     string `json:"account_sid"`
	ParentCallSID  string `json:"parent_call_sid"`
	To             string `json:"to"`
	From           string `json:"from"`
	PhoneNumberSID string `json:"phone_number_sid"`
	Status         string `json:"status"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	Duration       string `json:"duration"`
	Price          string `json:"price"`
	Direction      string `json:"direction"`
	AnsweredBy     string `json:"answered_by"`
	ForwardedFrom  string `json:"forwarded_from"`
	CallerName     string `json:"caller_name"`
	DateCreated    string `json:"date_created"`
	DateUpdated    string `json:"date_updated"`
}

// Call statuses.
const (
	CallBusy       = "busy"
	CallCanceled   = "canceled"
	CallCompleted  = "completed"
	CallFailed     = "failed"
	CallInProgress = "in-progress"
	CallNoAnswer   = "no-answer"
	CallQueued     = "queued"
	CallRinging    = "ringing"
)

// Message is an SMS message.
type Message struct {
	SID        string `json:"sid"`
	AccountSID string `json:"account_sid"`
	To         string `json:"to"`
	From       string `json:"from"`
	Body       string `json:"body"`
	Status     string `json:"status"`
	Direction  string `json:"direction"`
	Price      string `json:"price"`
	DateSent   string `json:"date_sent"`
}

// Recording is audio captured by a Record instruction.
type Recording struct {
	SID         string `json:"sid"`
	AccountSID  string `json:"account_sid"`
	CallSID     string `json:"call_sid"`
	Duration    string `json:"duration"`
	DateCreated string `json:"date_created"`
}

// Notification is a log entry for an error or warning raised by the API.
type Notification struct {
	SID           string `json:"sid"`
	AccountSID    string `json:"account_sid"`
	CallSID       string `json:"call_sid"`
	Log           string `json:"log"`
	ErrorCode     string `json:"error_code"`
	MoreInfo      string `json:"more_info"`
	MessageText   string `json:"message_text"`
	MessageDate   string `json:"message_date"`
	RequestURL    string `json:"request_url"`
	RequestMethod string `json:"request_method"`
}

// Transcription is the text of a recording.
type Transcription struct {
	SID               string `json:"sid"`
	AccountSID        string `json:"account_sid"`
	RecordingSID      string `json:"recording_sid"`
	Status            string `json:"status"`
	TranscriptionText string `json:"transcription_text"`
	Duration          string `json:"duration"`
	Price             string `json:"price"`
}

// Conference is a conference room.
type Conference struct {
	SID          string `json:"sid"`
	AccountSID   string `json:"account_sid"`
	FriendlyName string `json:"friendly_name"`
	Status       string `json:"status"`
	DateCreated  string `json:"date_created"`
	DateUpdated  string `json:"date_updated"`
}

// Participant is a call connected to a conference. It is identified by its
// call SID.
type Participant struct {
	CallSID                string `json:"call_sid"`
	ConferenceSID          string `json:"conference_sid"`
	AccountSID             string `json:"account_sid"`
	Muted                  bool   `json:"muted"`
	StartConferenceOnEnter bool   `json:"start_conference_on_enter"`
	EndConferenceOnExit    bool   `json:"end_conference_on_exit"`
}

// PhoneNumber is a number owned by the account.
type PhoneNumber struct {
	SID                 string `json:"sid"`
	AccountSID          string `json:"account_sid"`
	FriendlyName        string `json:"friendly_name"`
	PhoneNumber         string `json:"phone_number"`
	VoiceURL            string `json:"voice_url"`
	VoiceMethod         string `json:"voice_method"`
	VoiceFallbackURL    string `json:"voice_fallback_url"`
	VoiceFallbackMethod string `json:"voice_fallback_method"`
	SmsURL              string `json:"sms_url"`
	SmsMethod           string `json:"sms_method"`
	StatusCallback      string `json:"status_callback"`
}

// AvailablePhoneNumber is a number offered for purchase.
type AvailablePhoneNumber struct {
	FriendlyName string `json:"friendly_name"`
	PhoneNumber  string `json:"phone_number"`
	Lata         string `json:"lata"`
	RateCenter   string `json:"rate_center"`
	Latitude     string `json:"latitude"`
	Longitude    string `json:"longitude"`
	Region       string `json:"region"`
	PostalCode   string `json:"postal_code"`
	IsoCountry   string `json:"iso_country"`
}

// CallerID is a verified outgoing caller ID.
type CallerID struct {
	SID          string `json:"sid"`
	AccountSID   string `json:"account_sid"`
	FriendlyName string `json:"friendly_name"`
	PhoneNumber  string `json:"phone_number"`
}

// CallerIDValidation is the pending validation returned when a caller ID is
// submitted for verification.
type CallerIDValidation struct {
	AccountSID     string `json:"account_sid"`
	PhoneNumber    string `json:"phone_number"`
	FriendlyName   string `json:"friendly_name"`
	ValidationCode string `json:"validation_code"`
}
