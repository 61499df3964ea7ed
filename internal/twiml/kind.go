package twiml

import "slices"

// Kind names an element of the markup dialect. The value is the XML tag.
type Kind string

const (
	KindResponse   Kind = "Response"
	KindSay        Kind = "Say"
	KindPlay       Kind = "Play"
	KindPause      Kind = "Pause"
	KindRedirect   Kind = "Redirect"
	KindHangup     Kind = "Hangup"
	KindReject     Kind = "Reject"
	KindGather     Kind = "Gather"
	KindDial       Kind = "Dial"
	KindNumber     Kind = "Number"
	KindConference Kind = "Conference"
	KindRecord     Kind = "Record"
	KindSms        Kind = "Sms"
)

// Enumerated attribute values.
const (
	VoiceMan   = "man"
	VoiceWoman = "woman"

	LanguageEnglish = "en"
	LanguageSpanish = "es"
	LanguageFrench  = "fr"
	LanguageGerman  = "de"

	MethodGET  = "GET"
	MethodPOST = "POST"
)

// DefaultVersion is the API version stamped on a Response when none is given.
const DefaultVersion = "2010-04-01"

// nestables maps each container kind to the kinds it may hold, in the order
// they are listed in the dialect reference. Kinds absent from the map are leaves.
var nestables = map[Kind][]Kind{
	KindResponse: {KindSay, KindPlay, KindGather, KindRecord, KindDial, KindRedirect, KindPause, KindHangup, KindSms},
	KindGather:   {KindSay, KindPlay, KindPause},
	KindDial:     {KindNumber, KindConference},
}

var methods = []string{MethodGET, MethodPOST}

// enums lists, per kind, the attributes restricted to a fixed value set.
var enums = map[Kind]map[string][]string{
	KindSay: {
		"voice":    {VoiceMan, VoiceWoman},
		"language": {LanguageEnglish, LanguageSpanish, LanguageFrench, LanguageGerman},
	},
	KindRedirect:   {"method": methods},
	KindGather:     {"method": methods},
	KindDial:       {"method": methods},
	KindConference: {"waitMethod": methods},
	KindRecord:     {"method": methods},
	KindSms:        {"method": methods},
}

var kinds = []Kind{
	KindResponse, KindSay, KindPlay, KindPause, KindRedirect, KindHangup, KindReject,
	KindGather, KindDial, KindNumber, KindConference, KindRecord, KindSms,
}

// Kinds returns every element kind of the dialect.
func Kinds() []Kind {
	return slices.Clone(kinds)
}

// Valid reports whether k is a kind of the dialect.
func (k Kind) Valid() bool {
	return slices.Contains(kinds, k)
}

// Nestables returns the kinds k may contain; nil for leaves.
func (k Kind) Nestables() []Kind {
	return slices.Clone(nestables[k])
}

// IsLeaf reports whether k can hold no children.
func (k Kind) IsLeaf() bool {
	return len(nestables[k]) == 0
}

// CanContain reports whether child may be appended under k.
func (k Kind) CanContain(child Kind) bool {
	return slices.Contains(nestables[k], child)
}

func (k Kind) String() string {
	return string(k)
}
