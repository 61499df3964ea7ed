// Package twiml builds call-control markup documents.
//
// A document is a tree of Elements rooted at a Response. Each element kind has
// a fixed set of kinds it may contain (its nestable set); kinds with an empty
// set are leaves. Append enforces the table at the moment a child is added,
// and constructors validate enumerated attributes (voice, language, HTTP
// methods) before an element exists, so an invalid tree can never be built.
//
//	resp := twiml.NewResponse(twiml.ResponseOptions{})
//	g, err := resp.Gather(twiml.GatherOptions{Action: "/menu", NumDigits: twiml.Int(1)})
//	if err != nil {
//		return err
//	}
//	if _, err := g.Say("Press 1 for sales.", twiml.SayOptions{Voice: twiml.VoiceWoman}); err != nil {
//		return err
//	}
//	body := resp.Document()
//
// Serialization sorts attributes by name and never mutates the tree, so the
// same tree always produces byte-identical output. Trees are not safe for
// concurrent appends.
package twiml
