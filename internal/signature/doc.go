// Package signature authenticates inbound webhook requests from the telephony
// provider.
//
// The provider signs every callback it sends with the account's auth token.
// The signed string is the exact URL the provider requested followed by each
// form parameter, keys sorted ascending, each key immediately followed by its
// value:
//
//	https://example.com/voice?x=1 + "AccountSid" + "AC..." + "CallSid" + "CA..." + ...
//
// The string is MACed with HMAC-SHA1 and base64 encoded; the result arrives in
// the X-Twilio-Signature header. SHA-1 is part of the wire protocol and must
// not be changed.
//
// # Usage
//
//	v, err := signature.New(accountSID, authToken)
//	if err != nil {
//		return err
//	}
//	params := signature.FormParams(r.PostForm)
//	if !v.Validate(signature.RequestURL(r, publicBase), params, r.Header.Get(signature.Header)) {
//		http.Error(w, "forbidden", http.StatusForbidden)
//	}
//
// A mismatch is an ordinary outcome reported as false, never as an error.
package signature
