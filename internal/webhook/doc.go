// Package webhook serves the callback endpoints the telephony provider
// invokes for calls and messages.
//
// Every request must carry an X-Twilio-Signature header: the base64
// HMAC-SHA1, keyed with the account auth token, of the full request URL
// followed by the POST fields sorted by name, each as name then value.
//
// # Security Model
//
// - Signatures compared in constant time
// - Body size limits enforced before the form is parsed
// - No signature details leaked in error responses (always generic 403)
// - Request logging excludes form contents
//
// # Configuration
//
//	account:
//	  auth_token: ${TWILIO_AUTH_TOKEN}
//	webhooks:
//	  listen: "127.0.0.1:8081"
//	  public_base_url: https://hooks.example.com
//	  endpoints:
//	    - path: /voice
//	      name: voice
//	      plan:
//	        - say: Thanks for calling.
//	        - gather:
//	            num_digits: 1
//	            action: /menu
//	            steps:
//	              - say: Press one for sales.
//	    - path: /sms
//	      response: <Response><Sms>Got it.</Sms></Response>
//
// # Request Flow
//
//  1. GET or POST arrives at a configured path
//  2. Body size checked (reject with 413 if too large)
//  3. Signature header extracted (reject with 403 if missing)
//  4. Signature validated over the public URL and form fields (403 on mismatch)
//  5. Delivery recorded (500 if the store fails)
//  6. 200 returned with the endpoint's markup document
//
// # Error Responses
//
// - 403 Forbidden: Invalid or missing signature (no details)
// - 404 Not Found: Unknown webhook path
// - 413 Payload Too Large: Body exceeds max_body_size
// - 500 Internal Server Error: Delivery could not be recorded
package webhook
