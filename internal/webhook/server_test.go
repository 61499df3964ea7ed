package webhook

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/switchboard/internal/delivery"
	"github.com/mattjoyce/switchboard/internal/signature"
	"github.com/mattjoyce/switchboard/internal/twiml"
	"github.com/mattjoyce/switchboard/internal/webhook/mocks"
)

const testToken = "12345"

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func testValidator(t *testing.T) *signature.Validator {
	t.Helper()
	v, err := signature.New("AC123", testToken)
	require.NoError(t, err)
	return v
}

func voiceDocument() *twiml.Element {
	doc := twiml.NewResponse(twiml.ResponseOptions{})
	twiml.Must(doc.Say("hello", twiml.SayOptions{}))
	return doc
}

func newTestServer(t *testing.T, recorder DeliveryRecorder, cfg Config) *Server {
	t.Helper()
	if cfg.Endpoints == nil {
		cfg.Endpoints = []EndpointConfig{{Path: "/voice", Name: "voice", Document: voiceDocument(), MaxBodySize: 1024}}
	}
	return New(cfg, testValidator(t), recorder, testLogger())
}

func signedPost(t *testing.T, target string, form url.Values) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	sig := testValidator(t).Sign("http://example.com"+target, signature.FormParams(form))
	req.Header.Set(signature.Header, sig)
	return req
}

func TestHandleWebhook_ValidPost(t *testing.T) {
	ctrl := gomock.NewController(t)
	recorder := mocks.NewMockDeliveryRecorder(ctrl)

	form := url.Values{"CallSid": {"CA1"}, "From": {"+15551230000"}}
	recorder.EXPECT().Record(gomock.Any(), delivery.RecordRequest{
		Endpoint: "voice",
		URL:      "http://example.com/voice",
		Params:   map[string]string{"CallSid": "CA1", "From": "+15551230000"},
	}).Return("delivery-1", nil)

	server := newTestServer(t, recorder, Config{})
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, signedPost(t, "/voice", form))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, twiml.ContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, voiceDocument().Document(), rec.Body.String())
}

func TestHandleWebhook_ValidGet(t *testing.T) {
	ctrl := gomock.NewController(t)
	recorder := mocks.NewMockDeliveryRecorder(ctrl)

	target := "/voice?CallSid=CA2&Digits=1"
	recorder.EXPECT().Record(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req delivery.RecordRequest) (string, error) {
			assert.Equal(t, "http://example.com"+target, req.URL)
			assert.Equal(t, "CA2", req.Params["CallSid"])
			assert.Equal(t, "1", req.Params["Digits"])
			return "delivery-2", nil
		})

	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set(signature.Header, testValidator(t).Sign("http://example.com"+target, nil))

	rec := httptest.NewRecorder()
	newTestServer(t, recorder, Config{}).Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleWebhook_PublicBaseURL(t *testing.T) {
	ctrl := gomock.NewController(t)
	recorder := mocks.NewMockDeliveryRecorder(ctrl)
	recorder.EXPECT().Record(gomock.Any(), gomock.Any()).Return("delivery-3", nil)

	form := url.Values{"CallSid": {"CA3"}}
	req := httptest.NewRequest(http.MethodPost, "/voice", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(signature.Header, testValidator(t).Sign("https://hooks.example.net/voice", signature.FormParams(form)))

	rec := httptest.NewRecorder()
	newTestServer(t, recorder, Config{PublicBaseURL: "https://hooks.example.net/"}).Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleWebhook_MissingSignature(t *testing.T) {
	ctrl := gomock.NewController(t)
	recorder := mocks.NewMockDeliveryRecorder(ctrl)

	req := signedPost(t, "/voice", url.Values{"CallSid": {"CA1"}})
	req.Header.Del(signature.Header)

	rec := httptest.NewRecorder()
	newTestServer(t, recorder, Config{}).Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "forbidden")
}

func TestHandleWebhook_InvalidSignature(t *testing.T) {
	cases := map[string]func(r *http.Request){
		"wrong signature": func(r *http.Request) {
			r.Header.Set(signature.Header, "AAAAAAAAAAAAAAAAAAAAAAAAAAA=")
		},
		"signed for another host": func(r *http.Request) {
			r.Host = "attacker.example.com"
		},
	}
	for name, tamper := range cases {
		t.Run(name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			recorder := mocks.NewMockDeliveryRecorder(ctrl)

			req := signedPost(t, "/voice", url.Values{"CallSid": {"CA1"}})
			tamper(req)

			rec := httptest.NewRecorder()
			newTestServer(t, recorder, Config{}).Handler().ServeHTTP(rec, req)

			assert.Equal(t, http.StatusForbidden, rec.Code)
		})
	}
}

func TestHandleWebhook_TamperedBody(t *testing.T) {
	ctrl := gomock.NewController(t)
	recorder := mocks.NewMockDeliveryRecorder(ctrl)

	signedReq := signedPost(t, "/voice", url.Values{"CallSid": {"CA1"}})
	req := httptest.NewRequest(http.MethodPost, "/voice", strings.NewReader("CallSid=CA9"))
	req.Header.Set(signature.Header, signedReq.Header.Get(signature.Header))

	rec := httptest.NewRecorder()
	newTestServer(t, recorder, Config{}).Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandleWebhook_BodyTooLarge(t *testing.T) {
	ctrl := gomock.NewController(t)
	recorder := mocks.NewMockDeliveryRecorder(ctrl)

	form := url.Values{"Body": {strings.Repeat("x", 2048)}}
	rec := httptest.NewRecorder()
	newTestServer(t, recorder, Config{}).Handler().ServeHTTP(rec, signedPost(t, "/voice", form))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestHandleWebhook_RecorderFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	recorder := mocks.NewMockDeliveryRecorder(ctrl)
	recorder.EXPECT().Record(gomock.Any(), gomock.Any()).Return("", errors.New("disk full"))

	rec := httptest.NewRecorder()
	newTestServer(t, recorder, Config{}).Handler().ServeHTTP(rec, signedPost(t, "/voice", url.Values{"CallSid": {"CA1"}}))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "disk full")
}

func TestHandleWebhook_DefaultDocument(t *testing.T) {
	ctrl := gomock.NewController(t)
	recorder := mocks.NewMockDeliveryRecorder(ctrl)
	recorder.EXPECT().Record(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req delivery.RecordRequest) (string, error) {
			assert.Equal(t, "/sms", req.Endpoint)
			return "delivery-4", nil
		})

	server := newTestServer(t, recorder, Config{Endpoints: []EndpointConfig{{Path: "/sms"}}})
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, signedPost(t, "/sms", url.Values{"SmsSid": {"SM1"}}))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, twiml.XMLHeader+`<Response version="2010-04-01"/>`, rec.Body.String())
}

func TestHealthz(t *testing.T) {
	ctrl := gomock.NewController(t)
	server := newTestServer(t, mocks.NewMockDeliveryRecorder(ctrl), Config{})

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestUnknownPath(t *testing.T) {
	ctrl := gomock.NewController(t)
	server := newTestServer(t, mocks.NewMockDeliveryRecorder(ctrl), Config{})

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/other", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStartShutsDownOnCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	server := newTestServer(t, mocks.NewMockDeliveryRecorder(ctrl), Config{Listen: "127.0.0.1:0"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := server.Start(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
