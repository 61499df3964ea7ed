package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSID = "AC123"

type captured struct {
	method string
	path   string
	query  url.Values
	form   url.Values
	user   string
	pass   string
}

// newTestClient starts a server that records the last request and answers
// with handler.
func newTestClient(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*Client, *captured) {
	t.Helper()
	got := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		got.method = r.Method
		got.path = r.URL.Path
		got.query = r.URL.Query()
		got.form = r.PostForm
		got.user, got.pass, _ = r.BasicAuth()
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	c, err := New(testSID, "token", WithBaseURL(srv.URL))
	require.NoError(t, err)
	return c, got
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New("", "token")
	assert.ErrorIs(t, err, ErrNoCredentials)
	_, err = New(testSID, "")
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvAccountSID, "")
	t.Setenv(EnvAuthToken, "")
	_, err := FromEnv()
	assert.ErrorIs(t, err, ErrNoCredentials)

	t.Setenv(EnvAccountSID, testSID)
	t.Setenv(EnvAuthToken, "tok")
	c, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, testSID, c.AccountSID())
}

func TestResourceURIs(t *testing.T) {
	c, err := New(testSID, "token")
	require.NoError(t, err)

	assert.Equal(t, "/2010-04-01/Accounts", c.Accounts.URI())
	assert.Equal(t, "/2010-04-01/Accounts/AC123/Calls", c.Calls.URI())
	assert.Equal(t, "/2010-04-01/Accounts/AC123/SMS/Messages", c.Messages.URI())
	assert.Equal(t, "/2010-04-01/Accounts/AC123/IncomingPhoneNumbers", c.PhoneNumbers.URI())
	assert.Equal(t, "/2010-04-01/Accounts/AC123/OutgoingCallerIds", c.CallerIDs.URI())
	assert.Equal(t, "/2010-04-01/Accounts/AC123/Calls/CA1/Recordings", c.Calls.Recordings("CA1").URI())
	assert.Equal(t, "/2010-04-01/Accounts/AC123/Conferences/CF1/Participants", c.Conferences.Participants("CF1").URI())
	assert.Equal(t, "/2010-04-01/Accounts/AC123/Recordings/RE1/Transcriptions", c.Recordings.Transcriptions("RE1").URI())
}

func TestDoRejectsUnknownMethod(t *testing.T) {
	c, err := New(testSID, "token")
	require.NoError(t, err)
	_, err = c.Do(context.Background(), http.MethodPatch, "/x", nil, nil)
	assert.Error(t, err)
}

func TestGetCall(t *testing.T) {
	c, got := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"sid": "CA1", "status": "completed", "to": "+1555"})
	})

	call, err := c.Calls.Get(context.Background(), "CA1")
	require.NoError(t, err)
	assert.Equal(t, "CA1", call.SID)
	assert.Equal(t, CallCompleted, call.Status)
	assert.Equal(t, "+1555", call.To)

	assert.Equal(t, http.MethodGet, got.method)
	assert.Equal(t, "/2010-04-01/Accounts/AC123/Calls/CA1.json", got.path)
	assert.Equal(t, testSID, got.user)
	assert.Equal(t, "token", got.pass)
}

func TestErrorDecoding(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{"code": 20404, "message": "not found"})
	})

	_, err := c.Calls.Get(context.Background(), "CA404")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 20404, apiErr.Code)
	assert.Equal(t, "not found", apiErr.Message)
}

func TestErrorWithoutBody(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.Accounts.Get(context.Background(), testSID)
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "Internal Server Error", apiErr.Message)
	assert.False(t, IsNotFound(err))
}

func TestListCallsFilters(t *testing.T) {
	c, got := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"page": 0, "num_pages": 1, "page_size": 50, "total": 2,
			"calls": []map[string]any{{"sid": "CA1"}, {"sid": "CA2"}},
		})
	})

	day := time.Date(2011, 3, 4, 15, 0, 0, 0, time.UTC)
	p, err := c.Calls.List(context.Background(), CallFilter{
		From:          "+1555",
		StartedBefore: day,
		EndedAfter:    day,
	}, PageOptions{PageSize: 50})
	require.NoError(t, err)

	require.Len(t, p.Items, 2)
	assert.Equal(t, "CA2", p.Items[1].SID)
	assert.Equal(t, 2, p.Total)
	assert.Equal(t, 1, p.NumPages)

	assert.Equal(t, "+1555", got.query.Get("From"))
	assert.Equal(t, "2011-03-04", got.query.Get("StartTime<"))
	assert.Equal(t, "2011-03-04", got.query.Get("EndTime>"))
	assert.Equal(t, "50", got.query.Get("PageSize"))
	assert.Empty(t, got.query.Get("Page"))
	assert.Empty(t, got.query.Get("To"))
}

func TestPageMissingKey(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"page": 0, "num_pages": 1})
	})

	_, err := c.Messages.List(context.Background(), MessageFilter{}, PageOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sms_messages")
}

func TestAllWalksPages(t *testing.T) {
	var pages []string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("Page")
		pages = append(pages, page)
		n, _ := strconv.Atoi(page)
		writeJSON(w, http.StatusOK, map[string]any{
			"page": n, "num_pages": 3,
			"accounts": []map[string]any{{"sid": "AC" + strconv.Itoa(n)}},
		})
	})

	var sids []string
	for a, err := range c.Accounts.All(context.Background(), AccountFilter{}) {
		require.NoError(t, err)
		sids = append(sids, a.SID)
	}
	assert.Equal(t, []string{"AC0", "AC1", "AC2"}, sids)
	assert.Equal(t, []string{"", "1", "2"}, pages)
}

func TestAllStopsOnEmptyPage(t *testing.T) {
	calls := 0
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		items := []map[string]any{}
		if calls == 1 {
			items = append(items, map[string]any{"sid": "PN1"})
		}
		writeJSON(w, http.StatusOK, map[string]any{"incoming_phone_numbers": items})
	})

	var n int
	for _, err := range c.PhoneNumbers.All(context.Background(), NumberFilter{}) {
		require.NoError(t, err)
		n++
	}
	assert.Equal(t, 1, n)
	assert.Equal(t, 2, calls)
}

func TestAllSurfacesErrors(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	var errs int
	for _, err := range c.Calls.All(context.Background(), CallFilter{}) {
		assert.Error(t, err)
		errs++
	}
	assert.Equal(t, 1, errs)
}

func TestCount(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"total": 42, "calls": []any{}})
	})

	n, err := c.Calls.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, n)
}

func TestCreateCall(t *testing.T) {
	c, got := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]any{"sid": "CA9", "status": "queued"})
	})

	timeout := 0
	call, err := c.Calls.Create(context.Background(), CallParams{
		To:      "+1555",
		From:    "+1666",
		URL:     "https://example.com/voice",
		Timeout: &timeout,
	})
	require.NoError(t, err)
	assert.Equal(t, "CA9", call.SID)

	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/2010-04-01/Accounts/AC123/Calls.json", got.path)
	assert.Equal(t, "https://example.com/voice", got.form.Get("Url"))
	assert.Equal(t, "0", got.form.Get("Timeout"))
	assert.NotContains(t, got.form, "Method")
}

func TestCreateRequires201(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"sid": "SM1"})
	})

	_, err := c.Messages.Send(context.Background(), MessageParams{To: "+1", From: "+2", Body: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resource not created")
}

func TestHangupAndRoute(t *testing.T) {
	c, got := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"sid": "CA1"})
	})

	_, err := c.Calls.Hangup(context.Background(), "CA1")
	require.NoError(t, err)
	assert.Equal(t, CallCanceled, got.form.Get("Status"))
	assert.Equal(t, "/2010-04-01/Accounts/AC123/Calls/CA1.json", got.path)

	_, err = c.Calls.Route(context.Background(), "CA1", "https://example.com/next", "")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/next", got.form.Get("Url"))
	assert.Equal(t, "POST", got.form.Get("Method"))
}

func TestDelete(t *testing.T) {
	status := http.StatusNoContent
	c, got := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})

	ok, err := c.Recordings.Delete(context.Background(), "RE1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, http.MethodDelete, got.method)

	status = http.StatusOK
	ok, err = c.Conferences.Participants("CF1").Kick(context.Background(), "CA1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "/2010-04-01/Accounts/AC123/Conferences/CF1/Participants/CA1.json", got.path)
}

func TestParticipantsMute(t *testing.T) {
	c, got := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"call_sid": "CA1", "muted": true})
	})

	p, err := c.Conferences.Participants("CF1").Mute(context.Background(), "CA1")
	require.NoError(t, err)
	assert.True(t, p.Muted)
	assert.Equal(t, "true", got.form.Get("Muted"))

	_, err = c.Conferences.Participants("CF1").Unmute(context.Background(), "CA1")
	require.NoError(t, err)
	assert.Equal(t, "false", got.form.Get("Muted"))
}

func TestAccountStatusChanges(t *testing.T) {
	c, got := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"sid": "AC9"})
	})

	_, err := c.Accounts.Suspend(context.Background(), "AC9")
	require.NoError(t, err)
	assert.Equal(t, AccountSuspended, got.form.Get("Status"))
	assert.Equal(t, "/2010-04-01/Accounts/AC9.json", got.path)

	_, err = c.Accounts.Close(context.Background(), "AC9")
	require.NoError(t, err)
	assert.Equal(t, AccountClosed, got.form.Get("Status"))

	_, err = c.Accounts.Activate(context.Background(), "AC9")
	require.NoError(t, err)
	assert.Equal(t, AccountActive, got.form.Get("Status"))
}

func TestTransferNumber(t *testing.T) {
	c, got := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"sid": "PN1", "account_sid": "AC456"})
	})

	_, err := c.PhoneNumbers.Transfer(context.Background(), "PN1", "AC456")
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/2010-04-01/Accounts/AC123/IncomingPhoneNumbers/PN1.json", got.path)
	assert.Equal(t, "AC456", got.form.Get("AccountSid"))
}

func TestVersionAndHTTPClientOptions(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		writeJSON(w, http.StatusOK, map[string]any{"sid": "CA1"})
	}))
	t.Cleanup(srv.Close)

	c, err := New(testSID, "token",
		WithBaseURL(srv.URL),
		WithVersion("2008-08-01"),
		WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)

	_, err = c.Calls.Get(context.Background(), "CA1")
	require.NoError(t, err)
	assert.Equal(t, "/2008-08-01/Accounts/AC123/Calls/CA1.json", path)
}

func TestPurchaseRequiresNumberOrAreaCode(t *testing.T) {
	c, err := New(testSID, "token")
	require.NoError(t, err)
	_, err = c.PhoneNumbers.Purchase(context.Background(), NumberParams{FriendlyName: "x"})
	assert.ErrorIs(t, err, ErrNumberRequired)
}

func TestSearchAvailableNumbers(t *testing.T) {
	c, got := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"available_phone_numbers": []map[string]any{{"phone_number": "+14155551234", "region": "CA"}},
		})
	})

	nums, err := c.PhoneNumbers.Search(context.Background(), SearchParams{AreaCode: "415"})
	require.NoError(t, err)
	require.Len(t, nums, 1)
	assert.Equal(t, "+14155551234", nums[0].PhoneNumber)
	assert.Equal(t, "/2010-04-01/Accounts/AC123/AvailablePhoneNumbers/US/Local.json", got.path)
	assert.Equal(t, "415", got.query.Get("AreaCode"))
}

func TestValidateCallerID(t *testing.T) {
	c, got := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"phone_number": "+1555", "validation_code": "123456"})
	})

	v, err := c.CallerIDs.Validate(context.Background(), "+1555", "home", nil)
	require.NoError(t, err)
	assert.Equal(t, "123456", v.ValidationCode)
	assert.Equal(t, "home", got.form.Get("FriendlyName"))
	assert.NotContains(t, got.form, "CallDelay")
}
