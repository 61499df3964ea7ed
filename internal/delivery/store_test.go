package delivery

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/mattjoyce/switchboard/internal/storage"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestStore(t *testing.T, opts ...Option) (*Store, *fakeClock) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "switchboard.db")
	db, err := storage.OpenSQLite(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	return New(db, append([]Option{WithClock(clock.now)}, opts...)...), clock
}

func voiceRequest(callSID string) RecordRequest {
	return RecordRequest{
		Endpoint: "voice",
		URL:      "https://example.com/voice",
		Params: map[string]string{
			"CallSid":    callSID,
			"CallStatus": "ringing",
			"From":       "+15551230000",
			"To":         "+15559870000",
		},
	}
}

func TestRecordAndGet(t *testing.T) {
	t.Parallel()
	s, clock := newTestStore(t)
	ctx := context.Background()

	id, err := s.Record(ctx, voiceRequest("CA1"))
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	d, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if d.Endpoint != "voice" || d.CallSID != "CA1" || d.Status != "ringing" {
		t.Fatalf("unexpected delivery: %#v", d)
	}
	if d.From != "+15551230000" || d.To != "+15559870000" {
		t.Fatalf("unexpected numbers: %#v", d)
	}
	if d.MessageSID != "" {
		t.Fatalf("MessageSID = %q, want empty", d.MessageSID)
	}
	if d.Params["CallSid"] != "CA1" {
		t.Fatalf("params not round-tripped: %v", d.Params)
	}
	if !d.ReceivedAt.Equal(clock.t) {
		t.Fatalf("ReceivedAt = %v, want %v", d.ReceivedAt, clock.t)
	}
	if d.Duplicate {
		t.Fatal("first delivery flagged as duplicate")
	}
	if d.DedupeKey != DedupeKey("voice", "https://example.com/voice", d.Params) {
		t.Fatal("dedupe key mismatch")
	}
}

func TestRecordMessageFields(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)
	ctx := context.Background()

	id, err := s.Record(ctx, RecordRequest{
		Endpoint: "sms",
		URL:      "https://example.com/sms",
		Params:   map[string]string{"SmsSid": "SM1", "SmsStatus": "received", "Body": "hi"},
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	d, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if d.MessageSID != "SM1" || d.Status != "received" || d.CallSID != "" {
		t.Fatalf("unexpected delivery: %#v", d)
	}
}

func TestRecordRequiresEndpoint(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)

	if _, err := s.Record(context.Background(), RecordRequest{}); err == nil {
		t.Fatal("expected error for empty endpoint")
	}
}

func TestGetNotFound(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)

	_, err := s.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get error = %v, want ErrNotFound", err)
	}
}

func TestRecordFlagsDuplicatesWithinTTL(t *testing.T) {
	t.Parallel()
	s, clock := newTestStore(t, WithDedupeTTL(time.Hour))
	ctx := context.Background()

	first, err := s.Record(ctx, voiceRequest("CA1"))
	if err != nil {
		t.Fatalf("Record 1: %v", err)
	}

	clock.t = clock.t.Add(30 * time.Minute)
	second, err := s.Record(ctx, voiceRequest("CA1"))
	if err != nil {
		t.Fatalf("Record 2: %v", err)
	}
	if first == second {
		t.Fatal("duplicate reused the id")
	}

	d, err := s.Get(ctx, second)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !d.Duplicate {
		t.Fatal("repeat within TTL should be a duplicate")
	}

	clock.t = clock.t.Add(2 * time.Hour)
	third, err := s.Record(ctx, voiceRequest("CA1"))
	if err != nil {
		t.Fatalf("Record 3: %v", err)
	}
	d, err = s.Get(ctx, third)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if d.Duplicate {
		t.Fatal("repeat after TTL should not be a duplicate")
	}
}

func TestRecordDifferentParamsAreNotDuplicates(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Record(ctx, voiceRequest("CA1")); err != nil {
		t.Fatalf("Record 1: %v", err)
	}
	id, err := s.Record(ctx, voiceRequest("CA2"))
	if err != nil {
		t.Fatalf("Record 2: %v", err)
	}
	d, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if d.Duplicate {
		t.Fatal("different call flagged as duplicate")
	}
}

func TestListFiltersAndOrder(t *testing.T) {
	t.Parallel()
	s, clock := newTestStore(t)
	ctx := context.Background()

	var ids []string
	for _, sid := range []string{"CA1", "CA2", "CA3"} {
		id, err := s.Record(ctx, voiceRequest(sid))
		if err != nil {
			t.Fatalf("Record %s: %v", sid, err)
		}
		ids = append(ids, id)
		clock.t = clock.t.Add(time.Minute)
	}
	sms := RecordRequest{Endpoint: "sms", URL: "https://example.com/sms", Params: map[string]string{"SmsSid": "SM1"}}
	if _, err := s.Record(ctx, sms); err != nil {
		t.Fatalf("Record sms: %v", err)
	}

	all, err := s.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 4 || all[0].Endpoint != "sms" {
		t.Fatalf("unexpected list: %#v", all)
	}

	voice, err := s.List(ctx, Filter{Endpoint: "voice", Limit: 2})
	if err != nil {
		t.Fatalf("List voice: %v", err)
	}
	if len(voice) != 2 || voice[0].ID != ids[2] || voice[1].ID != ids[1] {
		t.Fatalf("unexpected voice list: %#v", voice)
	}

	byCall, err := s.List(ctx, Filter{CallSID: "CA1"})
	if err != nil {
		t.Fatalf("List by call: %v", err)
	}
	if len(byCall) != 1 || byCall[0].ID != ids[0] {
		t.Fatalf("unexpected call list: %#v", byCall)
	}

	since, err := s.List(ctx, Filter{Since: time.Date(2026, 3, 1, 12, 2, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("List since: %v", err)
	}
	if len(since) != 2 {
		t.Fatalf("List since = %d rows, want 2", len(since))
	}
}

func TestPrune(t *testing.T) {
	t.Parallel()
	s, clock := newTestStore(t)
	ctx := context.Background()

	old, err := s.Record(ctx, voiceRequest("CA1"))
	if err != nil {
		t.Fatalf("Record old: %v", err)
	}
	clock.t = clock.t.Add(48 * time.Hour)
	fresh, err := s.Record(ctx, voiceRequest("CA2"))
	if err != nil {
		t.Fatalf("Record fresh: %v", err)
	}

	n, err := s.Prune(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if n != 1 {
		t.Fatalf("Prune removed %d rows, want 1", n)
	}
	if _, err := s.Get(ctx, old); !errors.Is(err, ErrNotFound) {
		t.Fatalf("old delivery still present: %v", err)
	}
	if _, err := s.Get(ctx, fresh); err != nil {
		t.Fatalf("fresh delivery removed: %v", err)
	}

	if _, err := s.Prune(ctx, 0); err == nil {
		t.Fatal("expected error for zero retention")
	}
}
