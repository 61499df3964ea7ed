// Package delivery keeps a SQLite log of webhook deliveries. Repeated
// deliveries of the same signed request inside the dedupe window are kept
// but flagged as duplicates.
package delivery

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/mattjoyce/switchboard/internal/signature"
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store is a delivery log backed by the deliveries table.
type Store struct {
	db        *sql.DB
	dedupeTTL time.Duration
	now       func() time.Time
}

// Option customizes a Store.
type Option func(*Store)

// WithDedupeTTL sets how long a delivery's dedupe key suppresses repeats.
// Zero disables duplicate detection.
func WithDedupeTTL(d time.Duration) Option {
	return func(s *Store) { s.dedupeTTL = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New returns a Store over a database prepared by storage.OpenSQLite.
func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{db: db, dedupeTTL: 24 * time.Hour, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DedupeKey identifies a signed request: the BLAKE3 hash of the endpoint
// and the string the provider signed.
func DedupeKey(endpoint, url string, params map[string]string) string {
	sum := blake3.Sum256([]byte(endpoint + "\n" + signature.SigningString(url, params)))
	return hex.EncodeToString(sum[:])
}

// Record stores a delivery and returns its id.
func (s *Store) Record(ctx context.Context, req RecordRequest) (string, error) {
	if req.Endpoint == "" {
		return "", fmt.Errorf("endpoint is empty")
	}

	id := uuid.NewString()
	now := s.now().UTC()
	key := DedupeKey(req.Endpoint, req.URL, req.Params)

	params := req.Params
	if params == nil {
		params = map[string]string{}
	}
	payload, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("encode params: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	duplicate := 0
	if s.dedupeTTL > 0 {
		cutoff := now.Add(-s.dedupeTTL).Format(timeLayout)
		var one int
		err := tx.QueryRowContext(ctx, `
SELECT 1 FROM deliveries
WHERE dedupe_key = ? AND received_at >= ?
LIMIT 1;
`, key, cutoff).Scan(&one)
		switch {
		case err == nil:
			duplicate = 1
		case !errors.Is(err, sql.ErrNoRows):
			return "", fmt.Errorf("check dedupe key: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO deliveries(
  id, endpoint, call_sid, message_sid, status, from_number, to_number, params, dedupe_key, duplicate, received_at
)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`, id, req.Endpoint,
		nullable(params["CallSid"]),
		nullable(firstOf(params, "MessageSid", "SmsSid")),
		nullable(firstOf(params, "CallStatus", "SmsStatus", "MessageStatus")),
		nullable(params["From"]),
		nullable(params["To"]),
		string(payload), key, duplicate, now.Format(timeLayout))
	if err != nil {
		return "", fmt.Errorf("insert delivery: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit delivery: %w", err)
	}
	return id, nil
}

// Get returns a delivery by id.
func (s *Store) Get(ctx context.Context, id string) (*Delivery, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM deliveries WHERE id = ?;`, id)
	d, err := scanDelivery(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get delivery: %w", err)
	}
	return d, nil
}

// List returns deliveries matching f, newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]Delivery, error) {
	var (
		where []string
		args  []any
	)
	if f.Endpoint != "" {
		where = append(where, "endpoint = ?")
		args = append(args, f.Endpoint)
	}
	if f.CallSID != "" {
		where = append(where, "call_sid = ?")
		args = append(args, f.CallSID)
	}
	if !f.Since.IsZero() {
		where = append(where, "received_at >= ?")
		args = append(args, f.Since.UTC().Format(timeLayout))
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := `SELECT ` + columns + ` FROM deliveries`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY received_at DESC, rowid DESC LIMIT ?;`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	defer rows.Close()

	var out []Delivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// Prune deletes deliveries older than retention and returns how many were removed.
func (s *Store) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, fmt.Errorf("retention must be positive")
	}
	cutoff := s.now().UTC().Add(-retention).Format(timeLayout)
	res, err := s.db.ExecContext(ctx, `DELETE FROM deliveries WHERE received_at < ?;`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune deliveries: %w", err)
	}
	return res.RowsAffected()
}

const columns = `id, endpoint, call_sid, message_sid, status, from_number, to_number, params, dedupe_key, duplicate, received_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanDelivery(row scanner) (*Delivery, error) {
	var (
		d           Delivery
		callSID     sql.NullString
		messageSID  sql.NullString
		status      sql.NullString
		from        sql.NullString
		to          sql.NullString
		params      string
		duplicate   int
		receivedAtS string
	)
	if err := row.Scan(&d.ID, &d.Endpoint, &callSID, &messageSID, &status, &from, &to,
		&params, &d.DedupeKey, &duplicate, &receivedAtS); err != nil {
		return nil, err
	}

	d.CallSID = callSID.String
	d.MessageSID = messageSID.String
	d.Status = status.String
	d.From = from.String
	d.To = to.String
	d.Duplicate = duplicate != 0
	if t, err := time.Parse(timeLayout, receivedAtS); err == nil {
		d.ReceivedAt = t
	}
	if err := json.Unmarshal([]byte(params), &d.Params); err != nil {
		return nil, fmt.Errorf("decode params: %w", err)
	}
	return &d, nil
}

func firstOf(params map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := params[k]; v != "" {
			return v
		}
	}
	return ""
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
