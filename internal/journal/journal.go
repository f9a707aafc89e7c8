// Package journal keeps a local SQLite log of every scan resolved at this
// station.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Flyrell/gatepass/internal/hashutil"
	"github.com/Flyrell/gatepass/internal/member"
	"github.com/Flyrell/gatepass/internal/schedule"
	_ "modernc.org/sqlite"
)

// Entry is one resolved (or failed) scan.
type Entry struct {
	Ref      string
	At       time.Time
	Station  string
	Payload  string
	MemberID member.ID
	Name     string
	Outcome  string
	Recorded bool
	Error    string
}

// Store is a SQLite-backed journal.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the journal at path and runs migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	// a single connection keeps writes from the scan screen serialized
	db.SetMaxOpenConns(1)

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrating journal: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append stores e. A missing Ref or timestamp is filled in.
func (s *Store) Append(ctx context.Context, e Entry) error {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	if e.Ref == "" {
		e.Ref = hashutil.ScanRef(e.Station, e.Payload, e.At)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scans (ref, day, at, station, payload, member_id, name, outcome, recorded, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Ref, schedule.DayKey(e.At), e.At.UnixNano(), e.Station, e.Payload,
		e.MemberID.String(), e.Name, e.Outcome, e.Recorded, e.Error,
	)
	if err != nil {
		return fmt.Errorf("appending scan: %w", err)
	}
	return nil
}

// List returns the scans of day in the order they happened.
func (s *Store) List(ctx context.Context, day time.Time) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ref, at, station, payload, member_id, name, outcome, recorded, error
		 FROM scans WHERE day = ? ORDER BY seq`,
		schedule.DayKey(day),
	)
	if err != nil {
		return nil, fmt.Errorf("listing scans: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Entry
	for rows.Next() {
		var (
			e        Entry
			at       int64
			memberID string
		)
		if err := rows.Scan(&e.Ref, &at, &e.Station, &e.Payload, &memberID, &e.Name, &e.Outcome, &e.Recorded, &e.Error); err != nil {
			return nil, fmt.Errorf("reading scan: %w", err)
		}
		e.At = time.Unix(0, at).In(day.Location())
		e.MemberID = member.ID(memberID)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Recorded returns the members whose entry this station recorded on day.
func (s *Store) Recorded(ctx context.Context, day time.Time) ([]member.ID, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT member_id FROM scans WHERE day = ? AND recorded = 1 ORDER BY member_id`,
		schedule.DayKey(day),
	)
	if err != nil {
		return nil, fmt.Errorf("listing recorded entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []member.ID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, member.ID(id))
	}
	return ids, rows.Err()
}
