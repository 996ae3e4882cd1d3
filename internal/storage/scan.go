package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/graphmark/graphmark/internal/accm"
	"github.com/graphmark/graphmark/internal/document"
	"github.com/graphmark/graphmark/internal/enforce"
)

// ScanIterator is a lazy pull iterator over one bucket. Each candidate
// record passes read authorization before it is yielded; records that fail
// are skipped silently and the scan continues, so filtered records are
// invisible to the caller rather than errors. The caller may abandon the
// iterator between records; Close releases the underlying cursor.
type ScanIterator struct {
	ctx      context.Context
	store    *Store
	user     *enforce.UserContext
	database string
	typeName string

	// bypass is computed once at construction so the per-record check
	// disappears entirely for root, service accounts, and stewards.
	bypass bool

	rows    *sql.Rows
	current *Record
	err     error
	closed  bool
}

// Scan opens an iterator over the records of one database and type, in
// insertion order.
func (s *Store) Scan(ctx context.Context, database, typeName string, user *enforce.UserContext) (*ScanIterator, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, body FROM records WHERE database = ? AND type_name = ? ORDER BY seq`,
		database, typeName)
	if err != nil {
		return nil, fmt.Errorf("opening scan: %w", err)
	}

	return &ScanIterator{
		ctx:      ctx,
		store:    s,
		user:     user,
		database: database,
		typeName: typeName,
		bypass:   s.enforcer.Bypass(user, typeName),
		rows:     rows,
	}, nil
}

// Next advances to the next visible record. It returns false when the scan
// is exhausted or a cursor error occurred; Err distinguishes the two.
func (it *ScanIterator) Next() bool {
	if it.closed || it.err != nil {
		return false
	}

	for it.rows.Next() {
		var id, kind, body string
		if err := it.rows.Scan(&id, &kind, &body); err != nil {
			it.err = fmt.Errorf("reading scan row: %w", err)
			return false
		}

		doc, err := document.Decode([]byte(body))
		if err != nil {
			// A record that cannot be decoded cannot be authorized.
			// Skip it like any other denial.
			slog.Debug("skipping undecodable record", "id", id, "err", err)
			continue
		}

		if !it.bypass {
			allowed, err := it.store.enforcer.AuthorizeRead(it.ctx, it.database, it.typeName, doc, it.user)
			if err != nil || !allowed {
				// Per-record failures never abort the scan. The record
				// simply does not appear.
				slog.Debug("scan filtered record",
					"id", id, "user", it.user.Name, "err", err)
				continue
			}
		}

		it.current = &Record{
			ID:       id,
			Database: it.database,
			TypeName: it.typeName,
			Kind:     accm.GraphKind(kind),
			Doc:      doc,
		}
		return true
	}

	if err := it.rows.Err(); err != nil {
		it.err = fmt.Errorf("scan cursor: %w", err)
	}
	return false
}

// Record returns the record positioned by the last successful Next.
func (it *ScanIterator) Record() *Record {
	return it.current
}

// Err returns the first cursor error, if any. Authorization failures are
// never reported here.
func (it *ScanIterator) Err() error {
	return it.err
}

// Close releases the cursor. Safe to call more than once.
func (it *ScanIterator) Close() error {
	if it.closed {
		return nil
	}
	it.closed = true
	return it.rows.Close()
}
