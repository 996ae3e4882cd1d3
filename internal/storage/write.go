package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/graphmark/graphmark/internal/accm"
	"github.com/graphmark/graphmark/internal/document"
	"github.com/graphmark/graphmark/internal/enforce"
)

// Insert validates and marks the record's document, then commits it. A
// validator error aborts the transaction and nothing is written. The
// marking mutation happens before serialization, so the stored body
// carries the stamped flag.
func (s *Store) Insert(ctx context.Context, rec *Record, user *enforce.UserContext) error {
	return s.write(ctx, rec, user, accm.ActionCreate)
}

// Update revalidates and re-marks the document, then replaces the stored
// body.
func (s *Store) Update(ctx context.Context, rec *Record, user *enforce.UserContext) error {
	return s.write(ctx, rec, user, accm.ActionUpdate)
}

func (s *Store) write(ctx context.Context, rec *Record, user *enforce.UserContext, action accm.Action) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	if err := s.enforcer.ValidateMarkings(ctx, rec.Database, rec.TypeName, rec.Doc, user, action); err != nil {
		return fmt.Errorf("validating markings: %w", err)
	}

	body, err := document.Marshal(rec.Doc)
	if err != nil {
		return fmt.Errorf("serializing document: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx,
		`UPDATE sequence SET seq = seq + 1 WHERE id = 1 RETURNING seq`).Scan(&seq); err != nil {
		return fmt.Errorf("advancing sequence: %w", err)
	}

	switch action {
	case accm.ActionCreate:
		_, err = tx.ExecContext(ctx,
			`INSERT INTO records (id, database, type_name, kind, body, seq) VALUES (?, ?, ?, ?, ?, ?)`,
			rec.ID, rec.Database, rec.TypeName, string(rec.Kind), string(body), seq)
	case accm.ActionUpdate:
		_, err = tx.ExecContext(ctx,
			`UPDATE records SET body = ?, seq = ? WHERE id = ? AND database = ? AND type_name = ?`,
			string(body), seq, rec.ID, rec.Database, rec.TypeName)
	default:
		return fmt.Errorf("unsupported write action %s", action)
	}
	if err != nil {
		return fmt.Errorf("writing record: %w", err)
	}

	return tx.Commit()
}

// Delete removes a record after delete authorization. The stored body is
// loaded first so the restriction evaluates the persisted classification,
// not caller-supplied state.
func (s *Store) Delete(ctx context.Context, database, typeName, id string, user *enforce.UserContext) error {
	rec, err := s.load(ctx, database, typeName, id)
	if err != nil {
		return err
	}

	allowed, err := s.enforcer.AuthorizeDelete(ctx, database, typeName, rec.Doc, user)
	if err != nil {
		return err
	}
	if !allowed {
		return accm.NewNotAuthorized(database, typeName, accm.ActionDelete)
	}

	_, err = s.db.ExecContext(ctx,
		`DELETE FROM records WHERE id = ? AND database = ? AND type_name = ?`,
		id, database, typeName)
	if err != nil {
		return fmt.Errorf("deleting record: %w", err)
	}
	return nil
}

// Get fetches one record through read authorization. Denial surfaces as an
// explicit error on the single-record path, unlike scan filtering.
func (s *Store) Get(ctx context.Context, database, typeName, id string, user *enforce.UserContext) (*Record, error) {
	rec, err := s.load(ctx, database, typeName, id)
	if err != nil {
		return nil, err
	}

	allowed, err := s.enforcer.AuthorizeRead(ctx, database, typeName, rec.Doc, user)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, accm.NewNotAuthorized(database, typeName, accm.ActionRead)
	}
	return rec, nil
}

// load fetches and decodes a record without authorization.
func (s *Store) load(ctx context.Context, database, typeName, id string) (*Record, error) {
	var kind, body string
	err := s.db.QueryRowContext(ctx,
		`SELECT kind, body FROM records WHERE id = ? AND database = ? AND type_name = ?`,
		id, database, typeName).Scan(&kind, &body)
	if err != nil {
		return nil, fmt.Errorf("loading record %s: %w", id, err)
	}

	doc, err := document.Decode([]byte(body))
	if err != nil {
		return nil, fmt.Errorf("decoding record %s: %w", id, err)
	}
	return &Record{
		ID:       id,
		Database: database,
		TypeName: typeName,
		Kind:     accm.GraphKind(kind),
		Doc:      doc,
	}, nil
}
