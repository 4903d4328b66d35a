package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/roach88/gatekit/internal/canon"
	"github.com/roach88/gatekit/internal/op"
)

// OperationRecord summarises a stored operation.
type OperationRecord struct {
	Fingerprint string
	Name        string
	NumQubits   int
	NumClbits   int
	Kind        string
	Seq         int64
}

// SaveOperation stores o's canonical document under its fingerprint.
// Returns the fingerprint and whether a new row was inserted. Saving an
// operation whose fingerprint is already present keeps the first document.
func (s *Store) SaveOperation(ctx context.Context, o *op.Operation) (fingerprint string, inserted bool, err error) {
	fingerprint, err = o.Fingerprint()
	if err != nil {
		return "", false, fmt.Errorf("save operation %s: %w", o.Name(), err)
	}
	doc, err := o.Document()
	if err != nil {
		return "", false, fmt.Errorf("save operation %s: %w", o.Name(), err)
	}
	data, err := canon.Marshal(doc)
	if err != nil {
		return "", false, fmt.Errorf("save operation %s: %w", o.Name(), err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", false, fmt.Errorf("save operation: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	seq, err := nextSeq(ctx, tx, "operations")
	if err != nil {
		return "", false, fmt.Errorf("save operation: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO operations
		(fingerprint, name, num_qubits, num_clbits, kind, document, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(fingerprint) DO NOTHING
	`,
		fingerprint,
		o.Name(),
		o.NumQubits(),
		o.NumClbits(),
		o.Kind().String(),
		string(data),
		seq,
	)
	if err != nil {
		return "", false, fmt.Errorf("save operation: insert: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return "", false, fmt.Errorf("save operation: rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", false, fmt.Errorf("save operation: commit: %w", err)
	}
	return fingerprint, rows > 0, nil
}

// LoadOperation decodes the operation stored under fingerprint. Builtin
// steps are rebuilt with resolver; pass nil to decode them as opaque.
// Returns sql.ErrNoRows if not found.
func (s *Store) LoadOperation(ctx context.Context, fingerprint string, resolver op.Resolver) (*op.Operation, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `
		SELECT document FROM operations WHERE fingerprint = ?
	`, fingerprint).Scan(&data)
	if err != nil {
		return nil, fmt.Errorf("load operation %s: %w", fingerprint, err)
	}

	doc, err := unmarshalDocument(data)
	if err != nil {
		return nil, fmt.Errorf("load operation %s: %w", fingerprint, err)
	}
	var opts []op.DecodeOption
	if resolver != nil {
		opts = append(opts, op.WithBuiltins(resolver))
	}
	o, err := op.DecodeDocument(doc, opts...)
	if err != nil {
		return nil, fmt.Errorf("load operation %s: %w", fingerprint, err)
	}
	return o, nil
}

// ListOperations returns every stored operation in insertion order.
// Returns an empty slice (not nil) if the library is empty.
func (s *Store) ListOperations(ctx context.Context) ([]OperationRecord, error) {
	return s.queryOperations(ctx, `
		SELECT fingerprint, name, num_qubits, num_clbits, kind, seq
		FROM operations
		ORDER BY seq ASC, fingerprint COLLATE BINARY ASC
	`)
}

// FindOperations returns the stored operations named name in insertion order.
func (s *Store) FindOperations(ctx context.Context, name string) ([]OperationRecord, error) {
	return s.queryOperations(ctx, `
		SELECT fingerprint, name, num_qubits, num_clbits, kind, seq
		FROM operations
		WHERE name = ?
		ORDER BY seq ASC, fingerprint COLLATE BINARY ASC
	`, name)
}

func (s *Store) queryOperations(ctx context.Context, query string, args ...any) ([]OperationRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query operations: %w", err)
	}
	defer rows.Close()

	var records []OperationRecord
	for rows.Next() {
		var r OperationRecord
		if err := rows.Scan(&r.Fingerprint, &r.Name, &r.NumQubits, &r.NumClbits, &r.Kind, &r.Seq); err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate operations: %w", err)
	}

	if records == nil {
		records = []OperationRecord{}
	}
	return records, nil
}

// nextSeq returns one past the largest seq in table.
func nextSeq(ctx context.Context, tx *sql.Tx, table string) (int64, error) {
	var seq int64
	query := fmt.Sprintf("SELECT COALESCE(MAX(seq), 0) + 1 FROM %s", table)
	if err := tx.QueryRowContext(ctx, query).Scan(&seq); err != nil {
		return 0, fmt.Errorf("next seq for %s: %w", table, err)
	}
	return seq, nil
}

// unmarshalDocument parses a stored document, keeping numbers exact.
func unmarshalDocument(data string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	return doc, nil
}
