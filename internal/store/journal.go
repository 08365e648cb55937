package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/roach88/treemngr/internal/ir"
)

// AppendOperation writes a journal entry and returns its seq.
//
// The seq is computed inside the INSERT, so concurrent writers serialized by
// SQLite's write lock always get distinct, increasing values. op.Seq is
// ignored. Args are serialized to canonical JSON.
func (s queries) AppendOperation(ctx context.Context, op ir.Operation) (int64, error) {
	argsJSON, err := marshalArgs(op.Args)
	if err != nil {
		return 0, fmt.Errorf("append operation: %w", err)
	}

	var seq int64
	err = s.q.QueryRowContext(ctx, `
		INSERT INTO operations (seq, id, kind, node_id, args)
		VALUES ((SELECT COALESCE(MAX(seq), 0) + 1 FROM operations), ?, ?, ?, ?)
		RETURNING seq
	`, op.ID, string(op.Kind), op.NodeID, argsJSON).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("append operation: %w", err)
	}
	return seq, nil
}

// ReadOperations returns the newest limit journal entries in ascending seq
// order. A limit <= 0 returns the whole journal.
func (s queries) ReadOperations(ctx context.Context, limit int) ([]ir.Operation, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.q.QueryContext(ctx, `
		SELECT seq, id, kind, node_id, args FROM (
			SELECT seq, id, kind, node_id, args
			FROM operations
			ORDER BY seq DESC
			LIMIT ?
		)
		ORDER BY seq ASC
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query operations: %w", err)
	}
	defer rows.Close()

	ops := []ir.Operation{}
	for rows.Next() {
		var (
			op       ir.Operation
			kind     string
			argsJSON string
		)
		if err := rows.Scan(&op.Seq, &op.ID, &kind, &op.NodeID, &argsJSON); err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}
		op.Kind = ir.OpKind(kind)
		if op.Args, err = unmarshalArgs(argsJSON); err != nil {
			return nil, fmt.Errorf("operation %d: %w", op.Seq, err)
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate operations: %w", err)
	}
	return ops, nil
}

// LastSeq returns the highest journal seq, or 0 for an empty journal.
// Used to resume the engine's revision clock.
func (s queries) LastSeq(ctx context.Context) (int64, error) {
	var seq int64
	if err := s.q.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM operations`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq, nil
}

// marshalArgs converts operation args to canonical JSON TEXT for storage.
func marshalArgs(args map[string]int64) (string, error) {
	if args == nil {
		return "{}", nil
	}
	data, err := ir.MarshalCanonical(args)
	if err != nil {
		return "", fmt.Errorf("marshal args: %w", err)
	}
	return string(data), nil
}

// unmarshalArgs parses stored args. Integers decode directly into int64 so
// large values keep full precision.
func unmarshalArgs(data string) (map[string]int64, error) {
	args := map[string]int64{}
	if data == "" || data == "{}" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(data), &args); err != nil {
		return nil, fmt.Errorf("unmarshal args: %w", err)
	}
	return args, nil
}
