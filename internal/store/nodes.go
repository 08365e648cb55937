package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/roach88/treemngr/internal/ir"
)

// querier is the subset of *sql.DB and *sql.Tx used by queries, so the same
// statements run inside and outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries implements NodeStore over a querier.
type queries struct {
	q querier
}

const nodeColumns = `id, parent_id, value, sum, level`

// FindByID retrieves a single node by ID.
// Returns ErrNotFound if the node does not exist.
func (s queries) FindByID(ctx context.Context, id int64) (ir.Node, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT `+nodeColumns+`
		FROM nodes
		WHERE id = ?
	`, id)

	n, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Node{}, ErrNotFound
	}
	if err != nil {
		return ir.Node{}, fmt.Errorf("find node %d: %w", id, err)
	}
	return n, nil
}

// ExistsByID reports whether a node with the given id exists.
func (s queries) ExistsByID(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := s.q.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM nodes WHERE id = ?)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check node %d: %w", id, err)
	}
	return exists, nil
}

// Save inserts or updates a node.
// A zero ID means insert; the assigned ID is set on the returned node.
func (s queries) Save(ctx context.Context, n ir.Node) (ir.Node, error) {
	if n.ID == 0 {
		result, err := s.q.ExecContext(ctx, `
			INSERT INTO nodes (parent_id, value, sum, level)
			VALUES (?, ?, ?, ?)
		`, nullableID(n.ParentID), n.Value, n.Sum, n.Level)
		if err != nil {
			return ir.Node{}, fmt.Errorf("insert node: %w", wrapConstraint(err))
		}
		id, err := result.LastInsertId()
		if err != nil {
			return ir.Node{}, fmt.Errorf("insert node: last insert id: %w", err)
		}
		n.ID = id
		return n, nil
	}

	result, err := s.q.ExecContext(ctx, `
		UPDATE nodes
		SET parent_id = ?, value = ?, sum = ?, level = ?
		WHERE id = ?
	`, nullableID(n.ParentID), n.Value, n.Sum, n.Level, n.ID)
	if err != nil {
		return ir.Node{}, fmt.Errorf("update node %d: %w", n.ID, wrapConstraint(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return ir.Node{}, fmt.Errorf("update node %d: rows affected: %w", n.ID, err)
	}
	if rows == 0 {
		return ir.Node{}, ErrNotFound
	}
	return n, nil
}

// Delete removes the node and every descendant.
//
// The subtree is collected with a recursive CTE and deleted in a single
// statement; cascade depth is not bounded by SQLite's trigger recursion
// limit.
func (s queries) Delete(ctx context.Context, id int64) (int, error) {
	result, err := s.q.ExecContext(ctx, `
		WITH RECURSIVE subtree(id) AS (
			SELECT id FROM nodes WHERE id = ?
			UNION ALL
			SELECT n.id FROM nodes n JOIN subtree ON n.parent_id = subtree.id
		)
		DELETE FROM nodes WHERE id IN (SELECT id FROM subtree)
	`, id)
	if err != nil {
		return 0, fmt.Errorf("delete node %d: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete node %d: rows affected: %w", id, err)
	}
	if rows == 0 {
		return 0, ErrNotFound
	}
	return int(rows), nil
}

// FindRoot returns the node with no parent.
// Returns ErrNotFound if the tree is empty.
func (s queries) FindRoot(ctx context.Context) (ir.Node, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT `+nodeColumns+`
		FROM nodes
		WHERE parent_id IS NULL
		ORDER BY id ASC
		LIMIT 1
	`)

	n, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Node{}, ErrNotFound
	}
	if err != nil {
		return ir.Node{}, fmt.Errorf("find root: %w", err)
	}
	return n, nil
}

// ExistsRoot reports whether a root node exists.
func (s queries) ExistsRoot(ctx context.Context) (bool, error) {
	var exists bool
	err := s.q.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM nodes WHERE parent_id IS NULL)`).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check root: %w", err)
	}
	return exists, nil
}

// Count returns the total number of nodes.
func (s queries) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM nodes`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count nodes: %w", err)
	}
	return count, nil
}

// FindChildren returns the direct children of parentID ordered by id.
// Returns an empty slice (not nil) for a leaf.
func (s queries) FindChildren(ctx context.Context, parentID int64) ([]ir.Node, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT `+nodeColumns+`
		FROM nodes
		WHERE parent_id = ?
		ORDER BY id ASC
	`, parentID)
	if err != nil {
		return nil, fmt.Errorf("query children of %d: %w", parentID, err)
	}
	return collectNodes(rows)
}

// ListNodes returns every node ordered by id.
// Returns an empty slice (not nil) for an empty store.
func (s queries) ListNodes(ctx context.Context) ([]ir.Node, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT `+nodeColumns+`
		FROM nodes
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query nodes: %w", err)
	}
	return collectNodes(rows)
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanNode(r rowScanner) (ir.Node, error) {
	var (
		n        ir.Node
		parentID sql.NullInt64
	)
	if err := r.Scan(&n.ID, &parentID, &n.Value, &n.Sum, &n.Level); err != nil {
		return ir.Node{}, err
	}
	if parentID.Valid {
		n.ParentID = ir.ParentRef(parentID.Int64)
	}
	return n, nil
}

func collectNodes(rows *sql.Rows) ([]ir.Node, error) {
	defer rows.Close()

	nodes := []ir.Node{}
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nodes: %w", err)
	}
	return nodes, nil
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

// wrapConstraint maps SQLite constraint failures (foreign key, single-root
// index, CHECK) onto ErrConstraint while keeping the driver message.
func wrapConstraint(err error) error {
	var se sqlite3.Error
	if errors.As(err, &se) && se.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("%w: %v", ErrConstraint, se)
	}
	return err
}
