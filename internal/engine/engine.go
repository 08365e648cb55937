package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/roach88/treemngr/internal/ir"
	"github.com/roach88/treemngr/internal/store"
)

// OperationIDGenerator generates unique journal operation ids.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type OperationIDGenerator interface {
	Generate() string
}

// Engine is the tree engine.
//
// Thread-safety model:
//   - Mutations (CreateRoot, CreateChild, RemoveNode, UpdateNode,
//     CopySubtree): serialized by the write lock
//   - Reads (GetTree, Node, Ancestors, Verify, History): share the read lock
//   - Revision: lock-free
type Engine struct {
	mu     sync.RWMutex
	store  store.Backend
	clock  *Clock
	ids    OperationIDGenerator
	logger *slog.Logger
}

// Option allows configuration of engine parameters.
type Option func(*Engine)

// WithLogger sets the logger used for mutation diagnostics.
// Default: a logger that discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock sets the revision clock.
// Use NewClockAt(lastSeq) to continue the revision of an existing store.
func WithClock(c *Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithIDGenerator sets the journal operation id generator.
// Default: UUIDv7Generator.
func WithIDGenerator(g OperationIDGenerator) Option {
	return func(e *Engine) {
		if g != nil {
			e.ids = g
		}
	}
}

// New creates an Engine over the given store.
//
// The revision clock starts at 0 unless WithClock is given; use Resume to
// pick up the revision of a store that already has a journal.
func New(s store.Backend, opts ...Option) *Engine {
	e := &Engine{
		store:  s,
		clock:  NewClock(),
		ids:    UUIDv7Generator{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Resume creates an Engine whose revision continues from the store's
// journal. Options are applied after the clock is set, so WithClock still
// overrides it.
func Resume(ctx context.Context, s store.Backend, opts ...Option) (*Engine, error) {
	last, err := s.LastSeq(ctx)
	if err != nil {
		return nil, fmt.Errorf("resume engine: %w", err)
	}
	return New(s, append([]Option{WithClock(NewClockAt(last))}, opts...)...), nil
}

// Revision returns the seq of the last mutation this engine committed or
// resumed from. It increases by at least one per successful mutation.
func (e *Engine) Revision() int64 {
	return e.clock.Current()
}

// History returns the newest limit journal entries in ascending seq order.
// A limit <= 0 returns the whole journal.
func (e *Engine) History(ctx context.Context, limit int) ([]ir.Operation, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	ops, err := e.store.ReadOperations(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	return ops, nil
}

// mutation is the body of a mutating operation. It runs inside a store
// transaction and returns the node to report plus the journal args.
// A nil args map means nothing changed and nothing is journaled.
type mutation func(tx store.NodeStore) (ir.Node, map[string]int64, error)

// mutate runs fn under the write lock inside one store transaction and
// journals the result. Either everything fn wrote is committed together with
// its journal entry, or nothing is.
func (e *Engine) mutate(ctx context.Context, kind ir.OpKind, fn mutation) (ir.Node, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var (
		result ir.Node
		seq    int64
	)
	err := e.store.InTx(ctx, func(tx store.NodeStore) error {
		n, args, err := fn(tx)
		if err != nil {
			return err
		}
		result = n
		if args == nil {
			return nil
		}
		seq, err = tx.AppendOperation(ctx, ir.Operation{
			ID:     e.ids.Generate(),
			Kind:   kind,
			NodeID: n.ID,
			Args:   args,
		})
		return err
	})
	if err != nil {
		e.logFailure(kind, err)
		return ir.Node{}, err
	}
	if seq == 0 {
		return result, nil
	}

	rev := e.clock.Observe(seq)
	e.logger.Debug("mutation",
		"op", string(kind),
		"node_id", result.ID,
		"revision", rev,
	)
	return result, nil
}

func (e *Engine) logFailure(kind ir.OpKind, err error) {
	var te *TreeError
	if errors.As(err, &te) {
		e.logger.Debug("mutation rejected",
			"op", string(kind),
			"code", string(te.Code),
			"node_id", te.NodeID,
		)
		return
	}
	e.logger.Warn("mutation failed",
		"op", string(kind),
		"error", err,
	)
}

// findNode reads id and maps store.ErrNotFound to a NodeNotFound TreeError.
func findNode(ctx context.Context, s store.NodeStore, id int64) (ir.Node, error) {
	n, err := s.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ir.Node{}, NewNotFoundError(id)
	}
	if err != nil {
		return ir.Node{}, err
	}
	return n, nil
}
