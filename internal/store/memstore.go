package store

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/roach88/treemngr/internal/ir"
)

// memState is the complete in-memory state. It is cloned on InTx so a failed
// transaction can be discarded wholesale.
type memState struct {
	nodes  map[int64]ir.Node
	nextID int64
	ops    []ir.Operation
}

func newMemState() *memState {
	return &memState{nodes: make(map[int64]ir.Node), nextID: 1}
}

func (s *memState) clone() *memState {
	return &memState{
		nodes:  maps.Clone(s.nodes),
		nextID: s.nextID,
		ops:    slices.Clone(s.ops),
	}
}

// MemStore is an in-memory Backend with the same semantics as Store:
// never-reused ids, cascading delete, id-ordered reads and all-or-nothing
// transactions.
//
// Thread-safety: all methods are safe for concurrent use. InTx holds the
// store lock for the duration of fn.
type MemStore struct {
	mu    sync.Mutex
	state *memState
}

var _ Backend = (*MemStore)(nil)

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{state: newMemState()}
}

// InTx runs fn against a clone of the state and installs the clone only if
// fn succeeds and ctx is still live.
func (m *MemStore) InTx(ctx context.Context, fn func(tx NodeStore) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	work := m.state.clone()
	if err := fn(memView{st: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.state = work
	return nil
}

func (m *MemStore) view() (memView, func()) {
	m.mu.Lock()
	return memView{st: m.state}, m.mu.Unlock
}

func (m *MemStore) FindByID(ctx context.Context, id int64) (ir.Node, error) {
	v, unlock := m.view()
	defer unlock()
	return v.FindByID(ctx, id)
}

func (m *MemStore) ExistsByID(ctx context.Context, id int64) (bool, error) {
	v, unlock := m.view()
	defer unlock()
	return v.ExistsByID(ctx, id)
}

func (m *MemStore) Save(ctx context.Context, n ir.Node) (ir.Node, error) {
	v, unlock := m.view()
	defer unlock()
	return v.Save(ctx, n)
}

func (m *MemStore) Delete(ctx context.Context, id int64) (int, error) {
	v, unlock := m.view()
	defer unlock()
	return v.Delete(ctx, id)
}

func (m *MemStore) FindRoot(ctx context.Context) (ir.Node, error) {
	v, unlock := m.view()
	defer unlock()
	return v.FindRoot(ctx)
}

func (m *MemStore) ExistsRoot(ctx context.Context) (bool, error) {
	v, unlock := m.view()
	defer unlock()
	return v.ExistsRoot(ctx)
}

func (m *MemStore) Count(ctx context.Context) (int64, error) {
	v, unlock := m.view()
	defer unlock()
	return v.Count(ctx)
}

func (m *MemStore) FindChildren(ctx context.Context, parentID int64) ([]ir.Node, error) {
	v, unlock := m.view()
	defer unlock()
	return v.FindChildren(ctx, parentID)
}

func (m *MemStore) ListNodes(ctx context.Context) ([]ir.Node, error) {
	v, unlock := m.view()
	defer unlock()
	return v.ListNodes(ctx)
}

func (m *MemStore) AppendOperation(ctx context.Context, op ir.Operation) (int64, error) {
	v, unlock := m.view()
	defer unlock()
	return v.AppendOperation(ctx, op)
}

// ReadOperations mirrors Store.ReadOperations.
func (m *MemStore) ReadOperations(ctx context.Context, limit int) ([]ir.Operation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ops := m.state.ops
	if limit > 0 && len(ops) > limit {
		ops = ops[len(ops)-limit:]
	}
	return slices.Clone(ops), nil
}

// LastSeq mirrors Store.LastSeq.
func (m *MemStore) LastSeq(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.state.ops) == 0 {
		return 0, nil
	}
	return m.state.ops[len(m.state.ops)-1].Seq, nil
}

// memView implements NodeStore over a memState without locking.
type memView struct {
	st *memState
}

func (v memView) FindByID(_ context.Context, id int64) (ir.Node, error) {
	n, ok := v.st.nodes[id]
	if !ok {
		return ir.Node{}, ErrNotFound
	}
	return copyNode(n), nil
}

func (v memView) ExistsByID(_ context.Context, id int64) (bool, error) {
	_, ok := v.st.nodes[id]
	return ok, nil
}

func (v memView) Save(_ context.Context, n ir.Node) (ir.Node, error) {
	if err := v.checkConstraints(n); err != nil {
		return ir.Node{}, err
	}
	if n.ID == 0 {
		n.ID = v.st.nextID
		v.st.nextID++
	} else if _, ok := v.st.nodes[n.ID]; !ok {
		return ir.Node{}, ErrNotFound
	}
	n = copyNode(n)
	v.st.nodes[n.ID] = n
	return copyNode(n), nil
}

func (v memView) Delete(_ context.Context, id int64) (int, error) {
	if _, ok := v.st.nodes[id]; !ok {
		return 0, ErrNotFound
	}

	byParent := v.childIndex()
	removed := 0
	queue := []int64{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		delete(v.st.nodes, cur)
		removed++
		queue = append(queue, byParent[cur]...)
	}
	return removed, nil
}

func (v memView) FindRoot(_ context.Context) (ir.Node, error) {
	for _, id := range v.sortedIDs() {
		if n := v.st.nodes[id]; n.IsRoot() {
			return copyNode(n), nil
		}
	}
	return ir.Node{}, ErrNotFound
}

func (v memView) ExistsRoot(ctx context.Context) (bool, error) {
	_, err := v.FindRoot(ctx)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (v memView) Count(_ context.Context) (int64, error) {
	return int64(len(v.st.nodes)), nil
}

func (v memView) FindChildren(_ context.Context, parentID int64) ([]ir.Node, error) {
	children := []ir.Node{}
	for _, id := range v.sortedIDs() {
		if n := v.st.nodes[id]; n.HasParent(parentID) {
			children = append(children, copyNode(n))
		}
	}
	return children, nil
}

func (v memView) ListNodes(_ context.Context) ([]ir.Node, error) {
	nodes := make([]ir.Node, 0, len(v.st.nodes))
	for _, id := range v.sortedIDs() {
		nodes = append(nodes, copyNode(v.st.nodes[id]))
	}
	return nodes, nil
}

func (v memView) AppendOperation(_ context.Context, op ir.Operation) (int64, error) {
	op.Seq = int64(len(v.st.ops)) + 1
	if len(v.st.ops) > 0 {
		op.Seq = v.st.ops[len(v.st.ops)-1].Seq + 1
	}
	op.Args = maps.Clone(op.Args)
	if op.Args == nil {
		op.Args = map[string]int64{}
	}
	v.st.ops = append(v.st.ops, op)
	return op.Seq, nil
}

// checkConstraints mirrors the SQLite schema: the parent must exist, a node
// cannot be its own parent and there is at most one root.
func (v memView) checkConstraints(n ir.Node) error {
	if n.Level < 0 {
		return fmt.Errorf("%w: negative level %d", ErrConstraint, n.Level)
	}
	if n.ParentID != nil {
		if *n.ParentID == n.ID {
			return fmt.Errorf("%w: node %d is its own parent", ErrConstraint, n.ID)
		}
		if _, ok := v.st.nodes[*n.ParentID]; !ok {
			return fmt.Errorf("%w: parent %d does not exist", ErrConstraint, *n.ParentID)
		}
		return nil
	}
	for id, other := range v.st.nodes {
		if id != n.ID && other.IsRoot() {
			return fmt.Errorf("%w: root %d already exists", ErrConstraint, id)
		}
	}
	return nil
}

func (v memView) sortedIDs() []int64 {
	return slices.Sorted(maps.Keys(v.st.nodes))
}

func (v memView) childIndex() map[int64][]int64 {
	idx := make(map[int64][]int64)
	for _, id := range v.sortedIDs() {
		if p := v.st.nodes[id].ParentID; p != nil {
			idx[*p] = append(idx[*p], id)
		}
	}
	return idx
}

// copyNode detaches n.ParentID so callers never alias stored state, which
// is shared between a memState and its clones.
func copyNode(n ir.Node) ir.Node {
	if n.ParentID != nil {
		n.ParentID = ir.ParentRef(*n.ParentID)
	}
	return n
}
