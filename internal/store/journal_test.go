package store

import (
	"context"
	"testing"

	"github.com/roach88/treemngr/internal/ir"
)

func TestAppendOperation_AssignsIncreasingSeq(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Backend) {
		ctx := context.Background()

		for i, kind := range []ir.OpKind{ir.OpCreateRoot, ir.OpCreateChild, ir.OpRemove} {
			seq, err := s.AppendOperation(ctx, ir.Operation{
				ID:     "op-" + string(kind),
				Seq:    100, // ignored
				Kind:   kind,
				NodeID: int64(i + 1),
			})
			if err != nil {
				t.Fatalf("AppendOperation(%s) failed: %v", kind, err)
			}
			if seq != int64(i+1) {
				t.Errorf("AppendOperation(%s) seq = %d, want %d", kind, seq, i+1)
			}
		}

		last, err := s.LastSeq(ctx)
		if err != nil {
			t.Fatalf("LastSeq() failed: %v", err)
		}
		if last != 3 {
			t.Errorf("LastSeq() = %d, want 3", last)
		}
	})
}

func TestLastSeq_Empty(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Backend) {
		last, err := s.LastSeq(context.Background())
		if err != nil {
			t.Fatalf("LastSeq() failed: %v", err)
		}
		if last != 0 {
			t.Errorf("LastSeq() on empty journal = %d, want 0", last)
		}
	})
}

func TestReadOperations_RoundTripsArgs(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Backend) {
		ctx := context.Background()

		op := ir.Operation{
			ID:     "op-1",
			Kind:   ir.OpUpdate,
			NodeID: 2,
			Args:   map[string]int64{"value": 1 << 60, "parent": 1},
		}
		if _, err := s.AppendOperation(ctx, op); err != nil {
			t.Fatalf("AppendOperation() failed: %v", err)
		}

		ops, err := s.ReadOperations(ctx, 0)
		if err != nil {
			t.Fatalf("ReadOperations() failed: %v", err)
		}
		if len(ops) != 1 {
			t.Fatalf("ReadOperations() returned %d ops, want 1", len(ops))
		}
		got := ops[0]
		if got.ID != "op-1" || got.Kind != ir.OpUpdate || got.NodeID != 2 || got.Seq != 1 {
			t.Errorf("ReadOperations()[0] = %+v", got)
		}
		if got.Args["value"] != 1<<60 || got.Args["parent"] != 1 {
			t.Errorf("args = %v, want full-precision round trip", got.Args)
		}
	})
}

func TestReadOperations_NilArgsBecomeEmpty(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Backend) {
		ctx := context.Background()

		if _, err := s.AppendOperation(ctx, ir.Operation{ID: "op-1", Kind: ir.OpRemove, NodeID: 1}); err != nil {
			t.Fatalf("AppendOperation() failed: %v", err)
		}
		ops, err := s.ReadOperations(ctx, 0)
		if err != nil {
			t.Fatalf("ReadOperations() failed: %v", err)
		}
		if ops[0].Args == nil || len(ops[0].Args) != 0 {
			t.Errorf("Args = %#v, want empty non-nil map", ops[0].Args)
		}
	})
}

func TestReadOperations_LimitKeepsNewestAscending(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Backend) {
		ctx := context.Background()

		for i := 1; i <= 5; i++ {
			op := ir.Operation{ID: "op-" + string(rune('a'+i)), Kind: ir.OpCreateChild, NodeID: int64(i)}
			if _, err := s.AppendOperation(ctx, op); err != nil {
				t.Fatalf("AppendOperation() failed: %v", err)
			}
		}

		ops, err := s.ReadOperations(ctx, 2)
		if err != nil {
			t.Fatalf("ReadOperations() failed: %v", err)
		}
		if len(ops) != 2 || ops[0].Seq != 4 || ops[1].Seq != 5 {
			t.Errorf("ReadOperations(2) seqs = %v, want [4 5]", seqs(ops))
		}

		all, err := s.ReadOperations(ctx, -1)
		if err != nil {
			t.Fatalf("ReadOperations(-1) failed: %v", err)
		}
		if len(all) != 5 {
			t.Errorf("ReadOperations(-1) returned %d ops, want 5", len(all))
		}
	})
}

func TestMarshalArgs(t *testing.T) {
	got, err := marshalArgs(map[string]int64{"value": 5, "parent": 1})
	if err != nil {
		t.Fatalf("marshalArgs() failed: %v", err)
	}
	if got != `{"parent":1,"value":5}` {
		t.Errorf("marshalArgs() = %s, want sorted keys", got)
	}

	got, err = marshalArgs(nil)
	if err != nil || got != "{}" {
		t.Errorf("marshalArgs(nil) = %q, %v", got, err)
	}
}

func seqs(ops []ir.Operation) []int64 {
	out := make([]int64, len(ops))
	for i, op := range ops {
		out[i] = op.Seq
	}
	return out
}
