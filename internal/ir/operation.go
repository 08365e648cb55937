package ir

// OpKind names a journaled mutation.
type OpKind string

const (
	OpCreateRoot  OpKind = "create_root"
	OpCreateChild OpKind = "create_child"
	OpRemove      OpKind = "remove"
	OpUpdate      OpKind = "update"
	OpCopy        OpKind = "copy"
)

// Operation is one entry of the append-only mutation journal.
//
// Seq is the engine revision produced by the mutation. Ordering always
// uses Seq, never wall-clock time.
type Operation struct {
	ID     string           `json:"id"`
	Seq    int64            `json:"seq"`
	Kind   OpKind           `json:"kind"`
	NodeID int64            `json:"node_id"`
	Args   map[string]int64 `json:"args"`
}
