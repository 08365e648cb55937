package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
)

// Domain prefixes for content hashes.
// Version suffix enables future algorithm migration.
const (
	DomainTree  = "treemngr/tree/v1"
	DomainShape = "treemngr/shape/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// TreeDigest hashes the full content of a tree: ids, parents, values, sums
// and levels. Two stores with identical trees produce identical digests.
// An empty tree (nil) has a digest too.
func TreeDigest(t *TreeNode) (string, error) {
	data, err := MarshalCanonical(Snapshot(t))
	if err != nil {
		return "", fmt.Errorf("tree digest: %w", err)
	}
	return hashWithDomain(DomainTree, data), nil
}

// ShapeHash hashes only the shape and values of a subtree. Ids, sums and
// levels are ignored and sibling order does not matter, so a copied subtree
// has the same shape hash as its source.
func ShapeHash(t *TreeNode) (string, error) {
	if t == nil {
		return "", fmt.Errorf("shape hash: nil subtree")
	}
	children := make([]string, 0, len(t.Children))
	for _, c := range t.Children {
		h, err := ShapeHash(c)
		if err != nil {
			return "", err
		}
		children = append(children, h)
	}
	slices.Sort(children)

	data, err := MarshalCanonical(map[string]any{
		"value":    t.Value,
		"children": children,
	})
	if err != nil {
		return "", fmt.Errorf("shape hash: %w", err)
	}
	return hashWithDomain(DomainShape, data), nil
}

// Snapshot converts a tree to the map form used for canonical encoding.
// The root key is absent for an empty tree.
func Snapshot(t *TreeNode) map[string]any {
	out := map[string]any{"version": SnapshotVersion}
	if t != nil {
		out["root"] = snapshotNode(t)
	}
	return out
}

func snapshotNode(t *TreeNode) map[string]any {
	children := make([]any, 0, len(t.Children))
	for _, c := range t.Children {
		children = append(children, snapshotNode(c))
	}
	m := map[string]any{
		"id":       t.ID,
		"value":    t.Value,
		"sum":      t.Sum,
		"level":    t.Level,
		"children": children,
	}
	if t.ParentID != nil {
		m["parent_id"] = *t.ParentID
	}
	return m
}
