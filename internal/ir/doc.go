// Package ir provides the value types shared by every treemngr package.
//
// This package contains type definitions and pure functions only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - NO float types anywhere - node values and sums are int64
//   - All JSON tags use snake_case
//   - Children are never stored on a Node; TreeNode is a derived view
//   - Canonical JSON (RFC 8785) is the only encoding used for hashing and
//     golden snapshots
package ir
