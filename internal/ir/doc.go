// Package ir provides the data model shared by every prodrule package.
//
// This package contains type definitions and their canonical encodings only.
// All other internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Values are plain strings compared by exact equality
//   - An unset variable is distinct from a variable set to ""
//   - Rule and pair order is significant and is never re-sorted
//   - All JSON tags use snake_case
package ir
