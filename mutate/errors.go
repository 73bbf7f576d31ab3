// Package mutate is the structural editing API: every operation computes a
// minimal set of line edits and commits them as one atomic buffer
// transaction. Invalid operations are rejected synchronously with one of
// the sentinel errors below and leave the buffer untouched.
package mutate

import "errors"

var (
	// ErrStale indicates the node no longer matches the buffer: its line
	// moved or changed since the caller's parse. Re-parse and retry.
	ErrStale = errors.New("node is stale against the buffer")

	// ErrHasChildren indicates a delete on a non-leaf node. Deletion is
	// leaf-only; cascading deletes are the caller's explicit decision.
	ErrHasChildren = errors.New("node has children")

	// ErrHubBoundary indicates an outdent that would move a variant's
	// direct child past its hub's variant scope.
	ErrHubBoundary = errors.New("outdent would cross hub boundary")

	// ErrVariantScope indicates a structural edit that would detach a
	// variant line from its hub.
	ErrVariantScope = errors.New("operation would break variant scope")

	// ErrCannotIndent indicates an indent with no preceding sibling to
	// become the new parent.
	ErrCannotIndent = errors.New("no preceding sibling to indent under")

	// ErrCannotMove indicates a move with no sibling in that direction.
	ErrCannotMove = errors.New("no sibling to move past")

	// ErrCommonAsymmetry indicates a common child without an identical
	// counterpart under every sibling variant.
	ErrCommonAsymmetry = errors.New("common child is not mirrored across all variants")

	// ErrLastKey indicates removing a hub's last condition key while it
	// still has multiple values.
	ErrLastKey = errors.New("cannot remove last condition key with multiple values")

	// ErrDuplicateVariant indicates an edit that would leave two variants
	// with the same condition signature.
	ErrDuplicateVariant = errors.New("duplicate variant signature")

	// ErrNotVariant indicates a condition operation on a non-variant node.
	ErrNotVariant = errors.New("node is not a variant")

	// ErrNotHub indicates a hub operation on a non-hub node.
	ErrNotHub = errors.New("node is not a hub")

	// ErrOutsideTree indicates an edit that would touch the fenced stores
	// or the region past the separator.
	ErrOutsideTree = errors.New("edit outside the tree region")
)
