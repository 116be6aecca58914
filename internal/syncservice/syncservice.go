// Package syncservice defines the optional pluggable project-board sync
// hook (§6.2). The core functions identically when disabled; hook failures
// are logged and swallowed, never surfaced to the caller.
package syncservice

import "github.com/nodeforge/taskengine/internal/node"

// Service is a pluggable collaborator invoked around save/load. All
// operations are synchronous; the manager treats failures as best-effort.
type Service interface {
	// Enabled reports whether the hook should be consulted at all.
	Enabled() bool

	// SyncTask is called after a successful local save. It may populate
	// project_item_id / project_issue_number on root and returns the
	// resolved remote item ID (empty if unchanged).
	SyncTask(root node.Root) (remoteID string, err error)

	// PullTaskFields is called on load when GetProjectItemID is set. It
	// may mutate status/progress/domain/tags in place and reports whether
	// anything changed (the caller re-saves if so).
	PullTaskFields(root node.Root) (changed bool, err error)

	// Clone returns an independent instance for per-thread use.
	Clone() Service
}

// Noop is the default Service: disabled, and a no-op on every call.
type Noop struct{}

func (Noop) Enabled() bool                                        { return false }
func (Noop) SyncTask(node.Root) (string, error)                    { return "", nil }
func (Noop) PullTaskFields(node.Root) (bool, error)                { return false, nil }
func (Noop) Clone() Service                                        { return Noop{} }
