// Package intent implements the intent processor: a single entry point
// that parses a tagged-union request, resolves its target, enforces
// strict-targeting and revision gates, applies the mutation through the
// manager, and shapes a response envelope carrying diffs, recovery hints,
// and suggestions. See spec §4.5.
package intent

import "github.com/nodeforge/taskengine/internal/node"

// Request is the tagged-union envelope every intent parses from. Only the
// fields relevant to a given intent are consulted; unused fields are
// ignored rather than rejected (forward-compatible payload).
type Request struct {
	Intent string `json:"intent"`

	Task   string `json:"task,omitempty"`
	Plan   string `json:"plan,omitempty"`
	Domain string `json:"domain,omitempty"`
	Path   string `json:"path,omitempty"`

	StepID     string   `json:"step_id,omitempty"`
	TaskNodeID string   `json:"task_node_id,omitempty"`
	Paths      []string `json:"paths,omitempty"`

	ExpectedTargetID string `json:"expected_target_id,omitempty"`
	StrictTargeting  bool   `json:"strict_targeting,omitempty"`
	ExpectedRevision *int   `json:"expected_revision,omitempty"`

	Kind      string   `json:"kind,omitempty"`
	Title     string   `json:"title,omitempty"`
	Parent    string   `json:"parent,omitempty"`
	Phase     string   `json:"phase,omitempty"`
	Component string   `json:"component,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	Priority  string   `json:"priority,omitempty"`

	IdempotencyKey string `json:"idempotency_key,omitempty"`

	Steps []StepSpec `json:"steps,omitempty"`

	Criteria []string `json:"criteria,omitempty"`
	Tests    []string `json:"tests,omitempty"`
	Blockers []string `json:"blockers,omitempty"`

	Checkpoints map[string]CheckpointInput `json:"checkpoints,omitempty"`
	Checks      []node.VerificationCheck   `json:"checks,omitempty"`
	Attachments []node.Attachment          `json:"attachments,omitempty"`

	VerificationOutcome string `json:"verification_outcome,omitempty"`

	Completed      *bool  `json:"completed,omitempty"`
	Force          bool   `json:"force,omitempty"`
	OverrideReason string `json:"override_reason,omitempty"`
	Note           string `json:"note,omitempty"`

	Blocked       *bool  `json:"blocked,omitempty"`
	BlockedReason string `json:"blocked_reason,omitempty"`

	DependsOn []string `json:"depends_on,omitempty"`

	Ops []PatchOp `json:"ops,omitempty"`

	Operations []Request `json:"operations,omitempty"`
	Atomic     *bool      `json:"atomic,omitempty"`

	DryRun  bool `json:"dry_run,omitempty"`
	Compact bool `json:"compact,omitempty"`
	Apply   bool `json:"apply,omitempty"`

	IncludeAll  bool   `json:"include_all,omitempty"`
	TasksLimit  int    `json:"tasks_limit,omitempty"`
	TasksCursor string `json:"tasks_cursor,omitempty"`
	TasksStatus string `json:"tasks_status,omitempty"`
	Subtree     string `json:"subtree,omitempty"`
}

// StepSpec is one item of a decompose request's steps array.
type StepSpec struct {
	Title    string   `json:"title"`
	Criteria []string `json:"criteria,omitempty"`
	Tests    []string `json:"tests,omitempty"`
	Blockers []string `json:"blockers,omitempty"`
}

// CheckpointInput is one entry of a verify request's checkpoints map.
type CheckpointInput struct {
	Confirmed *bool  `json:"confirmed,omitempty"`
	Note      string `json:"note,omitempty"`
}

// PatchOp is one operation of a patch request's ops array.
type PatchOp struct {
	Op    string `json:"op"` // set | append | remove
	Field string `json:"field"`
	Value string `json:"value,omitempty"`
}

// Suggestion is a next-action hint attached to every response (§4.6).
type Suggestion struct {
	Action string         `json:"action"`
	Title  string         `json:"title"`
	Params map[string]any `json:"params,omitempty"`
	Score  float64        `json:"score,omitempty"`
}

// TargetResolution records how the request's target was located.
type TargetResolution struct {
	Source     string `json:"source"` // explicit | paths | focus
	ResolvedID string `json:"resolved_id"`
	Domain     string `json:"domain"`
}

// Context is the response's informational envelope.
type Context struct {
	TargetResolution  TargetResolution `json:"target_resolution"`
	AutoStrictWrites  bool             `json:"auto_strict_writes,omitempty"`
	ActiveRootCount   int              `json:"active_root_count,omitempty"`
}

// ErrorRecovery names the follow-up intent that would unblock the caller.
type ErrorRecovery struct {
	Action string         `json:"action"`
	Params map[string]any `json:"params,omitempty"`
}

// Response is the envelope returned by every call to Process (§6.3).
type Response struct {
	Success bool   `json:"success"`
	Intent  string `json:"intent"`
	Result  any    `json:"result,omitempty"`
	Context Context `json:"context"`

	Suggestions []Suggestion `json:"suggestions"`

	Revision *int `json:"revision,omitempty"`
	Event    *node.Event `json:"event,omitempty"`

	ErrorCode     string         `json:"error_code,omitempty"`
	ErrorMessage  string         `json:"error_message,omitempty"`
	ErrorRecovery *ErrorRecovery `json:"error_recovery,omitempty"`
}

func fail(req *Request, code, message string, recovery *ErrorRecovery) *Response {
	return &Response{
		Success:       false,
		Intent:        req.Intent,
		ErrorCode:     code,
		ErrorMessage:  message,
		ErrorRecovery: recovery,
		Suggestions:   nil,
	}
}

var mutatingIntents = map[string]bool{
	"create": true, "decompose": true, "task_add": true, "define": true,
	"task_define": true, "verify": true, "progress": true, "done": true,
	"delete": true, "complete": true, "note": true, "block": true,
	"patch": true, "edit": true, "batch": true, "undo": true, "redo": true,
	"close_task": true,
}

func isMutating(i string) bool { return mutatingIntents[i] }
