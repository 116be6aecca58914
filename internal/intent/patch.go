package intent

import (
	"time"

	"github.com/nodeforge/taskengine/internal/manager"
	"github.com/nodeforge/taskengine/internal/node"
)

// FieldDiff is one changed field in a patch preview/result.
type FieldDiff struct {
	Field string `json:"field"`
	From  any    `json:"from"`
	To    any    `json:"to"`
}

// LifecycleDiff reports a status transition triggered by a patch.
type LifecycleDiff struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// LifecycleDiffState nests LifecycleDiff under the `lifecycle_status` key
// the spec requires: diff.state.lifecycle_status = {from, to}.
type LifecycleDiffState struct {
	LifecycleStatus *LifecycleDiff `json:"lifecycle_status,omitempty"`
}

// PatchDiff is the result.diff payload of a patch/close_task response.
type PatchDiff struct {
	Fields []FieldDiff         `json:"fields"`
	State  *LifecycleDiffState `json:"state,omitempty"`
}

// patchableListField returns the named root-level []string field of a
// task, or nil if the field name isn't a recognized patchable list.
func patchableListField(t *node.Task, field string) *[]string {
	switch field {
	case "success_criteria":
		return &t.SuccessCriteria
	case "risks":
		return &t.Risks
	case "problems":
		return &t.Problems
	case "next_steps":
		return &t.NextSteps
	case "history":
		return &t.History
	case "tags":
		return &t.Tags
	case "depends_on":
		return &t.DependsOn
	default:
		return nil
	}
}

func doPatch(m *manager.Manager, req *Request) *Response {
	id, domain, root, failResp := gate(m, req)
	if failResp != nil {
		return failResp
	}
	task, isTask := asTask(root)
	if !isTask {
		return fail(req, "INVALID_TASK", "target is not a task", nil)
	}

	beforeStatus := task.ComputeStatus()
	var diff PatchDiff

	for _, op := range req.Ops {
		if op.Field == "force_complete_steps" {
			for _, s := range task.Steps {
				s.Completed = true
			}
			diff.Fields = append(diff.Fields, FieldDiff{Field: op.Field, From: false, To: true})
			continue
		}
		list := patchableListField(task, op.Field)
		if list == nil {
			return fail(req, "NO_FIELDS", "unknown patchable field: "+op.Field, nil)
		}
		before := append([]string{}, *list...)
		switch op.Op {
		case "set":
			*list = []string{op.Value}
		case "append":
			*list = append(*list, op.Value)
		case "remove":
			*list = removeValue(*list, op.Value)
		default:
			return fail(req, "NO_FIELDS", "unknown patch op: "+op.Op, nil)
		}
		diff.Fields = append(diff.Fields, FieldDiff{Field: op.Field, From: before, To: append([]string{}, *list...)})
	}

	afterStatus := task.ComputeStatus()
	if beforeStatus != afterStatus {
		diff.State = &LifecycleDiffState{LifecycleStatus: &LifecycleDiff{From: string(beforeStatus), To: string(afterStatus)}}
	}
	task.Status = afterStatus

	if req.DryRun {
		return ok(req, id, domain, "explicit", map[string]any{"diff": diff}, &task.Revision, nil, nil)
	}

	task.Updated = time.Now()
	if err := m.Save(task, "patch applied"); err != nil {
		return mgrFail(req, err)
	}
	task, _ = reload(m, id, domain)

	var suggestions []Suggestion
	if diff.State != nil && diff.State.LifecycleStatus != nil && diff.State.LifecycleStatus.From == string(node.StatusDone) {
		suggestions = append(suggestions, closeTaskSuggestion(id))
	}
	return ok(req, id, domain, "explicit", map[string]any{"diff": diff}, &task.Revision, nil, suggestions)
}

func removeValue(list []string, value string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != value {
			out = append(out, v)
		}
	}
	return out
}

