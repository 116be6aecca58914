package intent

import (
	"time"

	"github.com/nodeforge/taskengine/internal/codec"
	"github.com/nodeforge/taskengine/internal/depgraph"
	"github.com/nodeforge/taskengine/internal/manager"
	"github.com/nodeforge/taskengine/internal/node"
	"github.com/nodeforge/taskengine/internal/state"
)

// Process is process_intent: the single entry point dispatching a Request
// over the full intent vocabulary. See spec §4.5. Mutating intents (other
// than batch/undo/redo, which manage the ring themselves) are wrapped with
// a before/after snapshot appended to the store's undo/redo history.
func Process(m *manager.Manager, req Request) *Response {
	if isMutating(req.Intent) && req.Intent != "batch" && req.Intent != "undo" && req.Intent != "redo" {
		return processWithHistory(m, req)
	}
	return dispatch(m, req)
}

func processWithHistory(m *manager.Manager, req Request) *Response {
	id := req.Task
	if id == "" {
		id = req.Plan
	}
	var before []byte
	if id != "" {
		if root, err := m.Repo().Load(id, req.Domain); err == nil {
			before, _ = codec.Serialize(root)
		}
	}

	resp := dispatch(m, req)

	if resp.Success && id != "" {
		if root, err := m.Repo().Load(id, req.Domain); err == nil {
			after, _ := codec.Serialize(root)
			domain := root.GetDomain()
			_ = state.Append(m.Repo().Root(), state.HistoryEntry{
				RootID: id, Domain: domain, Intent: req.Intent, Before: before, After: after,
			})
			_ = state.SetFocus(m.Repo().Root(), id, domain)
		}
	}
	return resp
}

func dispatch(m *manager.Manager, req Request) *Response {
	switch req.Intent {
	case "context":
		return doContext(m, &req)
	case "create":
		return doCreate(m, &req)
	case "decompose":
		return doDecompose(m, &req)
	case "task_add":
		return doTaskAdd(m, &req)
	case "define", "task_define":
		return doDefine(m, &req)
	case "verify":
		return doVerify(m, &req)
	case "progress":
		return doProgress(m, &req)
	case "done":
		return doDone(m, &req)
	case "complete":
		return doComplete(m, &req)
	case "delete":
		return doDelete(m, &req)
	case "note":
		return doNote(m, &req)
	case "block":
		return doBlock(m, &req)
	case "edit":
		return doEdit(m, &req)
	case "patch":
		return doPatch(m, &req)
	case "batch":
		return doBatch(m, &req)
	case "undo":
		return doUndo(m, &req)
	case "redo":
		return doRedo(m, &req)
	case "history":
		return doHistory(m, &req)
	case "storage":
		return doStorage(m, &req)
	case "resume":
		return doResume(m, &req)
	case "radar":
		return doRadar(m, &req)
	case "handoff":
		return doHandoff(m, &req)
	case "close_task":
		return doCloseTask(m, &req)
	case "mirror":
		return doMirror(m, &req)
	default:
		return fail(&req, "UNKNOWN_INTENT", "unrecognized intent: "+req.Intent, nil)
	}
}

// gate runs steps 2-4 of the pipeline for a mutating intent: target
// resolution, strict-targeting, and the revision gate. Returns a non-nil
// Response only on failure (caller should return it unchanged).
func gate(m *manager.Manager, req *Request) (id, domain string, root node.Root, failResp *Response) {
	id, domain, source, root, err := resolveTarget(m, req)
	if err != nil {
		return "", "", nil, fail(req, "MISSING_TASK", err.Error(), nil)
	}

	activeCount, _ := countActiveRoots(m)
	autoStrict := isMutating(req.Intent) && activeCount > 1
	if req.StrictTargeting || autoStrict {
		if req.ExpectedTargetID == "" {
			return "", "", nil, fail(req, "STRICT_TARGETING_REQUIRES_EXPECTED_TARGET_ID",
				"expected_target_id is required when strict targeting applies", nil)
		}
		if req.ExpectedTargetID != id {
			return "", "", nil, fail(req, "EXPECTED_TARGET_MISMATCH",
				"expected_target_id does not match the resolved target", nil)
		}
	}

	if req.ExpectedRevision != nil && root.GetRevision() != *req.ExpectedRevision {
		r := &Response{
			Success: false, Intent: req.Intent,
			Context: Context{TargetResolution: TargetResolution{Source: source, ResolvedID: id, Domain: domain}},
			Result:  map[string]any{"current_revision": root.GetRevision()},
			ErrorCode: "REVISION_MISMATCH", ErrorMessage: "expected_revision does not match current revision",
			ErrorRecovery: &ErrorRecovery{Action: "resume", Params: map[string]any{"task": id}},
			Suggestions:   []Suggestion{revisionMismatchSuggestion(id)},
		}
		return "", "", nil, r
	}
	return id, domain, root, nil
}

func ok(req *Request, id, domain, source string, result any, revision *int, ev *node.Event, suggestions []Suggestion) *Response {
	return &Response{
		Success: true, Intent: req.Intent, Result: result,
		Context:     Context{TargetResolution: TargetResolution{Source: source, ResolvedID: id, Domain: domain}},
		Suggestions: suggestions, Revision: revision, Event: ev,
	}
}

func asTask(root node.Root) (*node.Task, bool) { t, ok := root.(*node.Task); return t, ok }

func doContext(m *manager.Manager, req *Request) *Response {
	fp, hasFocus := state.ReadFocus(m.Repo().Root())
	result := map[string]any{"has_focus": hasFocus}
	if hasFocus {
		result["focus_id"] = fp.ID
		result["focus_domain"] = fp.Domain
	}
	if req.IncludeAll || req.TasksStatus != "" {
		roots, err := m.Repo().List("")
		if err == nil {
			var items []map[string]any
			for _, r := range roots {
				t, isTask := r.(*node.Task)
				if !isTask {
					continue
				}
				if req.TasksStatus != "" && string(t.Status) != req.TasksStatus {
					continue
				}
				items = append(items, map[string]any{"id": t.ID, "title": t.Title, "status": t.Status})
			}
			result["tasks"] = items
		}
	}
	return &Response{Success: true, Intent: req.Intent, Result: result,
		Context:     Context{TargetResolution: TargetResolution{Source: "focus"}},
		Suggestions: baseSuggestions(m)}
}

func doCreate(m *manager.Manager, req *Request) *Response {
	switch req.Kind {
	case "plan":
		p, err := m.CreatePlan(req.Title, req.Domain)
		if err != nil {
			return mgrFail(req, err)
		}
		return ok(req, p.ID, p.Domain, "explicit", map[string]any{"id": p.ID}, &p.Revision, nil, baseSuggestions(m))
	case "task":
		t, err := m.CreateTask(req.Title, req.Parent, req.Domain, req.Phase, req.Component)
		if err != nil {
			return mgrFail(req, err)
		}
		return ok(req, t.ID, t.Domain, "explicit", map[string]any{"id": t.ID}, &t.Revision, nil, baseSuggestions(m))
	default:
		return fail(req, "MISSING_FIELDS", "kind must be plan or task", nil)
	}
}

func doDecompose(m *manager.Manager, req *Request) *Response {
	id, domain, root, failResp := gate(m, req)
	if failResp != nil {
		return failResp
	}
	task, isTask := asTask(root)
	if !isTask {
		return fail(req, "INVALID_TASK", "target is not a task", nil)
	}
	for _, spec := range req.Steps {
		if _, err := m.AddStep(id, domain, spec.Title, spec.Criteria, spec.Tests, spec.Blockers, req.Path); err != nil {
			return mgrFail(req, err)
		}
	}
	task, _ = reload(m, id, domain)
	return ok(req, id, domain, "explicit", map[string]any{"steps_added": len(req.Steps)}, &task.Revision, nil, baseSuggestions(m))
}

func doTaskAdd(m *manager.Manager, req *Request) *Response {
	id, domain, _, failResp := gate(m, req)
	if failResp != nil {
		return failResp
	}
	tn, err := m.AddTaskNode(id, domain, req.Path, req.Title, req.Domain)
	if err != nil {
		return mgrFail(req, err)
	}
	task, _ := reload(m, id, domain)
	return ok(req, id, domain, "explicit", map[string]any{"task_node_id": tn.ID}, &task.Revision, nil, nil)
}

func doDefine(m *manager.Manager, req *Request) *Response {
	id, domain, root, failResp := gate(m, req)
	if failResp != nil {
		return failResp
	}
	task, isTask := asTask(root)
	if !isTask {
		return fail(req, "INVALID_TASK", "target is not a task", nil)
	}
	step, err := manager.ResolveStep(task, req.Path)
	if err == nil {
		applyDefine(step, req)
	} else if tn, tErr := manager.ResolveTaskNode(task, req.Path); tErr == nil {
		applyDefineTaskNode(tn, req)
	} else {
		return fail(req, "PATH_NOT_FOUND", "path did not resolve to a step or task node", nil)
	}
	task.Updated = time.Now()
	if err := m.Save(task, "definition updated"); err != nil {
		return mgrFail(req, err)
	}
	return ok(req, id, domain, "explicit", map[string]any{"updated": true}, &task.Revision, nil, nil)
}

func applyDefine(s *node.Step, req *Request) {
	if req.Title != "" {
		s.Title = req.Title
	}
	if req.Criteria != nil {
		s.Criteria = req.Criteria
	}
	if req.Tests != nil {
		s.Tests = req.Tests
	}
	if req.Blockers != nil {
		s.Blockers = req.Blockers
	}
}

func applyDefineTaskNode(tn *node.TaskNode, req *Request) {
	if req.Title != "" {
		tn.Title = req.Title
	}
	if req.Criteria != nil {
		tn.SuccessCriteria = req.Criteria
	}
}

func doVerify(m *manager.Manager, req *Request) *Response {
	id, domain, root, failResp := gate(m, req)
	if failResp != nil {
		return failResp
	}
	task, isTask := asTask(root)
	if !isTask {
		return fail(req, "INVALID_TASK", "target is not a task", nil)
	}
	step, err := manager.ResolveStep(task, req.Path)
	if err != nil {
		return fail(req, "PATH_NOT_FOUND", err.Error(), nil)
	}
	anyConfirmed := false
	for kindStr, cp := range req.Checkpoints {
		kind := node.CheckpointKind(kindStr)
		if !kind.Valid() || cp.Confirmed == nil || !*cp.Confirmed {
			continue
		}
		step.SetCheckpoint(kind, true, cp.Note)
		anyConfirmed = true
	}
	if !anyConfirmed {
		return fail(req, "VERIFY_NOOP", "no checkpoint carried confirmed=true", nil)
	}
	step.VerificationChecks = append(step.VerificationChecks, req.Checks...)
	step.Attachments = append(step.Attachments, req.Attachments...)
	if req.VerificationOutcome != "" {
		step.VerificationOutcome = req.VerificationOutcome
	}
	task.Updated = time.Now()
	if err := m.Save(task, "step verified"); err != nil {
		return mgrFail(req, err)
	}
	return ok(req, id, domain, "explicit", map[string]any{"step_id": step.ID}, &task.Revision, nil, nil)
}

func doProgress(m *manager.Manager, req *Request) *Response {
	id, domain, _, failResp := gate(m, req)
	if failResp != nil {
		return failResp
	}
	value := req.Completed == nil || *req.Completed
	if req.Force && req.OverrideReason == "" {
		return fail(req, "MISSING_OVERRIDE_REASON", "override_reason is required when force=true", nil)
	}
	_, err := m.SetStepCompleted(id, domain, req.Path, value, req.Force, req.OverrideReason)
	if err != nil {
		return mgrFail(req, err)
	}
	task, _ := reload(m, id, domain)
	return ok(req, id, domain, "explicit", map[string]any{"completed": value}, &task.Revision, nil, nil)
}

func doDone(m *manager.Manager, req *Request) *Response {
	id, domain, root, failResp := gate(m, req)
	if failResp != nil {
		return failResp
	}
	task, isTask := asTask(root)
	if !isTask {
		return fail(req, "INVALID_TASK", "target is not a task", nil)
	}
	step, err := manager.ResolveStep(task, req.Path)
	if err != nil {
		return fail(req, "PATH_NOT_FOUND", err.Error(), nil)
	}
	if req.Force {
		step.SetCheckpoint(node.CheckpointCriteria, true, req.Note)
		step.SetCheckpoint(node.CheckpointTests, true, req.Note)
		step.SetCheckpoint(node.CheckpointBlockers, true, req.Note)
		if err := m.Save(task, "checkpoints force-confirmed"); err != nil {
			return mgrFail(req, err)
		}
	}
	_, err = m.SetStepCompleted(id, domain, req.Path, true, req.Force, req.Note)
	if err != nil {
		return mgrFail(req, err)
	}
	task, _ = reload(m, id, domain)
	return ok(req, id, domain, "explicit", map[string]any{"step_id": step.ID}, &task.Revision, nil, baseSuggestions(m))
}

// doComplete is sugar for done{force: true}, defaulting the note/override
// reason so callers don't have to restate one for the common "just finish
// it" case.
func doComplete(m *manager.Manager, req *Request) *Response {
	req.Force = true
	if req.Note == "" {
		req.Note = "completed via complete macro"
	}
	if req.OverrideReason == "" {
		req.OverrideReason = req.Note
	}
	return doDone(m, req)
}

func doDelete(m *manager.Manager, req *Request) *Response {
	id, domain, _, failResp := gate(m, req)
	if failResp != nil {
		return failResp
	}
	if req.Path == "" {
		if err := m.DeleteTask(id, domain); err != nil {
			return mgrFail(req, err)
		}
		return ok(req, id, domain, "explicit", map[string]any{"deleted": id}, nil, nil, nil)
	}
	if err := m.DeleteStepNode(id, domain, req.Path); err != nil {
		return mgrFail(req, err)
	}
	return ok(req, id, domain, "explicit", map[string]any{"deleted_path": req.Path}, nil, nil, nil)
}

func doNote(m *manager.Manager, req *Request) *Response {
	id, domain, root, failResp := gate(m, req)
	if failResp != nil {
		return failResp
	}
	if req.Note == "" {
		return fail(req, "MISSING_NOTE", "note is required", nil)
	}
	task, isTask := asTask(root)
	if !isTask {
		return fail(req, "INVALID_TASK", "target is not a task", nil)
	}
	if req.Path == "" {
		task.History = append(task.History, req.Note)
	} else {
		step, err := manager.ResolveStep(task, req.Path)
		if err != nil {
			return fail(req, "PATH_NOT_FOUND", err.Error(), nil)
		}
		step.ProgressNotes = append(step.ProgressNotes, req.Note)
	}
	task.Updated = time.Now()
	if err := m.Save(task, "note added"); err != nil {
		return mgrFail(req, err)
	}
	return ok(req, id, domain, "explicit", map[string]any{"noted": true}, &task.Revision, nil, nil)
}

func doBlock(m *manager.Manager, req *Request) *Response {
	id, domain, root, failResp := gate(m, req)
	if failResp != nil {
		return failResp
	}
	task, isTask := asTask(root)
	if !isTask {
		return fail(req, "INVALID_TASK", "target is not a task", nil)
	}
	value := req.Blocked == nil || *req.Blocked
	if req.Path == "" {
		task.Blocked = value
		task.BlockedReason = req.BlockedReason
	} else {
		step, err := manager.ResolveStep(task, req.Path)
		if err != nil {
			return fail(req, "PATH_NOT_FOUND", err.Error(), nil)
		}
		step.Blocked = value
		step.BlockedReason = req.BlockedReason
	}
	task.Updated = time.Now()
	if err := m.Save(task, "block state updated"); err != nil {
		return mgrFail(req, err)
	}
	return ok(req, id, domain, "explicit", map[string]any{"blocked": value}, &task.Revision, nil, nil)
}

func doEdit(m *manager.Manager, req *Request) *Response {
	id, domain, _, failResp := gate(m, req)
	if failResp != nil {
		return failResp
	}
	if req.DependsOn != nil {
		_, err := m.SetDependsOn(id, domain, req.DependsOn)
		if err != nil {
			if de, isDep := err.(*depgraph.Error); isDep {
				return &Response{Success: false, Intent: req.Intent, ErrorCode: de.Code, ErrorMessage: de.Message,
					Result: map[string]any{"cycle": de.Cycle, "invalid": de.Invalid}}
			}
			return mgrFail(req, err)
		}
	}
	task, _ := reload(m, id, domain)
	return ok(req, id, domain, "explicit", map[string]any{"edited": true}, &task.Revision, nil, nil)
}

func reload(m *manager.Manager, id, domain string) (*node.Task, error) {
	root, err := m.Load(id, domain)
	if err != nil {
		return nil, err
	}
	t, _ := asTask(root)
	return t, nil
}

func mgrFail(req *Request, err error) *Response {
	if me, ok := err.(*manager.Error); ok {
		return fail(req, me.Code, me.Message, nil)
	}
	if de, ok := err.(*depgraph.Error); ok {
		return fail(req, de.Code, de.Message, nil)
	}
	return fail(req, "INTERNAL_ERROR", err.Error(), nil)
}

func doStorage(m *manager.Manager, req *Request) *Response {
	sig, _ := m.Repo().ComputeSignature()
	return &Response{Success: true, Intent: req.Intent,
		Result:  map[string]any{"root": m.Repo().Root(), "signature": sig},
		Context: Context{TargetResolution: TargetResolution{Source: "focus"}}}
}

func doResume(m *manager.Manager, req *Request) *Response {
	id, domain, source, root, err := resolveTarget(m, req)
	if err != nil {
		return fail(req, "MISSING_TASK", err.Error(), nil)
	}
	return &Response{Success: true, Intent: req.Intent,
		Result:  map[string]any{"id": id, "revision": root.GetRevision()},
		Context: Context{TargetResolution: TargetResolution{Source: source, ResolvedID: id, Domain: domain}}}
}

func doMirror(m *manager.Manager, req *Request) *Response {
	id, domain, source, root, err := resolveTarget(m, req)
	if err != nil {
		return fail(req, "MISSING_TASK", err.Error(), nil)
	}
	data, _ := codec.Serialize(root)
	return &Response{Success: true, Intent: req.Intent,
		Result:  map[string]any{"id": id, "text": string(data)},
		Context: Context{TargetResolution: TargetResolution{Source: source, ResolvedID: id, Domain: domain}}}
}

func doRadar(m *manager.Manager, req *Request) *Response {
	id, domain, root, failResp := gate(m, req)
	if failResp != nil {
		return failResp
	}
	task, isTask := asTask(root)
	if !isTask {
		return fail(req, "INVALID_TASK", "target is not a task", nil)
	}
	r := buildRadar(task)
	if len(r.Next) == 0 {
		r.Next = baseSuggestions(m)
	}
	return ok(req, id, domain, "explicit", r, nil, nil, r.Next)
}

func doHandoff(m *manager.Manager, req *Request) *Response {
	id, domain, root, failResp := gate(m, req)
	if failResp != nil {
		return failResp
	}
	task, isTask := asTask(root)
	if !isTask {
		return fail(req, "INVALID_TASK", "target is not a task", nil)
	}
	h := buildHandoff(task)
	if len(h.Next) == 0 {
		h.Next = baseSuggestions(m)
	}
	return ok(req, id, domain, "explicit", h, nil, nil, h.Next)
}

func doCloseTask(m *manager.Manager, req *Request) *Response {
	id, domain, root, failResp := gate(m, req)
	if failResp != nil {
		return failResp
	}
	task, isTask := asTask(root)
	if !isTask {
		return fail(req, "INVALID_TASK", "target is not a task", nil)
	}
	runway := computeRunway(task)
	diff := PatchDiff{State: &LifecycleDiffState{LifecycleStatus: &LifecycleDiff{From: string(task.Status), To: string(node.StatusDone)}}}
	if !req.Apply {
		return ok(req, id, domain, "explicit", map[string]any{"runway": runway, "diff": diff}, &task.Revision, nil, nil)
	}
	if !runway.Open {
		return &Response{Success: false, Intent: req.Intent, ErrorCode: "RUNWAY_CLOSED",
			ErrorMessage: "task is not ready for completion",
			Result:       map[string]any{"runway": runway, "diff": diff}}
	}
	_, err := m.UpdateTaskStatus(id, domain, node.StatusDone, true)
	if err != nil {
		return mgrFail(req, err)
	}
	task, _ = reload(m, id, domain)
	return ok(req, id, domain, "explicit", map[string]any{"runway": Runway{Open: true}, "diff": diff}, &task.Revision, nil, nil)
}
