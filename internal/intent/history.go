package intent

import (
	"github.com/nodeforge/taskengine/internal/codec"
	"github.com/nodeforge/taskengine/internal/manager"
	"github.com/nodeforge/taskengine/internal/state"
)

func doUndo(m *manager.Manager, req *Request) *Response {
	entry, ok2, err := state.Undo(m.Repo().Root())
	if err != nil {
		return fail(req, "INTERNAL_ERROR", err.Error(), nil)
	}
	if !ok2 {
		return fail(req, "NO_FIELDS", "nothing to undo", nil)
	}
	if err := restoreEntry(m, entry.RootID, entry.Domain, entry.Before); err != nil {
		return fail(req, "INTERNAL_ERROR", err.Error(), nil)
	}
	return ok(req, entry.RootID, entry.Domain, "explicit", map[string]any{"undone": entry.Intent}, nil, nil, nil)
}

func doRedo(m *manager.Manager, req *Request) *Response {
	entry, ok2, err := state.Redo(m.Repo().Root())
	if err != nil {
		return fail(req, "INTERNAL_ERROR", err.Error(), nil)
	}
	if !ok2 {
		return fail(req, "NO_FIELDS", "nothing to redo", nil)
	}
	if err := restoreEntry(m, entry.RootID, entry.Domain, entry.After); err != nil {
		return fail(req, "INTERNAL_ERROR", err.Error(), nil)
	}
	return ok(req, entry.RootID, entry.Domain, "explicit", map[string]any{"redone": entry.Intent}, nil, nil, nil)
}

func restoreEntry(m *manager.Manager, id, domain string, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	root, err := codec.Parse(data)
	if err != nil {
		return err
	}
	root.SetDomain(domain)
	return m.Repo().Save(root)
}

func doHistory(m *manager.Manager, req *Request) *Response {
	h, err := state.LoadHistory(m.Repo().Root())
	if err != nil {
		return fail(req, "INTERNAL_ERROR", err.Error(), nil)
	}
	type entrySummary struct {
		RootID string `json:"root_id"`
		Intent string `json:"intent"`
	}
	summaries := make([]entrySummary, 0, len(h.Entries))
	for _, e := range h.Entries {
		summaries = append(summaries, entrySummary{RootID: e.RootID, Intent: e.Intent})
	}
	return &Response{Success: true, Intent: req.Intent,
		Result:  map[string]any{"entries": summaries, "index": h.Index},
		Context: Context{TargetResolution: TargetResolution{Source: "focus"}}}
}
