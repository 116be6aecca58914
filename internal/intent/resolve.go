package intent

import (
	"github.com/nodeforge/taskengine/internal/manager"
	"github.com/nodeforge/taskengine/internal/node"
	"github.com/nodeforge/taskengine/internal/state"
)

// resolveTarget implements step 2 of the per-intent pipeline: explicit
// task/plan, then the persisted focus pointer. The `paths` batch-fan-out
// case is handled by the batch intent directly, not here.
func resolveTarget(m *manager.Manager, req *Request) (id, domain, source string, root node.Root, err error) {
	switch {
	case req.Task != "":
		id = req.Task
	case req.Plan != "":
		id = req.Plan
	}
	if id != "" {
		domain = req.Domain
		root, err = m.Load(id, domain)
		if err != nil {
			return id, domain, "explicit", nil, err
		}
		return id, root.GetDomain(), "explicit", root, nil
	}

	fp, ok := state.ReadFocus(m.Repo().Root())
	if !ok {
		return "", "", "", nil, errNoTarget()
	}
	root, err = m.Load(fp.ID, fp.Domain)
	if err != nil {
		return fp.ID, fp.Domain, "focus", nil, err
	}
	return fp.ID, root.GetDomain(), "focus", root, nil
}

func errNoTarget() error {
	return &targetError{"MISSING_TASK", "no explicit target given and no focus pointer is set"}
}

type targetError struct {
	Code, Message string
}

func (e *targetError) Error() string { return e.Message }

// countActiveRoots counts roots whose status is not DONE, for the
// auto-strict-writes trigger.
func countActiveRoots(m *manager.Manager) (int, error) {
	roots, err := m.Repo().List("")
	if err != nil {
		return 0, err
	}
	n := 0
	for _, r := range roots {
		if t, ok := r.(*node.Task); ok {
			if t.Status != node.StatusDone {
				n++
			}
			continue
		}
		n++
	}
	return n, nil
}
