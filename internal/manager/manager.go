package manager

import (
	"time"

	"github.com/nodeforge/taskengine/internal/codec"
	"github.com/nodeforge/taskengine/internal/depgraph"
	"github.com/nodeforge/taskengine/internal/logx"
	"github.com/nodeforge/taskengine/internal/metrics"
	"github.com/nodeforge/taskengine/internal/migrate"
	"github.com/nodeforge/taskengine/internal/node"
	"github.com/nodeforge/taskengine/internal/repo"
	"github.com/nodeforge/taskengine/internal/state"
	"github.com/nodeforge/taskengine/internal/syncservice"
)

const autoCleanThrottle = time.Minute

// Manager wraps a Repository with the load/save pipeline, sync hooks,
// auto-clean retention, and the mutating operations of §4.4.
type Manager struct {
	repo *repo.Repository

	Sync           syncservice.Service
	AutoSync       bool
	RetentionDays  int
	MaxArrayLength int

	lastClean time.Time
}

// New opens (creating if necessary) the store at root and returns a Manager
// over it, wired with the given sync service (syncservice.Noop{} if disabled).
func New(root string, sync syncservice.Service, autoSync bool, retentionDays, maxArrayLength int) (*Manager, error) {
	if err := migrate.Run(root); err != nil {
		return nil, err
	}
	r, err := repo.Open(root)
	if err != nil {
		return nil, err
	}
	return &Manager{repo: r, Sync: sync, AutoSync: autoSync, RetentionDays: retentionDays, MaxArrayLength: maxArrayLength}, nil
}

// Repo exposes the underlying repository for read-mostly consumers
// (radar/handoff/close_task, intent context resolution).
func (m *Manager) Repo() *repo.Repository { return m.repo }

// Load runs the load-task pipeline: read file, and if the sync service is
// enabled and a remote ID is present, pull remote field overrides and
// re-save if the local copy changed.
func (m *Manager) Load(id, domain string) (node.Root, error) {
	root, err := m.repo.Load(id, domain)
	if err != nil {
		return nil, err
	}
	if !m.Sync.Enabled() || root.GetProjectItemID() == "" {
		return root, nil
	}
	changed, err := m.Sync.PullTaskFields(root)
	if err != nil {
		logx.L().Warn().Err(err).Str("id", id).Msg("sync pull failed, local copy remains source of truth")
		return root, nil
	}
	if changed {
		if err := m.Save(root, ""); err != nil {
			return nil, err
		}
	}
	return root, nil
}

// Save runs the save-task pipeline: bump revision, write file, push (if
// sync enabled), persist any remote IDs the hook returns, append an event.
func (m *Manager) Save(root node.Root, eventMessage string) error {
	stop := metrics.Timer()
	defer stop()
	logx.WithRoot(root.RootID()).Debug().Msg("saving root")

	if err := m.repo.Save(root); err != nil {
		logx.WithRoot(root.RootID()).Error().Err(err).Msg("save failed")
		return err
	}
	if m.Sync.Enabled() {
		remoteID, err := m.Sync.SyncTask(root)
		if err != nil {
			logx.L().Warn().Err(err).Str("id", root.RootID()).Msg("sync push failed, local write remains authoritative")
		} else if remoteID != "" && remoteID != root.GetProjectItemID() {
			root.SetProjectItemID(remoteID)
			_ = m.repo.Save(root)
		}
	}
	if eventMessage != "" {
		root.AppendEvent(node.NewEvent(codec.NewStepID(), node.EventPlanUpdate, eventMessage, time.Now()))
	}
	return nil
}

// CreatePlan creates a new Plan root.
func (m *Manager) CreatePlan(title, domain string) (p *node.Plan, err error) {
	defer func() { metrics.Observe("create_plan", err) }()
	if title == "" {
		return nil, errf(CodeMissingFields, "title is required")
	}
	id, err := codec.NextPlanID(m.repo.Root())
	if err != nil {
		return nil, err
	}
	now := time.Now()
	p = &node.Plan{ID: id, Title: title, Domain: domain, Created: now, Updated: now}
	if err := m.Save(p, "plan created"); err != nil {
		return nil, err
	}
	return p, nil
}

// CreateTask creates a new root Task under parent (a Plan ID, required: a
// root Task with no parent Plan is forbidden).
func (m *Manager) CreateTask(title, parent, domain, phase, component string) (result *node.Task, err error) {
	defer func() { metrics.Observe("create_task", err) }()
	if title == "" {
		return nil, errf(CodeMissingFields, "title is required")
	}
	if parent == "" {
		return nil, errf(CodeInvalidParent, "a root task must have a parent plan")
	}
	if _, err := m.repo.Load(parent, ""); err != nil {
		return nil, errf(CodeInvalidParent, "parent plan %s not found", parent)
	}
	id, err := codec.NextTaskID(m.repo.Root())
	if err != nil {
		return nil, err
	}
	now := time.Now()
	t := &node.Task{
		ID: id, Title: title, Parent: parent,
		Domain: domain, Phase: phase, Component: component,
		Created: now, Updated: now, Status: node.StatusPending,
	}
	if err := m.Save(t, "task created"); err != nil {
		return nil, err
	}
	return t, nil
}

// UpdateTaskStatus sets a root Task's status. Setting DONE without force
// requires readiness (all steps complete and success criteria present);
// otherwise RUNWAY_CLOSED.
func (m *Manager) UpdateTaskStatus(id, domain string, status node.Status, force bool) (result *node.Task, err error) {
	defer func() { metrics.Observe("update_task_status", err) }()
	task, err := m.loadTask(id, domain)
	if err != nil {
		return nil, err
	}
	if status == node.StatusDone && !force {
		computed := task.ComputeStatus()
		if computed != node.StatusDone {
			return nil, errf(CodeRunwayClosed, "task %s is not ready for completion", id)
		}
	}
	task.Status = status
	task.Updated = time.Now()
	if err := m.Save(task, "status updated"); err != nil {
		return nil, err
	}
	return task, nil
}

// AddStep appends a new Step (criteria non-empty required) under parentPath
// (root Steps when empty).
func (m *Manager) AddStep(taskID, domain, title string, criteria, tests, blockers []string, parentPath string) (result *node.Step, err error) {
	defer func() { metrics.Observe("add_step", err) }()
	if len(criteria) == 0 {
		return nil, errf(CodeMissingFields, "criteria must be non-empty")
	}
	task, err := m.loadTask(taskID, domain)
	if err != nil {
		return nil, err
	}
	target, err := ParentSteps(task, parentPath)
	if err != nil {
		return nil, err
	}
	step := node.NewStep(codec.NewStepID(), title, criteria, tests, blockers, time.Now())
	*target = append(*target, step)
	task.Updated = time.Now()
	if err := m.Save(task, "step added"); err != nil {
		return nil, err
	}
	return step, nil
}

// AddTaskNode inserts an embedded TaskNode under the Step at stepPath's
// embedded PlanNode (creating the PlanNode if this is the Step's first
// embedded task).
func (m *Manager) AddTaskNode(taskID, domain, stepPath, title, nodeDomain string) (tn *node.TaskNode, err error) {
	defer func() { metrics.Observe("add_task_node", err) }()
	task, err := m.loadTask(taskID, domain)
	if err != nil {
		return nil, err
	}
	step, err := ResolveStep(task, stepPath)
	if err != nil {
		return nil, err
	}
	if step.Plan == nil {
		step.Plan = &node.PlanNode{ID: codec.NewStepID(), Title: step.Title + " plan"}
	}
	tn = &node.TaskNode{ID: codec.NewTaskNodeID(), Title: title, Domain: nodeDomain, Status: node.StatusPending}
	step.Plan.Tasks = append(step.Plan.Tasks, tn)
	task.Updated = time.Now()
	if err := m.Save(task, "task node added"); err != nil {
		return nil, err
	}
	return tn, nil
}

// UpdateStepCheckpoint toggles one checkpoint on the Step at path, appends
// the note, and sets StartedAt on the first pristine-to-confirmed
// transition.
func (m *Manager) UpdateStepCheckpoint(taskID, domain, path string, kind node.CheckpointKind, value bool, note string) (step *node.Step, err error) {
	defer func() { metrics.Observe("update_step_checkpoint", err) }()
	if !kind.Valid() {
		return nil, errf(CodeMissingFields, "invalid checkpoint kind: %s", kind)
	}
	task, err := m.loadTask(taskID, domain)
	if err != nil {
		return nil, err
	}
	step, err = ResolveStep(task, path)
	if err != nil {
		return nil, err
	}
	firstTransition := step.SetCheckpoint(kind, value, note)
	if firstTransition {
		now := time.Now()
		step.StartedAt = &now
	}
	task.Updated = time.Now()
	task.AppendEvent(node.NewEvent(codec.NewStepID(), node.EventCheckpoint, string(kind)+" checkpoint updated", time.Now()))
	if err := m.Save(task, ""); err != nil {
		return nil, err
	}
	return step, nil
}

// SetStepCompleted marks the Step at path completed. Without force, refuses
// unless the step is ready-for-completion.
func (m *Manager) SetStepCompleted(taskID, domain, path string, value, force bool, overrideReason string) (step *node.Step, err error) {
	defer func() { metrics.Observe("set_step_completed", err) }()
	task, err := m.loadTask(taskID, domain)
	if err != nil {
		return nil, err
	}
	step, err = ResolveStep(task, path)
	if err != nil {
		return nil, err
	}
	if value && !force && !step.ReadyForCompletion() {
		return nil, errf(CodeRunwayClosed, "step %s is not ready for completion", step.ID)
	}
	if value && force {
		if overrideReason == "" {
			return nil, errf(CodeMissingOverride, "override_reason is required when force=true")
		}
		task.AppendEvent(node.NewEvent(codec.NewStepID(), node.EventOverride, overrideReason, time.Now()))
	}
	step.Completed = value
	if value {
		now := time.Now()
		step.CompletedAt = &now
	} else {
		step.CompletedAt = nil
	}
	task.Updated = time.Now()
	if err := m.Save(task, "step completion updated"); err != nil {
		return nil, err
	}
	return step, nil
}

// SetDependsOn validates and replaces a Task's depends_on list via the
// dependency validator.
func (m *Manager) SetDependsOn(taskID, domain string, deps []string) (result *node.Task, err error) {
	defer func() { metrics.Observe("set_depends_on", err) }()
	task, err := m.loadTask(taskID, domain)
	if err != nil {
		return nil, err
	}
	all, err := m.allDependsOn(taskID)
	if err != nil {
		return nil, err
	}
	if depErr := depgraph.Validate(taskID, deps, all); depErr != nil {
		return nil, depErr
	}
	task.DependsOn = deps
	task.Updated = time.Now()
	task.AppendEvent(node.NewEvent(codec.NewStepID(), node.EventDependency, "dependencies updated", time.Now()))
	if err := m.Save(task, ""); err != nil {
		return nil, err
	}
	return task, nil
}

func (m *Manager) allDependsOn(excludeID string) (map[string][]string, error) {
	roots, err := m.repo.List("")
	if err != nil {
		return nil, err
	}
	out := make(map[string][]string, len(roots))
	for _, r := range roots {
		task, ok := r.(*node.Task)
		if !ok || task.ID == excludeID {
			continue
		}
		out[task.ID] = task.DependsOn
	}
	return out, nil
}

// DeleteTask soft-deletes a root Task by moving it into .trash/.
func (m *Manager) DeleteTask(id, domain string) (err error) {
	defer func() { metrics.Observe("delete_task", err) }()
	return m.repo.Move(id, domain, repo.TrashDir)
}

// DeleteStepNode removes the Step named by path (a "s:<i>"-suffixed path)
// from its parent slice.
func (m *Manager) DeleteStepNode(rootID, domain, path string) (err error) {
	defer func() { metrics.Observe("delete_step_node", err) }()
	task, err := m.loadTask(rootID, domain)
	if err != nil {
		return err
	}
	parentPath, idx, err := splitLastSegment(path)
	if err != nil {
		return err
	}
	target, err := ParentSteps(task, parentPath)
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(*target) {
		return errf(CodeNotFound, "step index out of range: %d", idx)
	}
	*target = append((*target)[:idx], (*target)[idx+1:]...)
	task.Updated = time.Now()
	return m.Save(task, "step deleted")
}

// DeleteTaskNode removes the embedded TaskNode named by path from its
// parent PlanNode's Tasks slice.
func (m *Manager) DeleteTaskNode(rootID, domain, path string) (err error) {
	defer func() { metrics.Observe("delete_task_node", err) }()
	task, err := m.loadTask(rootID, domain)
	if err != nil {
		return err
	}
	stepPath, idx, err := splitLastSegment(path)
	if err != nil {
		return err
	}
	step, err := ResolveStep(task, stepPath)
	if err != nil {
		return err
	}
	if step.Plan == nil || idx < 0 || idx >= len(step.Plan.Tasks) {
		return errf(CodeNotFound, "task node index out of range: %d", idx)
	}
	step.Plan.Tasks = append(step.Plan.Tasks[:idx], step.Plan.Tasks[idx+1:]...)
	task.Updated = time.Now()
	return m.Save(task, "task node deleted")
}

func (m *Manager) loadTask(id, domain string) (*node.Task, error) {
	root, err := m.Load(id, domain)
	if err != nil {
		return nil, err
	}
	task, ok := root.(*node.Task)
	if !ok {
		return nil, errf(CodeNotFound, "%s is not a task", id)
	}
	return task, nil
}

// AutoClean moves DONE roots whose Updated timestamp is older than the
// retention window into .trash/, skipping any root transitively depended
// on by a non-DONE root. Throttled to run at most once per autoCleanThrottle
// interval per process.
func (m *Manager) AutoClean() (moved int, err error) {
	defer func() { metrics.Observe("auto_clean", err) }()
	if m.RetentionDays <= 0 {
		return 0, nil
	}
	if time.Since(m.lastClean) < autoCleanThrottle {
		return 0, nil
	}
	m.lastClean = time.Now()

	roots, err := m.repo.List("")
	if err != nil {
		return 0, err
	}
	shielded := shieldedIDs(roots)
	cutoff := time.Now().AddDate(0, 0, -m.RetentionDays)

	for _, r := range roots {
		task, ok := r.(*node.Task)
		if !ok || task.Status != node.StatusDone {
			continue
		}
		if task.GetUpdated().After(cutoff) {
			continue
		}
		if shielded[task.ID] {
			continue
		}
		if err := m.repo.Move(task.ID, task.Domain, repo.TrashDir); err != nil {
			return moved, err
		}
		moved++
	}
	return moved, nil
}

// shieldedIDs returns the set of Task IDs that are transitively depended on
// by a non-DONE root.
func shieldedIDs(roots []node.Root) map[string]bool {
	shielded := make(map[string]bool)
	var mark func(id string, all map[string]*node.Task)
	mark = func(id string, all map[string]*node.Task) {
		if shielded[id] {
			return
		}
		shielded[id] = true
		t, ok := all[id]
		if !ok {
			return
		}
		for _, dep := range t.DependsOn {
			mark(dep, all)
		}
	}
	all := make(map[string]*node.Task)
	for _, r := range roots {
		if t, ok := r.(*node.Task); ok {
			all[t.ID] = t
		}
	}
	for _, t := range all {
		if t.Status != node.StatusDone {
			for _, dep := range t.DependsOn {
				mark(dep, all)
			}
		}
	}
	return shielded
}

func splitLastSegment(path string) (parent string, idx int, err error) {
	i := lastDot(path)
	var last string
	if i < 0 {
		last = path
		parent = ""
	} else {
		parent = path[:i]
		last = path[i+1:]
	}
	segs, err := parsePath(last)
	if err != nil || len(segs) != 1 {
		return "", 0, errf(CodeNotFound, "invalid leaf path segment: %q", last)
	}
	return parent, segs[0].index, nil
}

func lastDot(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			return i
		}
	}
	return -1
}
