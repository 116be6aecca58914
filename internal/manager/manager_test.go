package manager

import (
	"testing"

	"github.com/nodeforge/taskengine/internal/depgraph"
	"github.com/nodeforge/taskengine/internal/node"
	"github.com/nodeforge/taskengine/internal/repo"
	"github.com/nodeforge/taskengine/internal/syncservice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := New(t.TempDir(), syncservice.Noop{}, false, 0, 100)
	require.NoError(t, err)
	return m
}

func TestCreatePlanAndTask(t *testing.T) {
	m := newTestManager(t)

	plan, err := m.CreatePlan("Ship feature", "")
	require.NoError(t, err)
	assert.Equal(t, "PLAN-001", plan.ID)
	assert.Equal(t, 1, plan.Revision)

	task, err := m.CreateTask("Implement it", plan.ID, "", "", "")
	require.NoError(t, err)
	assert.Equal(t, "TASK-001", task.ID)
	assert.Equal(t, plan.ID, task.Parent)
}

func TestCreateTask_RequiresParent(t *testing.T) {
	m := newTestManager(t)
	_, err := m.CreateTask("Orphan", "", "", "", "")
	require.Error(t, err)
	me, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, CodeInvalidParent, me.Code)
}

func TestAddStep_RequiresCriteria(t *testing.T) {
	m := newTestManager(t)
	plan, _ := m.CreatePlan("P", "")
	task, _ := m.CreateTask("T", plan.ID, "", "", "")

	_, err := m.AddStep(task.ID, "", "Do the thing", nil, nil, nil, "")
	require.Error(t, err)
	me, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, CodeMissingFields, me.Code)
}

func TestAddStepThenComplete(t *testing.T) {
	m := newTestManager(t)
	plan, _ := m.CreatePlan("P", "")
	task, _ := m.CreateTask("T", plan.ID, "", "", "")

	step, err := m.AddStep(task.ID, "", "Do it", []string{"works"}, nil, nil, "")
	require.NoError(t, err)

	_, err = m.UpdateStepCheckpoint(task.ID, "", "s:0", node.CheckpointCriteria, true, "looks good")
	require.NoError(t, err)

	completed, err := m.SetStepCompleted(task.ID, "", "s:0", true, false, "")
	require.NoError(t, err)
	assert.True(t, completed.Completed)
	assert.Equal(t, step.ID, completed.ID)
}

func TestSetStepCompleted_RefusesWhenNotReady(t *testing.T) {
	m := newTestManager(t)
	plan, _ := m.CreatePlan("P", "")
	task, _ := m.CreateTask("T", plan.ID, "", "", "")
	_, _ = m.AddStep(task.ID, "", "Do it", []string{"works"}, nil, nil, "")

	_, err := m.SetStepCompleted(task.ID, "", "s:0", true, false, "")
	require.Error(t, err)
	me, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, CodeRunwayClosed, me.Code)
}

func TestSetStepCompleted_ForceRequiresOverrideReason(t *testing.T) {
	m := newTestManager(t)
	plan, _ := m.CreatePlan("P", "")
	task, _ := m.CreateTask("T", plan.ID, "", "", "")
	_, _ = m.AddStep(task.ID, "", "Do it", []string{"works"}, nil, nil, "")

	_, err := m.SetStepCompleted(task.ID, "", "s:0", true, true, "")
	require.Error(t, err)
	me, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, CodeMissingOverride, me.Code)
}

func TestUpdateTaskStatus_RunwayClosedWithoutForce(t *testing.T) {
	m := newTestManager(t)
	plan, _ := m.CreatePlan("P", "")
	task, _ := m.CreateTask("T", plan.ID, "", "", "")

	_, err := m.UpdateTaskStatus(task.ID, "", node.StatusDone, false)
	require.Error(t, err)
	me, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, CodeRunwayClosed, me.Code)
}

func TestSetDependsOn_RejectsCycle(t *testing.T) {
	m := newTestManager(t)
	plan, _ := m.CreatePlan("P", "")
	a, _ := m.CreateTask("A", plan.ID, "", "", "")
	b, _ := m.CreateTask("B", plan.ID, "", "", "")

	_, err := m.SetDependsOn(b.ID, "", []string{a.ID})
	require.NoError(t, err)

	_, err = m.SetDependsOn(a.ID, "", []string{b.ID})
	require.Error(t, err)
	de, ok := err.(*depgraph.Error)
	require.True(t, ok)
	assert.Equal(t, CodeCircularDeps, de.Code)
	require.NotEmpty(t, de.Cycle)
}

func TestDeleteTask_MovesToTrash(t *testing.T) {
	m := newTestManager(t)
	plan, _ := m.CreatePlan("P", "")
	task, _ := m.CreateTask("T", plan.ID, "", "", "")

	require.NoError(t, m.DeleteTask(task.ID, ""))

	_, err := m.Repo().Load(task.ID, repo.TrashDir)
	require.NoError(t, err, "trashed root is found under .trash/")
}

func TestAutoClean_ShieldsDependedOnTasks(t *testing.T) {
	m := newTestManager(t)
	m.RetentionDays = 1
	plan, _ := m.CreatePlan("P", "")

	stale, _ := m.CreateTask("Stale done", plan.ID, "", "", "")
	stale.Status = node.StatusDone
	stale.Updated = stale.Updated.AddDate(0, 0, -30)
	require.NoError(t, m.Save(stale, ""))

	dependent, _ := m.CreateTask("Depends on stale", plan.ID, "", "", "")
	_, err := m.SetDependsOn(dependent.ID, "", []string{stale.ID})
	require.NoError(t, err)

	_, err = m.AutoClean()
	require.NoError(t, err)

	_, err = m.Repo().Load(stale.ID, "")
	require.NoError(t, err, "shielded task must not be trashed")
}
