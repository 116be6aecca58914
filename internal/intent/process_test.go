package intent

import (
	"testing"

	"github.com/nodeforge/taskengine/internal/manager"
	"github.com/nodeforge/taskengine/internal/node"
	"github.com/nodeforge/taskengine/internal/syncservice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *manager.Manager {
	t.Helper()
	m, err := manager.New(t.TempDir(), syncservice.Noop{}, false, 0, 100)
	require.NoError(t, err)
	return m
}

func createPlanAndTask(t *testing.T, m *manager.Manager) (planID, taskID string) {
	t.Helper()
	planResp := Process(m, Request{Intent: "create", Kind: "plan", Title: "P"})
	require.True(t, planResp.Success, planResp.ErrorMessage)
	planID = planResp.Result.(map[string]any)["id"].(string)

	taskResp := Process(m, Request{Intent: "create", Kind: "task", Title: "T", Parent: planID})
	require.True(t, taskResp.Success, taskResp.ErrorMessage)
	taskID = taskResp.Result.(map[string]any)["id"].(string)
	return planID, taskID
}

func TestProcess_CreateDecomposeVerifyDone(t *testing.T) {
	m := newTestManager(t)
	_, taskID := createPlanAndTask(t, m)

	decResp := Process(m, Request{
		Intent: "decompose", Task: taskID, ExpectedTargetID: taskID,
		Steps: []StepSpec{{Title: "S", Criteria: []string{"c"}, Tests: []string{"t"}, Blockers: []string{"b"}}},
	})
	require.True(t, decResp.Success, decResp.ErrorMessage)

	confirmed := true
	verifyResp := Process(m, Request{
		Intent: "verify", Task: taskID, Path: "s:0", ExpectedTargetID: taskID,
		Checkpoints: map[string]CheckpointInput{
			"criteria": {Confirmed: &confirmed},
			"tests":    {Confirmed: &confirmed},
			"blockers": {Confirmed: &confirmed},
		},
	})
	require.True(t, verifyResp.Success, verifyResp.ErrorMessage)

	doneResp := Process(m, Request{Intent: "done", Task: taskID, Path: "s:0", ExpectedTargetID: taskID})
	require.True(t, doneResp.Success, doneResp.ErrorMessage)

	_, err := m.Repo().Load(taskID, "")
	require.NoError(t, err)
}

func TestProcess_VerifyNoopWhenNoCheckpointConfirmed(t *testing.T) {
	m := newTestManager(t)
	_, taskID := createPlanAndTask(t, m)
	decResp := Process(m, Request{
		Intent: "decompose", Task: taskID, ExpectedTargetID: taskID,
		Steps: []StepSpec{{Title: "S", Criteria: []string{"c"}}},
	})
	require.True(t, decResp.Success, decResp.ErrorMessage)

	resp := Process(m, Request{
		Intent: "verify", Task: taskID, Path: "s:0", ExpectedTargetID: taskID,
		Checkpoints: map[string]CheckpointInput{},
	})
	assert.False(t, resp.Success)
	assert.Equal(t, "VERIFY_NOOP", resp.ErrorCode)
}

func TestProcess_RevisionGate(t *testing.T) {
	m := newTestManager(t)
	_, taskID := createPlanAndTask(t, m)
	decResp := Process(m, Request{
		Intent: "decompose", Task: taskID, ExpectedTargetID: taskID,
		Steps: []StepSpec{{Title: "S", Criteria: []string{"c"}}},
	})
	require.True(t, decResp.Success, decResp.ErrorMessage)

	root, err := m.Repo().Load(taskID, "")
	require.NoError(t, err)
	rev := root.GetRevision()

	r1 := Process(m, Request{
		Intent: "note", Task: taskID, Path: "s:0", Note: "x",
		ExpectedTargetID: taskID, ExpectedRevision: &rev,
	})
	require.True(t, r1.Success, r1.ErrorMessage)

	r2 := Process(m, Request{
		Intent: "note", Task: taskID, Path: "s:0", Note: "y",
		ExpectedTargetID: taskID, ExpectedRevision: &rev,
	})
	assert.False(t, r2.Success)
	assert.Equal(t, "REVISION_MISMATCH", r2.ErrorCode)
}

func TestProcess_StrictTargetingRequiredWithMultipleActiveRoots(t *testing.T) {
	m := newTestManager(t)
	_, taskID := createPlanAndTask(t, m)

	resp := Process(m, Request{Intent: "note", Task: taskID, Note: "x"})
	assert.False(t, resp.Success)
	assert.Equal(t, "STRICT_TARGETING_REQUIRES_EXPECTED_TARGET_ID", resp.ErrorCode)

	resp2 := Process(m, Request{Intent: "note", Task: taskID, Note: "x", ExpectedTargetID: "TASK-999"})
	assert.False(t, resp2.Success)
	assert.Equal(t, "EXPECTED_TARGET_MISMATCH", resp2.ErrorCode)
}

func TestProcess_CompleteIsDoneWithForceAndDefaultedReason(t *testing.T) {
	m := newTestManager(t)
	_, taskID := createPlanAndTask(t, m)
	decResp := Process(m, Request{
		Intent: "decompose", Task: taskID, ExpectedTargetID: taskID,
		Steps: []StepSpec{{Title: "S", Criteria: []string{"c"}, Tests: []string{"t"}, Blockers: []string{"b"}}},
	})
	require.True(t, decResp.Success, decResp.ErrorMessage)

	resp := Process(m, Request{Intent: "complete", Task: taskID, Path: "s:0", ExpectedTargetID: taskID})
	require.True(t, resp.Success, resp.ErrorMessage)

	root, err := m.Repo().Load(taskID, "")
	require.NoError(t, err)
	task, ok := root.(*node.Task)
	require.True(t, ok)
	require.NotEmpty(t, task.Steps)
	assert.True(t, task.Steps[0].Completed)
}

func TestProcess_EditRejectsCycleAndReportsCyclePath(t *testing.T) {
	// spec scenario 4: TASK-001 depends_on [TASK-002]; edit{task: TASK-002,
	// depends_on: [TASK-001]} must fail CIRCULAR_DEPENDENCY and surface
	// result.cycle = [TASK-001, TASK-002, TASK-001], leaving the store
	// unchanged.
	m := newTestManager(t)
	planResp := Process(m, Request{Intent: "create", Kind: "plan", Title: "P"})
	require.True(t, planResp.Success, planResp.ErrorMessage)
	planID := planResp.Result.(map[string]any)["id"].(string)

	task1Resp := Process(m, Request{Intent: "create", Kind: "task", Title: "One", Parent: planID})
	require.True(t, task1Resp.Success, task1Resp.ErrorMessage)
	task1ID := task1Resp.Result.(map[string]any)["id"].(string)

	task2Resp := Process(m, Request{Intent: "create", Kind: "task", Title: "Two", Parent: planID})
	require.True(t, task2Resp.Success, task2Resp.ErrorMessage)
	task2ID := task2Resp.Result.(map[string]any)["id"].(string)

	editResp := Process(m, Request{
		Intent: "edit", Task: task1ID, ExpectedTargetID: task1ID,
		DependsOn: []string{task2ID},
	})
	require.True(t, editResp.Success, editResp.ErrorMessage)

	cycleResp := Process(m, Request{
		Intent: "edit", Task: task2ID, ExpectedTargetID: task2ID,
		DependsOn: []string{task1ID},
	})
	require.False(t, cycleResp.Success)
	assert.Equal(t, "CIRCULAR_DEPENDENCY", cycleResp.ErrorCode)
	result, ok := cycleResp.Result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []string{task1ID, task2ID, task1ID}, result["cycle"])

	root, err := m.Repo().Load(task2ID, "")
	require.NoError(t, err)
	task2, ok := root.(*node.Task)
	require.True(t, ok)
	assert.Empty(t, task2.DependsOn)
}

func TestProcess_RadarNextRanksReadyBeforeActiveBeforeBlocked(t *testing.T) {
	m := newTestManager(t)
	_, taskID := createPlanAndTask(t, m)

	decResp := Process(m, Request{
		Intent: "decompose", Task: taskID, ExpectedTargetID: taskID,
		Steps: []StepSpec{
			{Title: "Active one", Criteria: []string{"c"}, Tests: []string{"t"}, Blockers: []string{"b"}},
			{Title: "Blocked one", Criteria: []string{"c"}, Tests: []string{"t"}, Blockers: []string{"b"}},
			{Title: "Ready one", Criteria: []string{"c"}, Tests: []string{"t"}, Blockers: []string{"b"}},
		},
	})
	require.True(t, decResp.Success, decResp.ErrorMessage)

	blockedResp := Process(m, Request{Intent: "block", Task: taskID, Path: "s:1", ExpectedTargetID: taskID})
	require.True(t, blockedResp.Success, blockedResp.ErrorMessage)

	confirmed := true
	verifyResp := Process(m, Request{
		Intent: "verify", Task: taskID, Path: "s:2", ExpectedTargetID: taskID,
		Checkpoints: map[string]CheckpointInput{
			"criteria": {Confirmed: &confirmed},
			"tests":    {Confirmed: &confirmed},
			"blockers": {Confirmed: &confirmed},
		},
	})
	require.True(t, verifyResp.Success, verifyResp.ErrorMessage)

	radarResp := Process(m, Request{Intent: "radar", Task: taskID, ExpectedTargetID: taskID})
	require.True(t, radarResp.Success, radarResp.ErrorMessage)
	radar, ok := radarResp.Result.(RadarResult)
	require.True(t, ok)
	require.Len(t, radar.Next, 3)
	assert.Equal(t, "s:2", radar.Next[0].Params["path"], "ready step must rank first")
	assert.Equal(t, "s:0", radar.Next[1].Params["path"], "active step must rank second")
	assert.Equal(t, "s:1", radar.Next[2].Params["path"], "blocked step must rank last")
}

func TestProcess_BatchAtomicDefaultsTrueAndRollsBackOnFailure(t *testing.T) {
	m := newTestManager(t)
	_, taskID := createPlanAndTask(t, m)

	resp := Process(m, Request{
		Intent: "batch",
		Operations: []Request{
			{Intent: "note", Task: taskID, ExpectedTargetID: taskID, Note: "first"},
			{Intent: "bogus", Task: taskID, ExpectedTargetID: taskID},
		},
	})
	assert.False(t, resp.Success)

	root, err := m.Repo().Load(taskID, "")
	require.NoError(t, err)
	task, ok := root.(*node.Task)
	require.True(t, ok)
	assert.Empty(t, task.History, "atomic batch must default to true and roll back the partial note")
}

func TestProcess_UnknownIntent(t *testing.T) {
	m := newTestManager(t)
	resp := Process(m, Request{Intent: "bogus"})
	assert.False(t, resp.Success)
	assert.Equal(t, "UNKNOWN_INTENT", resp.ErrorCode)
}

func TestProcess_CloseTaskRunwayClosedThenRecipeOpensIt(t *testing.T) {
	m := newTestManager(t)
	_, taskID := createPlanAndTask(t, m)

	closeResp := Process(m, Request{Intent: "close_task", Task: taskID, ExpectedTargetID: taskID, Apply: true})
	assert.False(t, closeResp.Success)
	assert.Equal(t, "RUNWAY_CLOSED", closeResp.ErrorCode)

	previewResp := Process(m, Request{Intent: "close_task", Task: taskID, ExpectedTargetID: taskID, Apply: false})
	require.True(t, previewResp.Success, previewResp.ErrorMessage)
	runway := previewResp.Result.(map[string]any)["runway"].(Runway)
	require.NotNil(t, runway.Recipe)

	patchResp := Process(m, Request{
		Intent: "patch", Task: taskID, ExpectedTargetID: taskID,
		Ops: runway.Recipe.Ops,
	})
	require.True(t, patchResp.Success, patchResp.ErrorMessage)

	closeResp2 := Process(m, Request{Intent: "close_task", Task: taskID, ExpectedTargetID: taskID, Apply: true})
	assert.True(t, closeResp2.Success, closeResp2.ErrorMessage)
}

func TestProcess_UndoRedoRestoresPriorState(t *testing.T) {
	m := newTestManager(t)
	_, taskID := createPlanAndTask(t, m)

	patchResp := Process(m, Request{
		Intent: "patch", Task: taskID, ExpectedTargetID: taskID,
		Ops: []PatchOp{{Op: "append", Field: "risks", Value: "scope creep"}},
	})
	require.True(t, patchResp.Success, patchResp.ErrorMessage)

	afterPatch, err := m.Repo().Load(taskID, "")
	require.NoError(t, err)
	task, ok := afterPatch.(*node.Task)
	require.True(t, ok)
	assert.Equal(t, []string{"scope creep"}, task.Risks)

	undoResp := Process(m, Request{Intent: "undo"})
	require.True(t, undoResp.Success, undoResp.ErrorMessage)
	afterUndo, err := m.Repo().Load(taskID, "")
	require.NoError(t, err)
	task, _ = afterUndo.(*node.Task)
	assert.Empty(t, task.Risks)

	redoResp := Process(m, Request{Intent: "redo"})
	require.True(t, redoResp.Success, redoResp.ErrorMessage)
	afterRedo, err := m.Repo().Load(taskID, "")
	require.NoError(t, err)
	task, _ = afterRedo.(*node.Task)
	assert.Equal(t, []string{"scope creep"}, task.Risks)
}
