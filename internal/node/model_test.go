package node

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewStep_AutoConfirmsEmptyTestsAndBlockersButNotCriteria(t *testing.T) {
	s := NewStep("STEP-1", "do it", []string{"c1"}, nil, nil, time.Now())
	assert.False(t, s.CriteriaCheckpoint.Satisfied())
	assert.True(t, s.TestsCheckpoint.Satisfied())
	assert.True(t, s.BlockersCheckpoint.Satisfied())
}

func TestStep_ReadyForCompletion_RequiresCriteriaAndTestsSatisfied(t *testing.T) {
	s := NewStep("STEP-1", "do it", []string{"c1"}, []string{"t1"}, nil, time.Now())
	assert.False(t, s.ReadyForCompletion())

	s.SetCheckpoint(CheckpointCriteria, true, "")
	assert.False(t, s.ReadyForCompletion())

	s.SetCheckpoint(CheckpointTests, true, "")
	assert.True(t, s.ReadyForCompletion())
}

func TestStep_ReadyForCompletion_FalseWhenBlocked(t *testing.T) {
	s := NewStep("STEP-1", "do it", nil, nil, nil, time.Now())
	s.SetCheckpoint(CheckpointCriteria, true, "")
	s.Blocked = true
	assert.False(t, s.ReadyForCompletion())
}

func TestStep_ReadyForCompletion_FalseWhenEmbeddedTaskNodeNotDone(t *testing.T) {
	s := NewStep("STEP-1", "do it", nil, nil, nil, time.Now())
	s.SetCheckpoint(CheckpointCriteria, true, "")
	s.Plan = &PlanNode{ID: "NODE-PLAN", Tasks: []*TaskNode{
		{ID: "NODE-1", Steps: []*Step{{Completed: false}}},
	}}
	assert.False(t, s.ReadyForCompletion())

	s.Plan.Tasks[0].Steps[0].Completed = true
	assert.True(t, s.ReadyForCompletion())
}

func TestTaskNode_Done_ManualStatusOverridesDescendants(t *testing.T) {
	tn := &TaskNode{StatusManual: true, Status: StatusDone, Steps: []*Step{{Completed: false}}}
	assert.True(t, tn.Done())

	tn.Status = StatusActive
	assert.False(t, tn.Done())
}

func TestTaskNode_Done_ComputedFromStepsWhenNotManual(t *testing.T) {
	tn := &TaskNode{Steps: []*Step{{Completed: true}, {Completed: false}}}
	assert.False(t, tn.Done())

	tn.Steps[1].Completed = true
	assert.True(t, tn.Done())
}

func TestTaskNode_Done_EmptyStepsIsNotDone(t *testing.T) {
	tn := &TaskNode{}
	assert.False(t, tn.Done())
}

func TestTask_ComputeStatus_BlockedWins(t *testing.T) {
	task := &Task{Blocked: true, SuccessCriteria: []string{"c"}}
	assert.Equal(t, StatusBlocked, task.ComputeStatus())
}

func TestTask_ComputeStatus_DoneRequiresCriteriaAndAllStepsComplete(t *testing.T) {
	task := &Task{
		SuccessCriteria: []string{"c"},
		Steps:           []*Step{{Completed: true}},
	}
	assert.Equal(t, StatusDone, task.ComputeStatus())

	task.Steps = append(task.Steps, &Step{Completed: false})
	assert.Equal(t, StatusActive, task.ComputeStatus())
}

func TestTask_ComputeStatus_EmptyCriteriaNeverDoneEvenAt100Percent(t *testing.T) {
	task := &Task{Steps: []*Step{{Completed: true}}}
	assert.Equal(t, StatusActive, task.ComputeStatus())
}

func TestTask_ComputeStatus_PendingWhenNoProgress(t *testing.T) {
	task := &Task{}
	assert.Equal(t, StatusPending, task.ComputeStatus())
}

func TestTask_Progress_CountsNestedEmbeddedSteps(t *testing.T) {
	task := &Task{Steps: []*Step{
		{Completed: true},
		{
			Completed: false,
			Plan: &PlanNode{Tasks: []*TaskNode{
				{Steps: []*Step{{Completed: true}, {Completed: false}}},
			}},
		},
	}}
	// total = 1 (root) + 1 (embedded parent) + 2 (nested) = 4, done = 2
	assert.Equal(t, 50, task.Progress())
}
