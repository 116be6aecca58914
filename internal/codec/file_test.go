package codec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeforge/taskengine/internal/node"
)

func TestSerializeParse_TaskRoundTrip(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	task := &node.Task{
		ID:              "TASK-001",
		Title:           "Wire up the thing",
		Domain:          "backend",
		Phase:           "build",
		Component:       "api",
		Tags:            []string{"urgent", "infra"},
		Priority:        "high",
		Created:         now,
		Updated:         now,
		Parent:          "PLAN-001",
		DependsOn:       []string{"TASK-000"},
		Description:     "Does the thing.",
		Context:         "Some context.",
		SuccessCriteria: []string{"it works"},
		Status:          node.StatusActive,
		Steps: []*node.Step{
			{ID: "STEP-aaaa1111", Title: "first step", Completed: true},
		},
	}

	data, err := Serialize(task)
	require.NoError(t, err)

	parsed, err := Parse(data)
	require.NoError(t, err)
	got, ok := parsed.(*node.Task)
	require.True(t, ok)

	assert.Equal(t, task.ID, got.ID)
	assert.Equal(t, task.Title, got.Title)
	assert.Equal(t, task.Domain, got.Domain)
	assert.Equal(t, task.Parent, got.Parent)
	assert.Equal(t, task.DependsOn, got.DependsOn)
	assert.Equal(t, task.Description, got.Description)
	assert.Equal(t, task.SuccessCriteria, got.SuccessCriteria)
	assert.Equal(t, task.Status, got.Status)
	require.Len(t, got.Steps, 1)
	assert.Equal(t, "STEP-aaaa1111", got.Steps[0].ID)
	assert.True(t, got.Steps[0].Completed)
}

func TestSerializeParse_PlanRoundTrip(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	plan := &node.Plan{
		ID:        "PLAN-001",
		Title:     "Ship the feature",
		Domain:    "backend",
		Created:   now,
		Updated:   now,
		Contract:  "Build the feature end to end.",
		PlanSteps: []string{"design", "implement", "ship"},
	}

	data, err := Serialize(plan)
	require.NoError(t, err)

	parsed, err := Parse(data)
	require.NoError(t, err)
	got, ok := parsed.(*node.Plan)
	require.True(t, ok)

	assert.Equal(t, plan.ID, got.ID)
	assert.Equal(t, plan.Title, got.Title)
	assert.Equal(t, plan.Contract, got.Contract)
	assert.Equal(t, plan.PlanSteps, got.PlanSteps)
}

func TestParse_MissingDelimiterFails(t *testing.T) {
	_, err := Parse([]byte("no preamble here"))
	assert.Error(t, err)
}

func TestSerialize_UnsupportedRootType(t *testing.T) {
	_, err := Serialize(nil)
	assert.Error(t, err)
}
