package depgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_RejectsMalformedID(t *testing.T) {
	err := Validate("TASK-001", []string{"not-a-task-id"}, map[string][]string{})
	require.NotNil(t, err)
	assert.Equal(t, "INVALID_DEPENDENCY_ID", err.Code)
}

func TestValidate_RejectsSelfDependency(t *testing.T) {
	err := Validate("TASK-001", []string{"TASK-001"}, map[string][]string{})
	require.NotNil(t, err)
	assert.Equal(t, "INVALID_DEPENDENCIES", err.Code)
}

func TestValidate_RejectsUnknownDependency(t *testing.T) {
	err := Validate("TASK-001", []string{"TASK-999"}, map[string][]string{"TASK-002": nil})
	require.NotNil(t, err)
	assert.Equal(t, "INVALID_DEPENDENCIES", err.Code)
	assert.Contains(t, err.Invalid, "TASK-999")
}

func TestValidate_AcceptsAcyclicAddition(t *testing.T) {
	existing := map[string][]string{
		"TASK-002": {},
		"TASK-003": {"TASK-002"},
	}
	err := Validate("TASK-001", []string{"TASK-002", "TASK-003"}, existing)
	assert.Nil(t, err)
}

func TestValidate_DetectsDirectCycle(t *testing.T) {
	existing := map[string][]string{
		"TASK-002": {"TASK-001"},
	}
	err := Validate("TASK-001", []string{"TASK-002"}, existing)
	require.NotNil(t, err)
	assert.Equal(t, "CIRCULAR_DEPENDENCY", err.Code)
	require.NotEmpty(t, err.Cycle)
	assert.Equal(t, err.Cycle[0], err.Cycle[len(err.Cycle)-1])
}

func TestValidate_Scenario4_CycleStartsAtExistingDependent(t *testing.T) {
	// spec scenario 4: TASK-001 depends_on [TASK-002] already exists;
	// edit{task: TASK-002, depends_on: [TASK-001]} must report the cycle
	// as [TASK-001, TASK-002, TASK-001], not [TASK-002, TASK-001, TASK-002].
	existing := map[string][]string{
		"TASK-001": {"TASK-002"},
	}
	err := Validate("TASK-002", []string{"TASK-001"}, existing)
	require.NotNil(t, err)
	assert.Equal(t, "CIRCULAR_DEPENDENCY", err.Code)
	assert.Equal(t, []string{"TASK-001", "TASK-002", "TASK-001"}, err.Cycle)
}

func TestValidate_DetectsTransitiveCycle(t *testing.T) {
	existing := map[string][]string{
		"TASK-002": {"TASK-003"},
		"TASK-003": {"TASK-001"},
	}
	err := Validate("TASK-001", []string{"TASK-002"}, existing)
	require.NotNil(t, err)
	assert.Equal(t, "CIRCULAR_DEPENDENCY", err.Code)
}

func TestDetectCycle_NoExistingCycle(t *testing.T) {
	g := Build(map[string][]string{
		"TASK-001": {"TASK-002"},
		"TASK-002": {},
	})
	assert.Nil(t, g.DetectCycle())
}

func TestDetectCycle_FindsExistingCycle(t *testing.T) {
	g := Build(map[string][]string{
		"TASK-001": {"TASK-002"},
		"TASK-002": {"TASK-001"},
	})
	cycle := g.DetectCycle()
	require.NotEmpty(t, cycle)
	assert.Equal(t, cycle[0], cycle[len(cycle)-1])
}
