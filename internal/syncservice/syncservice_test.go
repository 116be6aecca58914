package syncservice

import (
	"testing"

	"github.com/nodeforge/taskengine/internal/node"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoop_IsDisabledAndInert(t *testing.T) {
	var svc Service = Noop{}
	assert.False(t, svc.Enabled())

	task := &node.Task{ID: "TASK-001"}
	remoteID, err := svc.SyncTask(task)
	require.NoError(t, err)
	assert.Empty(t, remoteID)

	changed, err := svc.PullTaskFields(task)
	require.NoError(t, err)
	assert.False(t, changed)

	assert.NotNil(t, svc.Clone())
}
