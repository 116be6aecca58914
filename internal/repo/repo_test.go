package repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeforge/taskengine/internal/node"
)

func newTask(id, domain string) *node.Task {
	return &node.Task{ID: id, Title: "t", Domain: domain, Status: node.StatusPending}
}

func TestSave_BumpsRevisionAndLoad_RoundTrips(t *testing.T) {
	r, err := Open(t.TempDir())
	require.NoError(t, err)

	task := newTask("TASK-001", "")
	require.NoError(t, r.Save(task))
	assert.Equal(t, 1, task.Revision)

	loaded, err := r.Load("TASK-001", "")
	require.NoError(t, err)
	lt, ok := loaded.(*node.Task)
	require.True(t, ok)
	assert.Equal(t, "TASK-001", lt.ID)
	assert.Equal(t, 1, lt.Revision)

	require.NoError(t, r.Save(lt))
	assert.Equal(t, 2, lt.Revision)
}

func TestLoad_FindsRootAcrossDomainsWhenDomainWrong(t *testing.T) {
	r, err := Open(t.TempDir())
	require.NoError(t, err)

	task := newTask("TASK-001", "backend")
	require.NoError(t, r.Save(task))

	loaded, err := r.Load("TASK-001", "")
	require.NoError(t, err)
	assert.Equal(t, "backend", loaded.GetDomain())
}

func TestLoad_MissingReturnsNotFoundError(t *testing.T) {
	r, err := Open(t.TempDir())
	require.NoError(t, err)

	_, err = r.Load("TASK-999", "")
	require.Error(t, err)
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestList_SkipsTrashAndSnapshots(t *testing.T) {
	r, err := Open(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, r.Save(newTask("TASK-001", "")))
	require.NoError(t, r.Save(newTask("TASK-002", TrashDir)))

	roots, err := r.List("")
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, "TASK-001", roots[0].RootID())
}

func TestMove_RelocatesFileAndUpdatesDomain(t *testing.T) {
	r, err := Open(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, r.Save(newTask("TASK-001", "")))

	require.NoError(t, r.Move("TASK-001", "", TrashDir))

	_, err = r.Load("TASK-001", TrashDir)
	require.NoError(t, err)

	roots, err := r.List("")
	require.NoError(t, err)
	assert.Empty(t, roots)
}

func TestDelete_RemovesFile(t *testing.T) {
	r, err := Open(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, r.Save(newTask("TASK-001", "")))

	require.NoError(t, r.Delete("TASK-001", ""))

	_, err = r.Load("TASK-001", "")
	assert.Error(t, err)
}

func TestComputeSignature_ChangesWhenFileMutated(t *testing.T) {
	r, err := Open(t.TempDir())
	require.NoError(t, err)
	task := newTask("TASK-001", "")
	require.NoError(t, r.Save(task))

	sig1, err := r.ComputeSignature()
	require.NoError(t, err)

	task.Title = "changed"
	require.NoError(t, r.Save(task))

	sig2, err := r.ComputeSignature()
	require.NoError(t, err)
	assert.NotEqual(t, sig1, sig2)
}

func TestCleanFiltered_RemovesOnlyMatchingDoneTasks(t *testing.T) {
	r, err := Open(t.TempDir())
	require.NoError(t, err)

	done := newTask("TASK-001", "")
	done.Status = node.StatusDone
	done.Phase = "build"
	require.NoError(t, r.Save(done))

	active := newTask("TASK-002", "")
	active.Status = node.StatusActive
	require.NoError(t, r.Save(active))

	n, err := r.CleanFiltered(CleanFilter{Phase: "build"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	roots, err := r.List("")
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, "TASK-002", roots[0].RootID())
}
