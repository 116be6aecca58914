package state

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFocusPointer_RoundTrip(t *testing.T) {
	root := t.TempDir()

	_, ok := ReadFocus(root)
	assert.False(t, ok, "no file yet means no focus")

	require.NoError(t, SetFocus(root, "TASK-007", "backend/api"))

	fp, ok := ReadFocus(root)
	require.True(t, ok)
	assert.Equal(t, "TASK-007", fp.ID)
	assert.Equal(t, "backend/api", fp.Domain)
}

func TestFocusPointer_EmptyDomainStillHasAt(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, SetFocus(root, "PLAN-001", ""))

	fp, ok := ReadFocus(root)
	require.True(t, ok)
	assert.Equal(t, "PLAN-001", fp.ID)
	assert.Equal(t, "", fp.Domain)
}

func TestFocusPointer_MalformedYieldsNoFocus(t *testing.T) {
	root := t.TempDir()
	path := focusPath(root)
	require.NoError(t, os.WriteFile(path, []byte("@"), 0o644))

	_, ok := ReadFocus(root)
	assert.False(t, ok)
}

func TestFocusPointer_ClearRemovesFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, SetFocus(root, "TASK-001", ""))
	require.NoError(t, ClearFocus(root))

	_, ok := ReadFocus(root)
	assert.False(t, ok)

	// clearing again is a no-op
	assert.NoError(t, ClearFocus(root))
}

func TestHistory_AppendUndoRedo(t *testing.T) {
	root := t.TempDir()

	require.NoError(t, Append(root, HistoryEntry{RootID: "TASK-001", Intent: "done", Before: []byte("a"), After: []byte("b")}))
	require.NoError(t, Append(root, HistoryEntry{RootID: "TASK-001", Intent: "note", Before: []byte("b"), After: []byte("c")}))

	entry, ok, err := Undo(root)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "note", entry.Intent)

	entry, ok, err = Undo(root)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "done", entry.Intent)

	_, ok, err = Undo(root)
	require.NoError(t, err)
	assert.False(t, ok, "nothing left to undo")

	entry, ok, err = Redo(root)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "done", entry.Intent)
}

func TestHistory_AppendAfterUndoDiscardsRedoTail(t *testing.T) {
	root := t.TempDir()

	require.NoError(t, Append(root, HistoryEntry{Intent: "one"}))
	require.NoError(t, Append(root, HistoryEntry{Intent: "two"}))
	_, _, _ = Undo(root)

	require.NoError(t, Append(root, HistoryEntry{Intent: "three"}))

	h, err := LoadHistory(root)
	require.NoError(t, err)
	require.Len(t, h.Entries, 2)
	assert.Equal(t, "one", h.Entries[0].Intent)
	assert.Equal(t, "three", h.Entries[1].Intent)

	_, ok, err := Redo(root)
	require.NoError(t, err)
	assert.False(t, ok, "redo tail was discarded by the new append")
}
