package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddStateSequenceAndFlowCode(t *testing.T) {
	s := New(t.TempDir())

	id1, err := s.AddState(1, 1, []string{"read main.go"})
	require.NoError(t, err)
	assert.Equal(t, "0001-S1P1", id1)

	id2, err := s.AddState(1, 2, []string{"edit main.go"})
	require.NoError(t, err)
	assert.Equal(t, "0002-S1P2", id2)

	id3, err := s.AddState(2, 1, []string{"run tests"})
	require.NoError(t, err)
	assert.Equal(t, "0003-S2P1", id3)

	// I5: schedule unchanged between steps 1 and 2 means no extra "S1".
	assert.Equal(t, "S1P1P2S2P1", s.GetFlowCode())

	st1, ok := s.GetState(id1)
	require.True(t, ok)
	assert.Equal(t, "", st1.Prev)
	assert.Equal(t, id2, st1.Next)

	st3, ok := s.GetState(id3)
	require.True(t, ok)
	assert.Equal(t, id2, st3.Prev)
	assert.Equal(t, "", st3.Next)
}

func TestAddStateWritesStateFileAtomically(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	id, err := s.AddState(1, 1, []string{"noop"})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "states", id+".state"))
	require.NoError(t, err)
	assert.Contains(t, string(data), id)
}

func TestAddStateHashChangesWithWorkspaceContent(t *testing.T) {
	workspace := t.TempDir()
	sessionDir := t.TempDir()
	s := New(sessionDir)
	s.workspaceRootForTest(workspace)

	require.NoError(t, os.WriteFile(filepath.Join(workspace, "a.txt"), []byte("one"), 0644))
	id1, err := s.AddState(1, 1, nil)
	require.NoError(t, err)
	st1, _ := s.GetState(id1)

	require.NoError(t, os.WriteFile(filepath.Join(workspace, "a.txt"), []byte("two"), 0644))
	id2, err := s.AddState(1, 2, nil)
	require.NoError(t, err)
	st2, _ := s.GetState(id2)

	assert.NotEqual(t, st1.FilesHash, st2.FilesHash)
}

func TestAddNoteAndGenerateSummary(t *testing.T) {
	s := New("")
	s.SetPrompt("fix the bug")
	s.AddNote(DestHuman, "needs review", "orchestrator")

	notes := s.Notes(DestHuman)
	require.Len(t, notes, 1)
	assert.Equal(t, "needs review", notes[0].Content)

	summary := s.GenerateSummary()
	assert.Contains(t, summary, "fix the bug")
	assert.Contains(t, summary, "human notes: 1")
}

func TestFreezeStateRequiresAtLeastOneState(t *testing.T) {
	s := New("")
	_, err := s.FreezeState()
	assert.Error(t, err)

	id, err := s.AddState(1, 1, nil)
	require.NoError(t, err)
	frozen, err := s.FreezeState()
	require.NoError(t, err)
	assert.Equal(t, id, frozen)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	s.SetPrompt("build a widget")
	s.AddNote(DestAgent, "remember to run tests", "human")

	_, err := s.AddState(1, 1, []string{"read main.go"})
	require.NoError(t, err)
	_, err = s.AddState(2, 1, []string{"run tests"})
	require.NoError(t, err)

	require.NoError(t, s.Save())

	for _, name := range []string{"meta.json", "flow.code", "restore.sh"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
	info, err := os.Stat(filepath.Join(dir, "restore.sh"))
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&0111, "restore.sh must be executable")

	loaded, err := Load(dir, s.ID())
	require.NoError(t, err)
	assert.Equal(t, s.ID(), loaded.ID())
	assert.Equal(t, "build a widget", loaded.prompt)
	assert.Equal(t, s.GetFlowCode(), loaded.GetFlowCode())
	assert.Len(t, loaded.GetAllStates(), 2)
	assert.Len(t, loaded.Notes(DestAgent), 1)
}

func TestLoadToleratesMissingEmbeddedStatesArray(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	_, err := s.AddState(1, 1, []string{"a"})
	require.NoError(t, err)
	_, err = s.AddState(1, 2, []string{"b"})
	require.NoError(t, err)
	require.NoError(t, s.Save())

	// Simulate a recurrence.json that only carries relations, not the
	// embedded states array.
	var rec recurrence
	require.NoError(t, readJSON(filepath.Join(dir, "states", "recurrence.json"), &rec))
	rec.States = nil
	require.NoError(t, writeJSONAtomic(filepath.Join(dir, "states", "recurrence.json"), rec))

	loaded, err := Load(dir, s.ID())
	require.NoError(t, err)
	states := loaded.GetAllStates()
	require.Len(t, states, 2)
	assert.Equal(t, "0001-S1P1", states[0].ID)
	assert.Equal(t, "0002-S1P2", states[1].ID)
}

func TestListSessions(t *testing.T) {
	base := t.TempDir()

	s1 := New(filepath.Join(base, "one"))
	require.NoError(t, s1.Save())
	s2 := New(filepath.Join(base, "two"))
	require.NoError(t, s2.Save())

	ids, err := ListSessions(base)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{s1.ID(), s2.ID()}, ids)
}

func TestCheckpointIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	_, err := s.AddState(1, 1, []string{"a"})
	require.NoError(t, err)

	require.NoError(t, s.Checkpoint())
	require.NoError(t, s.Checkpoint())

	loaded, err := Load(dir, s.ID())
	require.NoError(t, err)
	assert.Len(t, loaded.GetAllStates(), 1)
}
