package usf

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ollamabot/agentcore/pkg/session"
)

func TestValidateRejectsEmptyFields(t *testing.T) {
	assert.Error(t, Validate(&UnifiedSession{}))
	assert.Error(t, Validate(&UnifiedSession{SessionID: "x"}))
	assert.NoError(t, Validate(&UnifiedSession{SessionID: "x", Version: FormatVersion}))
}

func TestToUSFMapsStatesToSteps(t *testing.T) {
	s := session.New("")
	_, err := s.AddState(1, 1, []string{"read main.go"})
	require.NoError(t, err)
	_, err = s.AddState(1, 2, []string{"edit main.go"})
	require.NoError(t, err)

	u := ToUSF(s, OriginCLI, WorkspaceBlock{Path: "/repo"}, TaskBlock{Description: "fix bug"})

	assert.Equal(t, FormatVersion, u.Version)
	assert.Equal(t, s.ID(), u.SessionID)
	require.Len(t, u.Steps, 2)
	assert.Equal(t, "schedule.S1P1", u.Steps[0].ToolID)
	assert.Equal(t, "schedule.S1P2", u.Steps[1].ToolID)
	assert.True(t, u.Steps[0].Success)
	assert.Equal(t, 1, u.Orchestration.CurrentSchedule)
	assert.Equal(t, 2, u.Orchestration.CurrentProcess)
	assert.Equal(t, []int{1}, u.Orchestration.CompletedSchedules)
}

func TestFromUSFReconstructsStatesInOrder(t *testing.T) {
	u := &UnifiedSession{
		Version:   FormatVersion,
		SessionID: "abc",
		Task:      TaskBlock{Description: "fix bug"},
		Orchestration: OrchestrationBlock{
			FlowCode: "S1P1P2",
		},
		Steps: []Step{
			{Number: 1, ToolID: "schedule.S1P1", Output: "read main.go", Success: true},
			{Number: 2, ToolID: "schedule.S1P2", Output: "edit main.go", Success: true},
		},
	}

	s, err := FromUSF(u, "")
	require.NoError(t, err)
	states := s.GetAllStates()
	require.Len(t, states, 2)
	assert.Equal(t, "0001-S1P1", states[0].ID)
	assert.Equal(t, "0002-S1P2", states[1].ID)
	assert.Contains(t, s.GenerateSummary(), "fix bug")
}

func TestToUSFThenFromUSFRoundTripsFlowCode(t *testing.T) {
	s := session.New("")
	_, err := s.AddState(1, 1, []string{"a"})
	require.NoError(t, err)
	_, err = s.AddState(2, 1, []string{"b"})
	require.NoError(t, err)

	u := ToUSF(s, OriginIDE, WorkspaceBlock{}, TaskBlock{})
	reconstructed, err := FromUSF(u, "")
	require.NoError(t, err)

	assert.Equal(t, s.GetFlowCode(), reconstructed.GetFlowCode())
	assert.Len(t, reconstructed.GetAllStates(), len(s.GetAllStates()))
}

func TestSaveUSFThenLoadUSF(t *testing.T) {
	dir := t.TempDir()
	u := &UnifiedSession{Version: FormatVersion, SessionID: "sess-1", Task: TaskBlock{Description: "t"}}

	require.NoError(t, SaveUSF(dir, u))
	loaded, err := LoadUSF(dir, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, u.SessionID, loaded.SessionID)
	assert.Equal(t, u.Task.Description, loaded.Task.Description)
}

func TestLoadAnySessionFallsBackToLegacy(t *testing.T) {
	dir := t.TempDir()
	legacyPath := filepath.Join(dir, "legacy_sessions", "old-1")
	require.NoError(t, os.MkdirAll(legacyPath, 0755))

	legacy := legacyUSF{
		SessionID:   "old-1",
		Description: "legacy task",
		Workspace:   "/repo",
		FlowCode:    "S1P1",
		Steps:       []legacyStep{{ToolID: "schedule.S1P1", Output: "did a thing"}},
	}
	data, err := json.Marshal(legacy)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(legacyPath, legacyUSFFilename), data, 0644))

	u, err := LoadAnySession(dir, "old-1")
	require.NoError(t, err)
	assert.Equal(t, "legacy task", u.Task.Description)
	assert.Equal(t, FormatVersion, u.Version)
	require.Len(t, u.Steps, 1)
	assert.True(t, u.Steps[0].Success)
}

func TestSaveAnySessionMigratesLegacyDirectory(t *testing.T) {
	dir := t.TempDir()
	legacyPath := filepath.Join(dir, "legacy_sessions", "old-2")
	require.NoError(t, os.MkdirAll(legacyPath, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(legacyPath, legacyUSFFilename), []byte(`{"session_id":"old-2"}`), 0644))

	u := &UnifiedSession{Version: FormatVersion, SessionID: "old-2"}
	require.NoError(t, SaveAnySession(dir, u))

	_, err := os.Stat(legacyPath)
	assert.True(t, os.IsNotExist(err), "legacy directory should have been renamed away")

	_, err = os.Stat(filepath.Join(dir, "legacy_sessions", ".migrated_old-2"))
	assert.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "sessions", "old-2.json"))
	assert.NoError(t, err)
}

func TestListAllSessionsUnionsLayoutsWithoutDuplicates(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, SaveUSF(dir, &UnifiedSession{Version: FormatVersion, SessionID: "shared"}))
	require.NoError(t, SaveUSF(dir, &UnifiedSession{Version: FormatVersion, SessionID: "unified-only"}))

	legacyPath := filepath.Join(dir, "legacy_sessions", "shared")
	require.NoError(t, os.MkdirAll(legacyPath, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(legacyPath, legacyUSFFilename), []byte(`{"session_id":"shared"}`), 0644))

	legacyOnly := filepath.Join(dir, "legacy_sessions", "legacy-only")
	require.NoError(t, os.MkdirAll(legacyOnly, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(legacyOnly, legacyUSFFilename), []byte(`{"session_id":"legacy-only"}`), 0644))

	migrated := filepath.Join(dir, "legacy_sessions", ".migrated_gone")
	require.NoError(t, os.MkdirAll(migrated, 0755))

	ids, err := ListAllSessions(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"shared", "unified-only", "legacy-only"}, ids)
}
