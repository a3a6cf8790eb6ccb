package usf

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/ollamabot/agentcore/pkg/apperrors"
)

const legacyUSFFilename = "session.usf"

// legacyUSF is the historical on-disk shape this converter migrates
// away from: a directory per session containing one session.usf file.
// Its field set is a strict subset of UnifiedSession's — legacy
// sessions recorded only a flow code for orchestration and no stats —
// so the conversion in convertLegacyToUnified carries the flow code over
// and leaves the other orchestration fields and the stats block zero.
type legacyUSF struct {
	SessionID   string         `json:"session_id"`
	Description string         `json:"description"`
	Workspace   string         `json:"workspace"`
	FlowCode    string         `json:"flow_code"`
	Steps       []legacyStep   `json:"steps"`
}

type legacyStep struct {
	ToolID string `json:"tool_id"`
	Output string `json:"output"`
}

// sessionsDir returns <config_dir>/sessions (spec §4.7 "save_usf").
func sessionsDir(configDir string) string {
	return filepath.Join(configDir, "sessions")
}

// SaveUSF writes usf to <config_dir>/sessions/<session_id>.json as
// pretty JSON (spec §4.7 "save_usf"), atomically.
func SaveUSF(configDir string, u *UnifiedSession) error {
	if err := Validate(u); err != nil {
		return err
	}
	dir := sessionsDir(configDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return apperrors.Wrap(apperrors.KindIO, "failed to create sessions directory", err)
	}
	data, err := json.MarshalIndent(u, "", "  ")
	if err != nil {
		return apperrors.Wrap(apperrors.KindIO, "failed to marshal UnifiedSession", err)
	}
	target := filepath.Join(dir, u.SessionID+".json")
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return apperrors.Wrap(apperrors.KindIO, "failed to write usf file", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return apperrors.Wrap(apperrors.KindIO, "failed to finalize usf file", err)
	}
	return nil
}

// LoadUSF reads <config_dir>/sessions/<session_id>.json.
func LoadUSF(configDir, sessionID string) (*UnifiedSession, error) {
	data, err := os.ReadFile(filepath.Join(sessionsDir(configDir), sessionID+".json"))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindNotFound, "usf file not found", err)
	}
	var u UnifiedSession
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, apperrors.Wrap(apperrors.KindIO, "failed to parse usf file", err)
	}
	return &u, nil
}

// legacyDir returns the historical per-session LegacyUSF directory path.
func legacyDir(configDir, sessionID string) string {
	return filepath.Join(configDir, "legacy_sessions", sessionID)
}

// loadLegacy reads a LegacyUSF directory's session.usf file.
func loadLegacy(configDir, sessionID string) (*legacyUSF, error) {
	data, err := os.ReadFile(filepath.Join(legacyDir(configDir, sessionID), legacyUSFFilename))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindNotFound, "legacy usf file not found", err)
	}
	var l legacyUSF
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, apperrors.Wrap(apperrors.KindIO, "failed to parse legacy usf file", err)
	}
	return &l, nil
}

// convertLegacyToUnified implements spec §4.7's
// "convert_legacy_to_unified": legacy sessions carry only a flow code
// and no stats, so the flow code is copied into the orchestration block,
// its other fields and the stats block default to zero values, and every
// step is reported successful (legacy format never recorded failure).
func convertLegacyToUnified(l *legacyUSF) *UnifiedSession {
	steps := make([]Step, 0, len(l.Steps))
	for i, st := range l.Steps {
		steps = append(steps, Step{
			Number:  i + 1,
			ToolID:  st.ToolID,
			Output:  st.Output,
			Success: true,
		})
	}
	return &UnifiedSession{
		Version:   FormatVersion,
		SessionID: l.SessionID,
		Origin:    OriginCLI,
		Task:      TaskBlock{Description: l.Description},
		Workspace: WorkspaceBlock{Path: l.Workspace},
		Orchestration: OrchestrationBlock{
			FlowCode: l.FlowCode,
		},
		Steps:       steps,
		Checkpoints: []string{},
	}
}

// LoadAnySession implements spec §4.7 "load_any_session(id)": try the
// Unified format first, fall back to Legacy and convert on read.
func LoadAnySession(configDir, sessionID string) (*UnifiedSession, error) {
	u, err := LoadUSF(configDir, sessionID)
	if err == nil {
		return u, nil
	}
	legacy, legacyErr := loadLegacy(configDir, sessionID)
	if legacyErr != nil {
		return nil, err
	}
	return convertLegacyToUnified(legacy), nil
}

// SaveAnySession implements spec §4.7 "save_any_session": always writes
// the Unified format; if a Legacy directory with the same id exists, it
// is renamed to ".migrated_<id>" so a subsequent load never picks it up
// again.
func SaveAnySession(configDir string, u *UnifiedSession) error {
	if err := SaveUSF(configDir, u); err != nil {
		return err
	}
	oldDir := legacyDir(configDir, u.SessionID)
	if _, err := os.Stat(oldDir); err != nil {
		return nil
	}
	migratedDir := filepath.Join(configDir, "legacy_sessions", ".migrated_"+u.SessionID)
	if err := os.Rename(oldDir, migratedDir); err != nil {
		return apperrors.Wrap(apperrors.KindIO, "failed to migrate legacy session directory", err)
	}
	return nil
}

// ListAllSessions implements spec §4.7 "list_all_sessions()": the union
// of ids across the Unified and Legacy layouts, duplicates removed.
func ListAllSessions(configDir string) ([]string, error) {
	seen := make(map[string]bool)

	unifiedEntries, err := os.ReadDir(sessionsDir(configDir))
	if err != nil && !os.IsNotExist(err) {
		return nil, apperrors.Wrap(apperrors.KindIO, "failed to list sessions directory", err)
	}
	for _, entry := range unifiedEntries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		id := entry.Name()[:len(entry.Name())-len(".json")]
		seen[id] = true
	}

	legacyRoot := filepath.Join(configDir, "legacy_sessions")
	legacyEntries, err := os.ReadDir(legacyRoot)
	if err != nil && !os.IsNotExist(err) {
		return nil, apperrors.Wrap(apperrors.KindIO, "failed to list legacy sessions directory", err)
	}
	for _, entry := range legacyEntries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if len(name) > 0 && name[0] == '.' {
			continue // already migrated (".migrated_<id>")
		}
		seen[name] = true
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
