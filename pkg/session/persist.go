package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/ollamabot/agentcore/pkg/apperrors"
)

// meta is the persisted contents of meta.json.
type meta struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Prompt    string    `json:"prompt"`
	FlowCode  string    `json:"flow_code"`
	Stats     Stats     `json:"stats"`
}

// recurrence is the persisted contents of states/recurrence.json: a
// relations list (prev/next pairs) plus, when available, the full
// embedded states list for a single-read reload.
type recurrence struct {
	Relations []relation `json:"relations"`
	States    []*State   `json:"states,omitempty"`
}

type relation struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Save materializes the full session directory layout of spec §4.6/§6.2:
// meta.json, flow.code, states/recurrence.json, states/<id>.state (one
// per state, already written incrementally by AddState), notes/*.json,
// and restore.sh.
func (s *Session) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *Session) saveLocked() error {
	if s.baseDir == "" {
		return apperrors.New(apperrors.KindArgInvalid, "session has no base directory to save to")
	}
	if err := os.MkdirAll(s.baseDir, dirMode); err != nil {
		return apperrors.Wrap(apperrors.KindIO, "failed to create session directory", err)
	}
	statesDir := filepath.Join(s.baseDir, "states")
	notesDir := filepath.Join(s.baseDir, "notes")
	if err := os.MkdirAll(statesDir, dirMode); err != nil {
		return apperrors.Wrap(apperrors.KindIO, "failed to create states directory", err)
	}
	if err := os.MkdirAll(notesDir, dirMode); err != nil {
		return apperrors.Wrap(apperrors.KindIO, "failed to create notes directory", err)
	}

	m := meta{
		ID:        s.id,
		CreatedAt: s.createdAt,
		UpdatedAt: s.updatedAt,
		Prompt:    s.prompt,
		FlowCode:  s.flowCode,
		Stats:     s.stats,
	}
	if err := writeJSONAtomic(filepath.Join(s.baseDir, "meta.json"), m); err != nil {
		return err
	}

	if err := os.WriteFile(filepath.Join(s.baseDir, "flow.code"), []byte(s.flowCode), fileMode); err != nil {
		return apperrors.Wrap(apperrors.KindIO, "failed to write flow.code", err)
	}

	for _, st := range s.states {
		if err := writeStateFileAtomic(s.baseDir, st); err != nil {
			return err
		}
	}

	if err := s.writeRecurrenceLocked(); err != nil {
		return err
	}

	for _, dest := range []Destination{DestOrchestrator, DestAgent, DestHuman} {
		if err := writeJSONAtomic(filepath.Join(notesDir, string(dest)+".json"), s.notes[dest]); err != nil {
			return err
		}
	}

	if err := writeRestoreScript(s.baseDir, s.states); err != nil {
		return err
	}

	return nil
}

// writeRecurrenceLocked writes states/recurrence.json from the current
// in-memory state list. Caller must hold s.mu.
func (s *Session) writeRecurrenceLocked() error {
	rel := make([]relation, 0, len(s.states))
	for _, st := range s.states {
		if st.Next != "" {
			rel = append(rel, relation{From: st.ID, To: st.Next})
		}
	}
	rec := recurrence{Relations: rel, States: s.states}
	return writeJSONAtomic(filepath.Join(s.baseDir, "states", "recurrence.json"), rec)
}

// Checkpoint calls Save then rewrites the recurrence file reflecting
// current links; safe to call repeatedly (spec §4.6 "Checkpoint").
func (s *Session) Checkpoint() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.saveLocked(); err != nil {
		return err
	}
	return s.writeRecurrenceLocked()
}

// Load reconstructs a Session from baseDir (spec §4.6 "load(base_dir, id)
// -> Session"). id is the expected session id; Load does not validate it
// against meta.json beyond using it when meta.json is itself unreadable.
func Load(baseDir, id string) (*Session, error) {
	m, err := readMeta(baseDir, id)
	if err != nil {
		return nil, err
	}

	states, err := loadStates(baseDir)
	if err != nil {
		return nil, err
	}

	notes := map[Destination][]*Note{
		DestOrchestrator: {},
		DestAgent:        {},
		DestHuman:        {},
	}
	for _, dest := range []Destination{DestOrchestrator, DestAgent, DestHuman} {
		var list []*Note
		if err := readJSON(filepath.Join(baseDir, "notes", string(dest)+".json"), &list); err == nil {
			notes[dest] = list
		}
	}

	s := &Session{
		id:        m.ID,
		createdAt: m.CreatedAt,
		updatedAt: m.UpdatedAt,
		prompt:    m.Prompt,
		flowCode:  m.FlowCode,
		states:    states,
		notes:     notes,
		stats:     m.Stats,
		baseDir:   baseDir,
	}
	if len(states) > 0 {
		s.lastSchedule = states[len(states)-1].Schedule
	}
	return s, nil
}

func readMeta(baseDir, id string) (meta, error) {
	var m meta
	err := readJSON(filepath.Join(baseDir, "meta.json"), &m)
	if err != nil {
		if os.IsNotExist(err) {
			return meta{ID: id}, nil
		}
		return meta{}, apperrors.Wrap(apperrors.KindIO, "failed to read meta.json", err)
	}
	return m, nil
}

// loadStates implements the tolerant reload of spec §4.6: prefer the
// embedded states array in recurrence.json; if absent but a relations
// array exists, rebuild the sequence from individual <id>.state files
// ordered by the relation chain (falling back to id sort if the chain
// doesn't fully resolve).
func loadStates(baseDir string) ([]*State, error) {
	var rec recurrence
	recErr := readJSON(filepath.Join(baseDir, "states", "recurrence.json"), &rec)
	if recErr == nil && len(rec.States) > 0 {
		return rec.States, nil
	}

	statesDir := filepath.Join(baseDir, "states")
	entries, err := os.ReadDir(statesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.KindIO, "failed to list states directory", err)
	}

	byID := make(map[string]*State)
	var ids []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".state" {
			continue
		}
		var st State
		if err := readJSON(filepath.Join(statesDir, entry.Name()), &st); err != nil {
			continue
		}
		byID[st.ID] = &st
		ids = append(ids, st.ID)
	}

	if recErr == nil && len(rec.Relations) > 0 {
		return orderByRelations(byID, rec.Relations, ids), nil
	}

	sort.Strings(ids)
	ordered := make([]*State, 0, len(ids))
	for _, id := range ids {
		ordered = append(ordered, byID[id])
	}
	return ordered, nil
}

// orderByRelations walks the prev/next chain described by relations,
// starting from whichever state is never a "to" target.
func orderByRelations(byID map[string]*State, relations []relation, allIDs []string) []*State {
	next := make(map[string]string, len(relations))
	isTarget := make(map[string]bool, len(relations))
	for _, r := range relations {
		next[r.From] = r.To
		isTarget[r.To] = true
	}

	var start string
	for _, id := range allIDs {
		if !isTarget[id] {
			start = id
			break
		}
	}
	if start == "" {
		sort.Strings(allIDs)
		ordered := make([]*State, 0, len(allIDs))
		for _, id := range allIDs {
			ordered = append(ordered, byID[id])
		}
		return ordered
	}

	var ordered []*State
	seen := make(map[string]bool)
	for cur := start; cur != "" && !seen[cur]; cur = next[cur] {
		seen[cur] = true
		if st, ok := byID[cur]; ok {
			ordered = append(ordered, st)
		}
	}
	return ordered
}

// ListSessions implements spec §4.6 "list_sessions(base_dir) -> [id]":
// each immediate subdirectory of base_dir containing a meta.json is one
// session, identified by its meta.json id field.
func ListSessions(base string) ([]string, error) {
	entries, err := os.ReadDir(base)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.KindIO, "failed to list sessions directory", err)
	}

	var ids []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(base, entry.Name())
		var m meta
		if err := readJSON(filepath.Join(dir, "meta.json"), &m); err != nil {
			continue
		}
		if m.ID != "" {
			ids = append(ids, m.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func writeJSONAtomic(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return apperrors.Wrap(apperrors.KindIO, fmt.Sprintf("failed to marshal %s", filepath.Base(path)), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, fileMode); err != nil {
		return apperrors.Wrap(apperrors.KindIO, fmt.Sprintf("failed to write %s", filepath.Base(path)), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return apperrors.Wrap(apperrors.KindIO, fmt.Sprintf("failed to finalize %s", filepath.Base(path)), err)
	}
	return nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
