// Package usf implements the USFConverter of spec §4.7: a bidirectional
// mapping between the internal Session and the portable UnifiedSession
// (USF) disk format, plus auto-migration away from a historical
// "LegacyUSF" directory layout. Grounded directly on spec §3/§4.7's
// literal field lists and algorithm text; no teacher or example-pack
// file defines an equivalent portable session-interchange format, so
// this package is standard-library JSON throughout.
package usf

import (
	"strconv"
	"strings"
	"time"

	"github.com/ollamabot/agentcore/pkg/apperrors"
	"github.com/ollamabot/agentcore/pkg/session"
)

// FormatVersion is the only USF version this converter emits.
const FormatVersion = "1.0"

// Origin is where a session originated (spec §3 "UnifiedSession").
type Origin string

const (
	OriginCLI Origin = "cli"
	OriginIDE Origin = "ide"
)

// TaskBlock carries the originating task's description and quality intent.
type TaskBlock struct {
	Description    string `json:"description"`
	Intent         string `json:"intent,omitempty"`
	QualityPreset  string `json:"quality_preset,omitempty"`
	Status         string `json:"status,omitempty"`
}

// WorkspaceBlock identifies the codebase a session ran against.
type WorkspaceBlock struct {
	Path      string `json:"path"`
	GitBranch string `json:"git_branch,omitempty"`
	GitCommit string `json:"git_commit,omitempty"`
}

// OrchestrationBlock carries the flow-code progression of a session.
type OrchestrationBlock struct {
	FlowCode          string `json:"flow_code"`
	CurrentSchedule   int    `json:"current_schedule"`
	CurrentProcess    int    `json:"current_process"`
	CompletedSchedules []int `json:"completed_schedules,omitempty"`
}

// Step is one SessionState projected into USF's portable shape.
type Step struct {
	Number    int       `json:"number"`
	ToolID    string    `json:"tool_id"`
	Input     string    `json:"input,omitempty"`
	Output    string    `json:"output,omitempty"`
	Success   bool      `json:"success"`
	Tokens    int       `json:"tokens,omitempty"`
	Duration  int64     `json:"duration_ms,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Stats mirrors session.Stats for the portable form.
type Stats struct {
	TokensIn      int `json:"tokens_in"`
	TokensOut     int `json:"tokens_out"`
	ActionCount   int `json:"action_count"`
	ScheduleTally int `json:"schedule_tally"`
	ProcessTally  int `json:"process_tally"`
}

// UnifiedSession is the portable wire/disk form of Session (spec §3).
type UnifiedSession struct {
	Version       string             `json:"version"`
	SessionID     string             `json:"session_id"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
	Origin        Origin             `json:"origin"`
	Task          TaskBlock          `json:"task"`
	Workspace     WorkspaceBlock     `json:"workspace"`
	Orchestration OrchestrationBlock `json:"orchestration"`
	Steps         []Step             `json:"steps"`
	Checkpoints   []string           `json:"checkpoints"`
	Stats         Stats              `json:"stats"`
}

// Validate implements spec §4.7 "validate_usf": reject records with an
// empty session_id or version.
func Validate(u *UnifiedSession) error {
	if u == nil {
		return apperrors.New(apperrors.KindValidationError, "nil UnifiedSession")
	}
	if u.SessionID == "" {
		return apperrors.New(apperrors.KindValidationError, "usf: session_id is required")
	}
	if u.Version == "" {
		return apperrors.New(apperrors.KindValidationError, "usf: version is required")
	}
	return nil
}

// ToUSF maps a Session to its portable UnifiedSession form (spec §4.7
// "to_usf"): one Step per SessionState, tool_id formatted
// "schedule.S{sched}P{proc}", success always true, timestamp from the
// state's creation time.
func ToUSF(s *session.Session, origin Origin, workspace WorkspaceBlock, task TaskBlock) *UnifiedSession {
	states := s.GetAllStates()
	steps := make([]Step, 0, len(states))
	var currentSchedule, currentProcess int
	completedSeen := make(map[int]bool)
	var completed []int

	for i, st := range states {
		steps = append(steps, Step{
			Number:    i + 1,
			ToolID:    toolID(st.Schedule, st.Process),
			Output:    joinActions(st.Actions),
			Success:   true,
			Timestamp: st.CreatedAt,
		})
		currentSchedule = st.Schedule
		currentProcess = st.Process
		if !completedSeen[st.Schedule] {
			completedSeen[st.Schedule] = true
			completed = append(completed, st.Schedule)
		}
	}

	return &UnifiedSession{
		Version:   FormatVersion,
		SessionID: s.ID(),
		Origin:    origin,
		Task:      task,
		Workspace: workspace,
		Orchestration: OrchestrationBlock{
			FlowCode:           s.GetFlowCode(),
			CurrentSchedule:    currentSchedule,
			CurrentProcess:     currentProcess,
			CompletedSchedules: completed,
		},
		Steps:       steps,
		Checkpoints: []string{},
		Stats:       Stats{},
	}
}

// FromUSF reverses ToUSF (spec §4.7 "from_usf(usf, base_dir) -> Session"):
// missing optional fields default to empty collections, not errors.
func FromUSF(u *UnifiedSession, baseDir string) (*session.Session, error) {
	if err := Validate(u); err != nil {
		return nil, err
	}

	s := session.New(baseDir)
	s.SetPrompt(u.Task.Description)

	for _, step := range u.Steps {
		schedule, process, ok := parseToolID(step.ToolID)
		if !ok {
			continue
		}
		actions := []string{}
		if step.Output != "" {
			actions = append(actions, step.Output)
		}
		if _, err := s.AddState(schedule, process, actions); err != nil {
			return nil, err
		}
	}
	// AddState appends to the flow code as it goes; the recorded flow
	// code replaces that rebuilt one so it is not doubled.
	if u.Orchestration.FlowCode != "" {
		s.SetFlowCode(u.Orchestration.FlowCode)
	}

	return s, nil
}

func toolID(schedule, process int) string {
	return "schedule.S" + strconv.Itoa(schedule) + "P" + strconv.Itoa(process)
}

func joinActions(actions []string) string {
	return strings.Join(actions, "; ")
}

// parseToolID reverses toolID's "schedule.S{sched}P{proc}" format.
func parseToolID(toolID string) (int, int, bool) {
	const prefix = "schedule.S"
	if !strings.HasPrefix(toolID, prefix) {
		return 0, 0, false
	}
	rest := toolID[len(prefix):]
	pIdx := strings.IndexByte(rest, 'P')
	if pIdx < 0 {
		return 0, 0, false
	}
	schedule, err1 := strconv.Atoi(rest[:pIdx])
	process, err2 := strconv.Atoi(rest[pIdx+1:])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return schedule, process, true
}
