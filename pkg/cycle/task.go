// Package cycle implements the CycleManager of spec §4.5: a RAM-aware
// scheduler that groups a batch of Tasks by assigned specialist model,
// picks an execution strategy from host RAM and task shape, and runs it
// while accounting for model-swap cost. No teacher or example-pack file
// implements this batch scheduler directly; it is grounded on the
// teacher's workflowagent package for the Parallel strategy's
// errgroup fan-out shape, and on shirou/gopsutil/v4 (already a
// teacher dependency, used elsewhere for host stats) for RAM detection.
package cycle

import (
	"time"

	"github.com/ollamabot/agentcore/pkg/apperrors"
)

// Status is a Task's lifecycle stage (spec §3 "Task & Cycle").
type Status string

const (
	StatusPending   Status = "pending"
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// AgentDescriptor identifies one specialist model (spec §3).
type AgentDescriptor struct {
	ID           string
	Model        string
	Role         string // orchestrator | coder | researcher | vision
	Capabilities map[string]bool
	Priority     int
}

// HasCapability reports whether the descriptor can perform capability c.
func (a AgentDescriptor) HasCapability(c string) bool {
	return a.Capabilities[c]
}

// TaskContext is the optional per-task payload a specialist runs
// against (spec §3 "Task"): a bounded window, not the whole workspace.
type TaskContext struct {
	Workspace       string
	Files           []string
	PreviousResults []string
	Images          [][]byte
}

// Task is one unit of work dispatched to an assigned agent (spec §3).
type Task struct {
	ID                   string
	Content              string
	RequiredCapabilities []string
	Priority             int
	Context              TaskContext
	Assigned             AgentDescriptor
	Status               Status
	Err                  error
	Result               string
}

// Failed records a failure and flips Status (spec §4.5 "Failure semantics").
func (t *Task) Failed(err error) {
	t.Status = StatusFailed
	t.Err = err
}

// Completed records a successful result.
func (t *Task) Completed(result string) {
	t.Status = StatusCompleted
	t.Result = result
}

// Strategy names one of CycleManager's execution strategies (spec §4.5).
type Strategy string

const (
	StrategyRoundRobin Strategy = "round_robin"
	StrategySpecialist Strategy = "specialist"
	StrategyPipeline   Strategy = "pipeline"
	StrategyParallel   Strategy = "parallel"
	StrategyAdaptive   Strategy = "adaptive"
)

// Cycle bundles a batch of tasks run under one chosen strategy (spec §3).
type Cycle struct {
	Name        string
	Tasks       []*Task
	Strategy    Strategy
	Agents      []AgentDescriptor
	Phase       int
	Results     []string
	IsComplete  bool
	StartedAt   time.Time
	FinishedAt  time.Time
}

// NewCycle builds a Cycle, rejecting any task whose required
// capabilities intersect no agent's capability set (spec I8
// "Cycle assignment totality").
func NewCycle(name string, tasks []*Task, strategy Strategy, agents []AgentDescriptor) (*Cycle, error) {
	for _, t := range tasks {
		best, ok := bestAgentFor(t.RequiredCapabilities, agents)
		if !ok {
			return nil, apperrors.New(apperrors.KindNotFound, "no agent available for task "+t.ID)
		}
		t.Assigned = best
		t.Status = StatusQueued
	}
	return &Cycle{
		Name:     name,
		Tasks:    tasks,
		Strategy: strategy,
		Agents:   agents,
	}, nil
}

// bestAgentFor picks the highest-priority agent whose capability set
// intersects required (spec I8). A task with no required capabilities
// is assigned the highest-priority agent overall.
func bestAgentFor(required []string, agents []AgentDescriptor) (AgentDescriptor, bool) {
	var best AgentDescriptor
	found := false
	for _, a := range agents {
		if len(required) > 0 && !intersects(required, a) {
			continue
		}
		if !found || a.Priority > best.Priority {
			best = a
			found = true
		}
	}
	return best, found
}

func intersects(required []string, a AgentDescriptor) bool {
	for _, cap := range required {
		if a.HasCapability(cap) {
			return true
		}
	}
	return false
}

