package cycle

import (
	"context"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/mem"

	"github.com/ollamabot/agentcore/pkg/backend"
)

// defaultParallelThresholdGB is the host-RAM floor below which Parallel
// is never selected (spec §4.5).
const defaultParallelThresholdGB = 64

// defaultPipelineWindow is the number of trailing outputs folded into a
// Pipeline task's previous_results (spec §4.5).
const defaultPipelineWindow = 3

// Runner is the narrow seam a Task executes through: drive the backend
// for one task and return its text result. AgentLoop's Start (or a
// thin adapter over it) satisfies this without CycleManager importing
// pkg/agentloop directly, the same dependency-inversion pattern
// pkg/toolexec and pkg/contextbuilder use for their own seams.
type Runner interface {
	RunTask(ctx context.Context, t *Task) (string, error)
}

// Manager implements CycleManager (spec §4.5): strategy selection,
// model-swap accounting, and the plan_and_execute pattern.
type Manager struct {
	Backend               backend.ModelBackend
	Runner                Runner
	ParallelThresholdGB   float64
	PipelineWindow        int

	warmMu               sync.Mutex
	warmAgent            string
	modelSwitchCount     int
	totalModelSwitchTime time.Duration
}

// NewManager constructs a Manager with spec defaults.
func NewManager(b backend.ModelBackend, runner Runner) *Manager {
	return &Manager{
		Backend:             b,
		Runner:              runner,
		ParallelThresholdGB: defaultParallelThresholdGB,
		PipelineWindow:      defaultPipelineWindow,
	}
}

// ModelSwitchCount and TotalModelSwitchTime expose the swap-accounting
// counters for telemetry.
func (m *Manager) ModelSwitchCount() int {
	m.warmMu.Lock()
	defer m.warmMu.Unlock()
	return m.modelSwitchCount
}

func (m *Manager) TotalModelSwitchTime() time.Duration {
	m.warmMu.Lock()
	defer m.warmMu.Unlock()
	return m.totalModelSwitchTime
}

// HostRAMGB reports the host's total physical memory in GiB, used by
// Adaptive's parallel-feasibility check.
func HostRAMGB() float64 {
	v, err := mem.VirtualMemory()
	if err != nil {
		return 0
	}
	return float64(v.Total) / (1024 * 1024 * 1024)
}

// Run executes a Cycle under its declared strategy, resolving Adaptive
// to a concrete strategy first (spec §4.5).
func (m *Manager) Run(ctx context.Context, c *Cycle) error {
	c.StartedAt = time.Now()
	defer func() {
		c.FinishedAt = time.Now()
		c.IsComplete = true
	}()

	strategy := c.Strategy
	if strategy == StrategyAdaptive {
		strategy = m.selectStrategy(c)
	}

	switch strategy {
	case StrategyRoundRobin:
		return m.runRoundRobin(ctx, c)
	case StrategySpecialist:
		return m.runSpecialist(ctx, c)
	case StrategyPipeline:
		return m.runPipeline(ctx, c)
	case StrategyParallel:
		return m.runParallel(ctx, c)
	default:
		return m.runSpecialist(ctx, c)
	}
}

// selectStrategy implements the Adaptive first-match rule set of spec
// §4.5 step 2.
func (m *Manager) selectStrategy(c *Cycle) Strategy {
	uniqueAgents := make(map[string]bool)
	totalTasks := 0
	allEmptyPrior := true
	for _, t := range c.Tasks {
		uniqueAgents[t.Assigned.ID] = true
		totalTasks++
		if len(t.Context.PreviousResults) > 0 {
			allEmptyPrior = false
		}
	}
	u := len(uniqueAgents)
	mu := 0.0
	if u > 0 {
		mu = float64(totalTasks) / float64(u)
	}
	threshold := m.ParallelThresholdGB
	if threshold <= 0 {
		threshold = defaultParallelThresholdGB
	}
	p := HostRAMGB() >= threshold

	switch {
	case p && u >= 2 && mu >= 3:
		return StrategyParallel
	case u == 1 || mu >= 5:
		return StrategySpecialist
	case allEmptyPrior:
		return StrategySpecialist
	default:
		return StrategyPipeline
	}
}

// warmIfNeeded implements the model-swap accounting of spec §4.5: warm
// the target model if it differs from warmAgent, timing the call.
func (m *Manager) warmIfNeeded(ctx context.Context, model string) error {
	m.warmMu.Lock()
	current := m.warmAgent
	m.warmMu.Unlock()
	if model == "" || model == current {
		return nil
	}

	start := time.Now()
	if err := m.Backend.Warm(ctx, model); err != nil {
		return err
	}

	m.warmMu.Lock()
	m.modelSwitchCount++
	m.totalModelSwitchTime += time.Since(start)
	m.warmAgent = model
	m.warmMu.Unlock()
	return nil
}

// runTask warms the task's assigned model if needed, then runs it.
func (m *Manager) runTask(ctx context.Context, t *Task) {
	t.Status = StatusRunning
	if err := m.warmIfNeeded(ctx, t.Assigned.Model); err != nil {
		t.Failed(err)
		return
	}
	result, err := m.Runner.RunTask(ctx, t)
	if err != nil {
		t.Failed(err)
		return
	}
	t.Completed(result)
}
