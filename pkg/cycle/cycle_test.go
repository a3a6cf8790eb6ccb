package cycle

import (
	"context"
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ollamabot/agentcore/pkg/backend"
	"github.com/ollamabot/agentcore/pkg/toolspec"
	"github.com/ollamabot/agentcore/pkg/transcript"
)

// stubBackend implements backend.ModelBackend; only Warm is exercised by
// the CycleManager tests below.
type stubBackend struct {
	warmed []string
}

func (s *stubBackend) ChatWithTools(ctx context.Context, model string, messages []transcript.Message, tools []toolspec.Definition) (*backend.Response, error) {
	return nil, nil
}

func (s *stubBackend) ChatStream(ctx context.Context, model string, messages []transcript.Message, images [][]byte) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {}
}

func (s *stubBackend) Generate(ctx context.Context, prompt, model string, useCache bool, taskType string) (string, error) {
	return "", nil
}

func (s *stubBackend) Warm(ctx context.Context, model string) error {
	s.warmed = append(s.warmed, model)
	return nil
}

type stubRunner struct {
	results map[string]string
	fail    map[string]bool
}

func (r *stubRunner) RunTask(ctx context.Context, t *Task) (string, error) {
	if r.fail[t.ID] {
		return "", assert.AnError
	}
	if out, ok := r.results[t.ID]; ok {
		return out, nil
	}
	return "done:" + t.ID, nil
}

func agents() []AgentDescriptor {
	return []AgentDescriptor{
		{ID: "coder", Model: "qwen2.5-coder", Role: "coder", Priority: 2, Capabilities: map[string]bool{"code_gen": true}},
		{ID: "researcher", Model: "llama3", Role: "researcher", Priority: 1, Capabilities: map[string]bool{"research": true}},
	}
}

func TestNewCycleRejectsUncoveredTask(t *testing.T) {
	tasks := []*Task{{ID: "t1", RequiredCapabilities: []string{"image_analyse"}}}
	_, err := NewCycle("c", tasks, StrategySpecialist, agents())
	assert.Error(t, err)
}

func TestNewCycleAssignsHighestPriorityCoveringAgent(t *testing.T) {
	tasks := []*Task{{ID: "t1", RequiredCapabilities: []string{"code_gen"}}}
	c, err := NewCycle("c", tasks, StrategySpecialist, agents())
	require.NoError(t, err)
	assert.Equal(t, "coder", c.Tasks[0].Assigned.ID)
}

func TestSelectStrategyRules(t *testing.T) {
	m := NewManager(nil, nil)

	// u == 1 -> Specialist regardless of RAM.
	single := []*Task{
		{ID: "a", Assigned: AgentDescriptor{ID: "x"}, Context: TaskContext{PreviousResults: []string{"p"}}},
		{ID: "b", Assigned: AgentDescriptor{ID: "x"}, Context: TaskContext{PreviousResults: []string{"p"}}},
	}
	c := &Cycle{Tasks: single}
	assert.Equal(t, StrategySpecialist, m.selectStrategy(c))

	// All empty prior results -> Specialist.
	allEmpty := []*Task{
		{ID: "a", Assigned: AgentDescriptor{ID: "x"}},
		{ID: "b", Assigned: AgentDescriptor{ID: "y"}},
	}
	c2 := &Cycle{Tasks: allEmpty}
	assert.Equal(t, StrategySpecialist, m.selectStrategy(c2))

	// Two agents, some prior results, mean tasks per agent < 5, not all
	// empty -> Pipeline (parallel infeasible by default threshold).
	mixed := []*Task{
		{ID: "a", Assigned: AgentDescriptor{ID: "x"}, Context: TaskContext{PreviousResults: []string{"p"}}},
		{ID: "b", Assigned: AgentDescriptor{ID: "y"}},
	}
	c3 := &Cycle{Tasks: mixed}
	assert.Equal(t, StrategyPipeline, m.selectStrategy(c3))
}

func TestSelectStrategyParallelRequiresRAMAndShape(t *testing.T) {
	m := NewManager(nil, nil)
	// A threshold below any real host's RAM makes P true; zero would
	// fall back to the 64 GB default.
	m.ParallelThresholdGB = 1e-9

	var tasks []*Task
	for i := 0; i < 6; i++ {
		agentID := "x"
		if i%2 == 0 {
			agentID = "y"
		}
		tasks = append(tasks, &Task{
			ID:       "t",
			Assigned: AgentDescriptor{ID: agentID},
			Context:  TaskContext{PreviousResults: []string{"p"}},
		})
	}
	c := &Cycle{Tasks: tasks}
	assert.Equal(t, StrategyParallel, m.selectStrategy(c))
}

func TestRunRoundRobinDispatchesInRotation(t *testing.T) {
	m := NewManager(&stubBackend{}, &stubRunner{})
	tasks := []*Task{{ID: "t1"}, {ID: "t2"}, {ID: "t3"}}
	c := &Cycle{Tasks: tasks, Agents: agents()}
	require.NoError(t, m.runRoundRobin(context.Background(), c))
	assert.Equal(t, "coder", tasks[0].Assigned.ID)
	assert.Equal(t, "researcher", tasks[1].Assigned.ID)
	assert.Equal(t, "coder", tasks[2].Assigned.ID)
	assert.Len(t, c.Results, 3)
}

func TestRunPipelineAccumulatesWindowAndSkipsFailures(t *testing.T) {
	runner := &stubRunner{fail: map[string]bool{"t2": true}}
	m := NewManager(&stubBackend{}, runner)
	tasks := []*Task{
		{ID: "t1", Assigned: AgentDescriptor{ID: "coder"}},
		{ID: "t2", Assigned: AgentDescriptor{ID: "coder"}},
		{ID: "t3", Assigned: AgentDescriptor{ID: "coder"}},
	}
	c := &Cycle{Tasks: tasks}
	require.NoError(t, m.runPipeline(context.Background(), c))

	assert.Equal(t, StatusCompleted, tasks[0].Status)
	assert.Equal(t, StatusFailed, tasks[1].Status)
	assert.Equal(t, StatusCompleted, tasks[2].Status)
	// t3 only sees t1's result in its window, t2 having failed.
	assert.Equal(t, []string{"done:t1"}, tasks[2].Context.PreviousResults)
}

func TestRunSpecialistOrdersPartitionsByPriority(t *testing.T) {
	m := NewManager(&stubBackend{}, &stubRunner{})
	tasks := []*Task{
		{ID: "a", Assigned: AgentDescriptor{ID: "researcher", Priority: 1}},
		{ID: "b", Assigned: AgentDescriptor{ID: "coder", Priority: 2}},
		{ID: "c", Assigned: AgentDescriptor{ID: "coder", Priority: 2}},
	}
	c := &Cycle{Tasks: tasks}
	require.NoError(t, m.runSpecialist(context.Background(), c))
	// coder (priority 2) tasks run before researcher (priority 1).
	assert.Equal(t, []string{"done:b", "done:c", "done:a"}, c.Results)
}

func TestWarmIfNeededAccountsSwitches(t *testing.T) {
	backend := &stubBackend{}
	m := NewManager(backend, &stubRunner{})

	require.NoError(t, m.warmIfNeeded(context.Background(), "model-a"))
	require.NoError(t, m.warmIfNeeded(context.Background(), "model-a"))
	require.NoError(t, m.warmIfNeeded(context.Background(), "model-b"))

	assert.Equal(t, 2, m.ModelSwitchCount())
	assert.Equal(t, []string{"model-a", "model-b"}, backend.warmed)
}

func TestPlanAndExecuteReturnsVerbatimOnUnparseablePlan(t *testing.T) {
	runner := &stubRunner{results: map[string]string{"plan": "not json"}}
	m := NewManager(&stubBackend{}, runner)

	out, err := m.PlanAndExecute(context.Background(), "do the thing", AgentDescriptor{ID: "orchestrator"}, agents())
	require.NoError(t, err)
	assert.Equal(t, "not json", out)
}

func TestPlanAndExecuteRunsSubtasksAndSynthesizes(t *testing.T) {
	runner := &stubRunner{results: map[string]string{
		"plan":          `[{"task":"research X","agent":"researcher"},{"task":"implement Y","agent":"coder"}]`,
		"subtask-1":     "researched X",
		"subtask-2":     "implemented Y",
		"synthesis":     "final answer",
	}}
	m := NewManager(&stubBackend{}, runner)

	out, err := m.PlanAndExecute(context.Background(), "build feature", AgentDescriptor{ID: "orchestrator"}, agents())
	require.NoError(t, err)
	assert.Equal(t, "final answer", out)
}
