package cycle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ollamabot/agentcore/pkg/apperrors"
)

// planStep is one entry of the planning task's required JSON array
// output (spec §4.5 "plan_and_execute" step 1).
type planStep struct {
	Task  string `json:"task"`
	Agent string `json:"agent"`
}

// previewChars bounds each subtask output preview folded into the
// synthesis prompt (spec §4.5 step 4).
const previewChars = 500

// PlanAndExecute implements spec §4.5's five-step plan-then-execute
// pattern. orchestrator is the agent descriptor the planning and
// synthesis tasks run on; agents is the full registry available to the
// execution cycle.
func (m *Manager) PlanAndExecute(ctx context.Context, task string, orchestrator AgentDescriptor, agents []AgentDescriptor) (string, error) {
	// 1. Run a single planning task on the orchestrator.
	planningTask := &Task{
		ID:       "plan",
		Content:  planningPrompt(task),
		Assigned: orchestrator,
		Status:   StatusQueued,
	}
	m.runTask(ctx, planningTask)
	if planningTask.Status != StatusCompleted {
		return "", apperrors.Wrap(apperrors.KindPlanningFailed, "planning task failed", planningTask.Err)
	}

	// 2. Parse the plan; if empty or unparseable, return it verbatim.
	steps, ok := parsePlan(planningTask.Result)
	if !ok || len(steps) == 0 {
		return planningTask.Result, nil
	}

	// 3. Build and run an Adaptive execution cycle.
	tasks := make([]*Task, 0, len(steps))
	for i, step := range steps {
		assigned := findAgent(step.Agent, agents)
		tasks = append(tasks, &Task{
			ID:       fmt.Sprintf("subtask-%d", i+1),
			Content:  step.Task,
			Assigned: assigned,
		})
	}
	execCycle, err := NewCycle("plan_and_execute", tasks, StrategyAdaptive, agents)
	if err != nil {
		return "", err
	}
	if err := m.Run(ctx, execCycle); err != nil {
		return "", err
	}

	// 4. Run a synthesis task with bounded previews of each subtask output.
	synthesisTask := &Task{
		ID:       "synthesis",
		Content:  synthesisPrompt(task, tasks),
		Assigned: orchestrator,
		Status:   StatusQueued,
	}
	m.runTask(ctx, synthesisTask)
	if synthesisTask.Status != StatusCompleted {
		return "", apperrors.Wrap(apperrors.KindPlanningFailed, "synthesis task failed", synthesisTask.Err)
	}

	// 5. Return the synthesis result.
	return synthesisTask.Result, nil
}

func planningPrompt(task string) string {
	return "Break the following task into an ordered JSON array of {\"task\": ..., \"agent\": ...} objects, " +
		"one per subtask, naming the agent role best suited to each. Respond with JSON only.\n\nTask: " + task
}

func synthesisPrompt(task string, tasks []*Task) string {
	var sb strings.Builder
	sb.WriteString("Synthesize a final answer to the following task from its subtask results.\n\n")
	sb.WriteString("Task: ")
	sb.WriteString(task)
	sb.WriteString("\n\n")
	for _, t := range tasks {
		sb.WriteString("- ")
		sb.WriteString(t.Content)
		sb.WriteString(": ")
		sb.WriteString(truncate(t.Result, previewChars))
		sb.WriteString("\n")
	}
	return sb.String()
}

func parsePlan(text string) ([]planStep, bool) {
	var steps []planStep
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &steps); err != nil {
		return nil, false
	}
	return steps, true
}

func findAgent(role string, agents []AgentDescriptor) AgentDescriptor {
	for _, a := range agents {
		if a.Role == role || a.ID == role {
			return a
		}
	}
	if len(agents) > 0 {
		return agents[0]
	}
	return AgentDescriptor{}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
