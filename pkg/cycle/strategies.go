package cycle

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"
)

// runRoundRobin dispatches tasks to agents in a fixed rotation (spec §4.5).
func (m *Manager) runRoundRobin(ctx context.Context, c *Cycle) error {
	if len(c.Agents) == 0 {
		return nil
	}
	for i, t := range c.Tasks {
		t.Assigned = c.Agents[i%len(c.Agents)]
		m.runTask(ctx, t)
		c.Results = append(c.Results, t.Result)
	}
	return nil
}

// runSpecialist partitions tasks by assigned agent, runs partitions in
// descending agent-priority order, and runs each partition sequentially
// on the same warm model to minimise swap (spec §4.5).
func (m *Manager) runSpecialist(ctx context.Context, c *Cycle) error {
	partitions := partitionByAgent(c.Tasks)
	order := sortedPartitionKeys(partitions)

	for _, id := range order {
		for _, t := range partitions[id] {
			m.runTask(ctx, t)
			c.Results = append(c.Results, t.Result)
		}
	}
	return nil
}

// runPipeline executes tasks in order, folding the trailing window of
// prior outputs into the next task's context (spec §4.5).
func (m *Manager) runPipeline(ctx context.Context, c *Cycle) error {
	var window []string
	for _, t := range c.Tasks {
		t.Context.PreviousResults = append([]string(nil), window...)
		m.runTask(ctx, t)

		if t.Status == StatusCompleted {
			window = append(window, t.Result)
			if len(window) > m.windowSize() {
				window = window[len(window)-m.windowSize():]
			}
			c.Results = append(c.Results, t.Result)
		}
		// Failed: subsequent tasks' previous_results simply omit this
		// entry (window is left unextended), per spec §4.5 failure semantics.
	}
	return nil
}

func (m *Manager) windowSize() int {
	if m.PipelineWindow <= 0 {
		return defaultPipelineWindow
	}
	return m.PipelineWindow
}

// runParallel spawns one worker per agent partition; within a worker,
// tasks run sequentially; results are collected and flattened in
// partition order. Grounded on the teacher's workflowagent Parallel
// agent's errgroup fan-out shape, adapted from a per-sub-agent event
// stream to a per-partition task-result collector.
func (m *Manager) runParallel(ctx context.Context, c *Cycle) error {
	partitions := partitionByAgent(c.Tasks)
	order := sortedPartitionKeys(partitions)

	results := make([][]string, len(order))
	grp, grpCtx := errgroup.WithContext(ctx)
	for i, id := range order {
		i, id := i, id
		grp.Go(func() error {
			var out []string
			for _, t := range partitions[id] {
				m.runTask(grpCtx, t)
				out = append(out, t.Result)
			}
			results[i] = out
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return err
	}
	for _, out := range results {
		c.Results = append(c.Results, out...)
	}
	return nil
}

func partitionByAgent(tasks []*Task) map[string][]*Task {
	partitions := make(map[string][]*Task)
	for _, t := range tasks {
		partitions[t.Assigned.ID] = append(partitions[t.Assigned.ID], t)
	}
	return partitions
}

// sortedPartitionKeys orders partition keys by descending agent
// priority (spec §4.5 "sort partitions by descending agent priority").
func sortedPartitionKeys(partitions map[string][]*Task) []string {
	type entry struct {
		id       string
		priority int
	}
	var entries []entry
	for id, tasks := range partitions {
		priority := 0
		if len(tasks) > 0 {
			priority = tasks[0].Assigned.Priority
		}
		entries = append(entries, entry{id: id, priority: priority})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].priority != entries[j].priority {
			return entries[i].priority > entries[j].priority
		}
		return entries[i].id < entries[j].id
	})
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.id
	}
	return keys
}
