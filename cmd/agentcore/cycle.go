package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ollamabot/agentcore/pkg/agentloop"
	"github.com/ollamabot/agentcore/pkg/backend"
	"github.com/ollamabot/agentcore/pkg/contextbuilder"
	"github.com/ollamabot/agentcore/pkg/cycle"
	"github.com/ollamabot/agentcore/pkg/toolexec"
	"github.com/ollamabot/agentcore/pkg/toolspec"
)

// CycleCmd runs a declarative batch of tasks through CycleManager (spec
// §4.5): a YAML file names the available specialist agents and the
// tasks to dispatch across them under a chosen (or Adaptive) strategy.
type CycleCmd struct {
	File     string `arg:"" help:"Path to a YAML cycle description." type:"path"`
	Workdir  string `help:"Working directory every task runs against." type:"path" default:"."`
	Strategy string `help:"Override the file's strategy (round_robin, specialist, pipeline, parallel, adaptive)."`
}

// cycleFile is the on-disk shape of a cycle description.
type cycleFile struct {
	Strategy string           `yaml:"strategy"`
	Agents   []cycleAgentSpec `yaml:"agents"`
	Tasks    []cycleTaskSpec  `yaml:"tasks"`
}

type cycleAgentSpec struct {
	ID           string   `yaml:"id"`
	Model        string   `yaml:"model"`
	Role         string   `yaml:"role"`
	Capabilities []string `yaml:"capabilities"`
	Priority     int      `yaml:"priority"`
}

type cycleTaskSpec struct {
	ID                   string   `yaml:"id"`
	Content              string   `yaml:"content"`
	RequiredCapabilities []string `yaml:"required_capabilities"`
	Priority             int      `yaml:"priority"`
}

func (c *CycleCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli.Config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	raw, err := os.ReadFile(c.File)
	if err != nil {
		return fmt.Errorf("failed to read cycle file: %w", err)
	}
	var spec cycleFile
	if err := yaml.Unmarshal(raw, &spec); err != nil {
		return fmt.Errorf("failed to parse cycle file: %w", err)
	}
	if len(spec.Agents) == 0 {
		return fmt.Errorf("cycle file declares no agents")
	}

	strategy := cycle.Strategy(spec.Strategy)
	if c.Strategy != "" {
		strategy = cycle.Strategy(c.Strategy)
	}
	if strategy == "" {
		strategy = cycle.StrategyAdaptive
	}

	workdir, err := filepath.Abs(c.Workdir)
	if err != nil {
		return fmt.Errorf("failed to resolve working directory: %w", err)
	}

	agents := make([]cycle.AgentDescriptor, 0, len(spec.Agents))
	for _, a := range spec.Agents {
		caps := make(map[string]bool, len(a.Capabilities))
		for _, name := range a.Capabilities {
			caps[name] = true
		}
		agents = append(agents, cycle.AgentDescriptor{
			ID:           a.ID,
			Model:        a.Model,
			Role:         a.Role,
			Capabilities: caps,
			Priority:     a.Priority,
		})
	}

	tasks := make([]*cycle.Task, 0, len(spec.Tasks))
	for _, t := range spec.Tasks {
		tasks = append(tasks, &cycle.Task{
			ID:                   t.ID,
			Content:              t.Content,
			RequiredCapabilities: t.RequiredCapabilities,
			Priority:             t.Priority,
			Context:              cycle.TaskContext{Workspace: workdir},
		})
	}

	c2, err := cycle.NewCycle(filepath.Base(c.File), tasks, strategy, agents)
	if err != nil {
		return fmt.Errorf("failed to assemble cycle: %w", err)
	}

	b := backend.NewOllamaBackend(backend.OllamaConfig{
		BaseURL:   cfg.Backend.BaseURL,
		Timeout:   parseDurationOr(cfg.Backend.RequestTimeout, 10*time.Minute),
		KeepAlive: cfg.Backend.KeepAlive,
	})

	runner := &loopRunner{
		backend:     b,
		toolConfig:  toolexec.Config{WorkingDirectory: workdir, Shell: cfg.ToolExecutor.Shell, CacheCapacity: cfg.ToolExecutor.CacheCapacity},
		maxSteps:    cfg.AgentLoop.MaxSteps,
		callTimeout: parseDurationOr(cfg.AgentLoop.StepTimeout, 10*time.Minute),
		observer:    newCLIObserver(nil, 1),
	}

	manager := cycle.NewManager(b, runner)
	manager.ParallelThresholdGB = cfg.CycleManager.ParallelThresholdGB
	manager.PipelineWindow = cfg.CycleManager.PipelineWindow

	if err := manager.Run(context.Background(), c2); err != nil {
		return fmt.Errorf("cycle run failed: %w", err)
	}

	fmt.Printf("\ncycle %q complete (%d task(s), %d model switch(es))\n", c2.Name, len(c2.Tasks), manager.ModelSwitchCount())
	for _, t := range c2.Tasks {
		fmt.Printf("- %s [%s] -> %s: %s\n", t.ID, t.Assigned.ID, t.Status, truncateForDisplay(t.Result, 200))
	}
	return nil
}

// loopRunner adapts a fresh AgentLoop per task to cycle.Runner, building
// the ContextBuilder/ToolExecutor pair for the task's assigned model
// (distinct specialists may run distinct models, spec §1 "multi-model").
type loopRunner struct {
	backend     backend.ModelBackend
	toolConfig  toolexec.Config
	maxSteps    int
	callTimeout time.Duration
	observer    agentloop.Observer
}

func (r *loopRunner) RunTask(ctx context.Context, t *cycle.Task) (string, error) {
	catalog, err := toolspec.NewBuiltinCatalog()
	if err != nil {
		return "", err
	}

	model := t.Assigned.Model
	builder, err := contextbuilder.New(model, 0, 0)
	if err != nil {
		return "", err
	}

	delegator := &contextbuilder.SpecialistDelegator{
		Builder:          builder,
		Backend:          r.backend,
		Model:            model,
		WorkingDirectory: t.Context.Workspace,
	}

	executor, err := toolexec.New(catalog, r.toolConfig, delegator)
	if err != nil {
		return "", err
	}

	loop := agentloop.New(r.backend, executor, builder, agentloop.Config{
		Model:       model,
		MaxSteps:    r.maxSteps,
		CallTimeout: r.callTimeout,
	}, r.observer)

	complete, err := loop.Start(ctx, t.Content, t.Context.Workspace)
	if err != nil {
		return "", err
	}
	return complete.Summary, nil
}
