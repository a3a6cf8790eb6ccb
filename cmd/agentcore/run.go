package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/ollamabot/agentcore/pkg/agentloop"
	"github.com/ollamabot/agentcore/pkg/backend"
	"github.com/ollamabot/agentcore/pkg/contextbuilder"
	"github.com/ollamabot/agentcore/pkg/session"
	"github.com/ollamabot/agentcore/pkg/toolexec"
	"github.com/ollamabot/agentcore/pkg/toolspec"
	"github.com/ollamabot/agentcore/pkg/usf"
	"github.com/ollamabot/agentcore/pkg/utils"
)

// RunCmd drives one task through a single AgentLoop (spec §4.4),
// recording its steps into a SessionStore session and persisting a
// portable UnifiedSession alongside it (spec §4.6, §4.7).
type RunCmd struct {
	Task    string `arg:"" help:"The task description to hand the orchestrator."`
	Workdir string `help:"Working directory the agent operates in." type:"path" default:"."`
	Model   string `help:"Override the backend's default model for this run."`
}

func (c *RunCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli.Config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	model := c.Model
	if model == "" {
		model = cfg.Backend.DefaultModel
	}

	workdir, err := filepath.Abs(c.Workdir)
	if err != nil {
		return fmt.Errorf("failed to resolve working directory: %w", err)
	}

	b := backend.NewOllamaBackend(backend.OllamaConfig{
		BaseURL:   cfg.Backend.BaseURL,
		Timeout:   parseDurationOr(cfg.Backend.RequestTimeout, 10*time.Minute),
		KeepAlive: cfg.Backend.KeepAlive,
	})

	catalog, err := toolspec.NewBuiltinCatalog()
	if err != nil {
		return fmt.Errorf("failed to build tool catalog: %w", err)
	}

	builder, err := contextbuilder.New(model, 0, 0)
	if err != nil {
		return fmt.Errorf("failed to build context builder: %w", err)
	}

	delegator := &contextbuilder.SpecialistDelegator{
		Builder:          builder,
		Backend:          b,
		Model:            model,
		WorkingDirectory: workdir,
	}

	executor, err := toolexec.New(catalog, toolexec.Config{
		WorkingDirectory: workdir,
		Shell:            cfg.ToolExecutor.Shell,
		CacheCapacity:    cfg.ToolExecutor.CacheCapacity,
	}, delegator)
	if err != nil {
		return fmt.Errorf("failed to build tool executor: %w", err)
	}

	configDir, err := utils.EnsureConfigDir(cfg.Session.ConfigDir)
	if err != nil {
		return fmt.Errorf("failed to resolve session config directory: %w", err)
	}
	runDir := filepath.Join(configDir, "sessions", uuid.NewString())
	sess := session.New(runDir)
	sess.SetPrompt(c.Task)
	if !cfg.Session.SkipFilesHash {
		sess.SetWorkspaceRoot(workdir)
	}

	observer := newCLIObserver(sess, 1)

	loop := agentloop.New(b, executor, builder, agentloop.Config{
		Model:       model,
		MaxSteps:    cfg.AgentLoop.MaxSteps,
		CallTimeout: parseDurationOr(cfg.AgentLoop.StepTimeout, 10*time.Minute),
	}, observer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		loop.Stop()
		cancel()
	}()

	if _, err := loop.Start(ctx, c.Task, workdir); err != nil {
		return fmt.Errorf("agent loop failed: %w", err)
	}

	if err := sess.Save(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	unified := usf.ToUSF(sess, usf.OriginCLI, usf.WorkspaceBlock{Path: workdir}, usf.TaskBlock{Description: c.Task})
	if err := usf.SaveAnySession(configDir, unified); err != nil {
		return fmt.Errorf("failed to save portable session: %w", err)
	}

	fmt.Printf("\nsession %s saved under %s\n", sess.ID(), configDir)
	return nil
}
