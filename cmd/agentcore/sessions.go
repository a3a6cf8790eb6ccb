package main

import (
	"fmt"

	"github.com/ollamabot/agentcore/pkg/usf"
	"github.com/ollamabot/agentcore/pkg/utils"
)

// SessionsCmd inspects sessions recorded by prior `run`/`cycle`
// invocations, transparently unioning the Unified and Legacy on-disk
// layouts (spec §4.7 "list_all_sessions").
type SessionsCmd struct {
	List ListSessionsCmd `cmd:"" help:"List every recorded session id." default:"1"`
	Show ShowSessionCmd  `cmd:"" help:"Show one session's task, workspace, and steps."`
}

type ListSessionsCmd struct{}

func (c *ListSessionsCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli.Config)
	if err != nil {
		return err
	}
	configDir, err := utils.EnsureConfigDir(cfg.Session.ConfigDir)
	if err != nil {
		return err
	}
	ids, err := usf.ListAllSessions(configDir)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	if len(ids) == 0 {
		fmt.Println("no sessions recorded")
		return nil
	}
	for _, id := range ids {
		fmt.Println(id)
	}
	return nil
}

type ShowSessionCmd struct {
	ID string `arg:"" help:"Session id to show."`
}

func (c *ShowSessionCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli.Config)
	if err != nil {
		return err
	}
	configDir, err := utils.EnsureConfigDir(cfg.Session.ConfigDir)
	if err != nil {
		return err
	}
	u, err := usf.LoadAnySession(configDir, c.ID)
	if err != nil {
		return fmt.Errorf("failed to load session %q: %w", c.ID, err)
	}

	fmt.Printf("session:   %s\n", u.SessionID)
	fmt.Printf("origin:    %s\n", u.Origin)
	fmt.Printf("task:      %s\n", u.Task.Description)
	fmt.Printf("workspace: %s\n", u.Workspace.Path)
	fmt.Printf("flow code: %s\n", u.Orchestration.FlowCode)
	fmt.Printf("steps:     %d\n", len(u.Steps))
	for _, step := range u.Steps {
		fmt.Printf("  %d. %s: %s\n", step.Number, step.ToolID, truncateForDisplay(step.Output, 160))
	}
	return nil
}
