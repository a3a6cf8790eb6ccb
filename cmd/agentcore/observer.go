package main

import (
	"fmt"
	"log/slog"

	"github.com/ollamabot/agentcore/pkg/agentloop"
	"github.com/ollamabot/agentcore/pkg/session"
)

// cliObserver prints AgentSteps to stdout as they happen and records
// each tool step into a Session as one state, schedule held fixed at
// the caller-supplied value and process incrementing per tool call
// (spec §4.7 "schedule.S{sched}P{proc}" convention applied to a
// single-schedule CLI run).
type cliObserver struct {
	sess     *session.Session
	schedule int
	process  int
}

func newCLIObserver(sess *session.Session, schedule int) *cliObserver {
	return &cliObserver{sess: sess, schedule: schedule}
}

func (o *cliObserver) OnStep(step agentloop.AgentStep) {
	switch s := step.(type) {
	case agentloop.SystemStep:
		slog.Info(s.Msg)
	case agentloop.ThinkingStep:
		fmt.Println(s.Text)
	case agentloop.ToolStep:
		o.process++
		action := fmt.Sprintf("%s(%s) -> %s", s.Name, truncateForDisplay(s.Input, 120), truncateForDisplay(s.Output, 200))
		if o.sess != nil {
			if _, err := o.sess.AddState(o.schedule, o.process, []string{action}); err != nil {
				slog.Warn("failed to record session state", "error", err, "tool", s.Name)
			}
		}
		fmt.Printf("[tool] %s\n", s.Name)
	case agentloop.UserInputStep:
		fmt.Printf("? %s\n", s.Question)
	case agentloop.ErrorStep:
		slog.Warn("recovered error", "msg", s.Msg)
	case agentloop.CompleteStep:
		fmt.Printf("\n%s\n", s.Summary)
	}
}

func truncateForDisplay(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
