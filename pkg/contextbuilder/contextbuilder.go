// Package contextbuilder implements the ContextBuilder of spec §4.8:
// assemble the orchestrator system prompt and the specialist delegation
// prompt, fold in project rules and prior tool results, and bound each
// by a token budget via pkg/utils.TokenCounter.
package contextbuilder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/ollamabot/agentcore/pkg/backend"
	"github.com/ollamabot/agentcore/pkg/utils"
)

// codeFileExtensions is the fixed allow-list of spec §6.3; toolexec keeps
// the same extensions for its search_replace/codebase_search scoping.
var codeFileExtensions = []string{
	"swift", "ts", "tsx", "js", "jsx", "py", "rb", "go", "rs", "java", "kt",
	"cpp", "c", "h", "hpp", "cs", "php", "vue", "svelte", "html", "css",
	"scss", "json", "yaml", "yml", "toml", "xml", "md", "sh", "bash", "zsh", "sql",
}

// relevantFileTokenPattern extracts `\b[\w-]+\.(<ext>)\b` tokens (spec
// §4.8 relevant-file discovery).
var relevantFileTokenPattern = regexp.MustCompile(`\b[\w-]+\.(` + strings.Join(codeFileExtensions, "|") + `)\b`)

// projectRulesFilenames are checked, in order, for a project-context
// System message; the first one present wins. No single convention is
// named in the spec, so this mirrors the common "agent instructions
// file" conventions in the wider ecosystem.
var projectRulesFilenames = []string{"AGENTS.md", "CONTEXT.md", ".ollamabotrc"}

// roleProfiles holds the fixed-structure specialist profile text for
// coder/researcher/vision, keyed by role (spec §4.8).
var roleProfiles = map[string]string{
	"coder": "You are the coder specialist. Make the smallest correct change that satisfies the task; " +
		"prefer editing existing files to creating new ones; report the files you changed and why.",
	"researcher": "You are the researcher specialist. Investigate the codebase and answer the task precisely; " +
		"cite file paths and line ranges for every claim; do not modify files.",
	"vision": "You are the vision specialist. Describe what is visible in the supplied images as it relates to " +
		"the task; call out UI elements, error text, and layout precisely.",
}

// Builder assembles orchestrator and delegation prompts bound to a
// token budget for one model.
type Builder struct {
	tokens *utils.TokenCounter

	SystemPromptBudget   int
	DelegationBudget     int
	RecentToolResultsCap int // number of recent Tool outputs folded into the digest
}

// New constructs a Builder whose token accounting targets model.
func New(model string, systemBudget, delegationBudget int) (*Builder, error) {
	tc, err := utils.NewTokenCounter(model)
	if err != nil {
		return nil, fmt.Errorf("failed to build token counter: %w", err)
	}
	if systemBudget <= 0 {
		systemBudget = 4000
	}
	if delegationBudget <= 0 {
		delegationBudget = 2000
	}
	return &Builder{
		tokens:               tc,
		SystemPromptBudget:   systemBudget,
		DelegationBudget:     delegationBudget,
		RecentToolResultsCap: 5,
	}, nil
}

// OrchestratorSystemPrompt implements agentloop.ProfileBuilder: the
// orchestrator profile, enumerating the tool catalog and the step bound.
func (b *Builder) OrchestratorSystemPrompt(toolNames []string, maxSteps int) string {
	sorted := append([]string(nil), toolNames...)
	sort.Strings(sorted)

	var sb strings.Builder
	sb.WriteString("You are the orchestrator agent of a local-first coding assistant. ")
	sb.WriteString("You work by calling tools to inspect and modify the workspace, delegating to specialists when a sub-task needs a different model, and calling `complete` once the task is done.\n\n")
	sb.WriteString("Available tools: ")
	sb.WriteString(strings.Join(sorted, ", "))
	sb.WriteString(fmt.Sprintf("\n\nYou have at most %d steps; call `complete` as soon as the task is satisfied.", maxSteps))
	return b.truncateToBudget(sb.String(), b.SystemPromptBudget)
}

// ProjectContextSection implements agentloop.ProfileBuilder: reads the
// first present project-rules file under workingDirectory, if any.
func (b *Builder) ProjectContextSection(workingDirectory string) (string, bool) {
	if workingDirectory == "" {
		return "", false
	}
	for _, name := range projectRulesFilenames {
		raw, err := os.ReadFile(filepath.Join(workingDirectory, name))
		if err != nil {
			continue
		}
		content := strings.TrimSpace(string(raw))
		if content == "" {
			continue
		}
		return b.truncateToBudget("Project rules (from "+name+"):\n"+content, b.SystemPromptBudget/2), true
	}
	return "", false
}

// RecentToolResultsDigest folds the last N tool outputs into a bounded
// digest for the AgentLoop system prompt assembly
// (orchestrator_profile + project_rules_section + this, spec §4.8).
func (b *Builder) RecentToolResultsDigest(outputs []string) string {
	if len(outputs) == 0 {
		return ""
	}
	start := 0
	if len(outputs) > b.RecentToolResultsCap {
		start = len(outputs) - b.RecentToolResultsCap
	}
	recent := outputs[start:]

	var sb strings.Builder
	sb.WriteString("Recent tool results:\n")
	for _, out := range recent {
		sb.WriteString("- ")
		sb.WriteString(truncateRunes(out, 400))
		sb.WriteString("\n")
	}
	return b.truncateToBudget(sb.String(), b.SystemPromptBudget/2)
}

// DelegationPrompt implements toolexec.Delegator's profile-assembly half
// (spec §4.8): specialist_profile + task + relevant_files block + context.
func (b *Builder) DelegationPrompt(role, task, callerContext, workingDirectory string) string {
	profile, ok := roleProfiles[role]
	if !ok {
		profile = "You are the " + role + " specialist."
	}

	var sb strings.Builder
	sb.WriteString(profile)
	sb.WriteString("\n\n")
	sb.WriteString(task)

	if block := b.relevantFilesBlock(task, callerContext, workingDirectory); block != "" {
		sb.WriteString("\n\n")
		sb.WriteString(block)
	}

	if callerContext != "" {
		sb.WriteString("\n\n")
		sb.WriteString(callerContext)
	}

	return b.truncateToBudget(sb.String(), b.DelegationBudget)
}

// relevantFilesBlock implements the relevant-file discovery algorithm of
// spec §4.8: extract up to 3 `name.ext` tokens from task ∥ context, then
// search the workspace for matching basenames.
func (b *Builder) relevantFilesBlock(task, callerContext, workingDirectory string) string {
	if workingDirectory == "" {
		return ""
	}
	tokens := relevantFileTokenPattern.FindAllString(task+" "+callerContext, -1)
	if len(tokens) > 3 {
		tokens = tokens[:3]
	}
	if len(tokens) == 0 {
		return ""
	}

	wanted := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		wanted[t] = true
	}

	var matches []string
	_ = filepath.WalkDir(workingDirectory, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			name := d.Name()
			if strings.HasPrefix(name, ".") || name == "node_modules" {
				return filepath.SkipDir
			}
			return nil
		}
		if wanted[d.Name()] {
			rel, relErr := filepath.Rel(workingDirectory, path)
			if relErr != nil {
				rel = path
			}
			matches = append(matches, rel)
		}
		return nil
	})

	if len(matches) == 0 {
		return ""
	}
	sort.Strings(matches)

	var sb strings.Builder
	sb.WriteString("Relevant files:\n")
	for _, m := range matches {
		sb.WriteString("- ")
		sb.WriteString(m)
		sb.WriteString("\n")
	}
	return sb.String()
}

// truncateToBudget keeps the head of text within budget tokens, dropping
// whole lines from the end since callers build prompts with fixed
// structure first, variable digests last. The first line is always kept.
func (b *Builder) truncateToBudget(text string, budget int) string {
	if budget <= 0 || b.tokens.Count(text) <= budget {
		return text
	}
	lines := strings.Split(text, "\n")
	for len(lines) > 1 && b.tokens.Count(strings.Join(lines, "\n")) > budget {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

// SpecialistDelegator binds a Builder to the concrete ModelBackend,
// model, and workspace a delegation call runs against. It satisfies
// toolexec.Delegator structurally (same method signature), so toolexec
// depends on nothing from this package directly.
type SpecialistDelegator struct {
	Builder          *Builder
	Backend          backend.ModelBackend
	Model            string
	WorkingDirectory string
}

// Delegate builds the specialist prompt and runs it via a non-streaming
// Generate call on the bound backend (spec §4.3 "Delegation tools").
func (d *SpecialistDelegator) Delegate(ctx context.Context, role, task, taskContext string) (string, error) {
	prompt := d.Builder.DelegationPrompt(role, task, taskContext, d.WorkingDirectory)
	return d.Backend.Generate(ctx, prompt, d.Model, false, role)
}
