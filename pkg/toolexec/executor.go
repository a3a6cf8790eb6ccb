// Package toolexec implements the ToolExecutor of spec §4.3: dispatch a
// parsed tool call to its bound handler, run read-only/pure runs of calls
// concurrently, cache idempotent tool outputs, and invalidate that cache
// on any mutating tool's success.
package toolexec

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/ollamabot/agentcore/pkg/apperrors"
	"github.com/ollamabot/agentcore/pkg/toolspec"
)

// Handler executes one tool call's logic against the Executor's bound
// resources and returns the textual output placed in the ToolResult.
type Handler func(ctx context.Context, ex *Executor, call toolspec.ToolCall) (string, error)

// cacheableReadOnly is the minimum set of read-only tools that populate
// the output cache (spec §4.3: "at minimum"); other read-only tools may
// opt in by adding their name here.
var cacheableReadOnly = map[string]bool{
	"read_file":      true,
	"list_directory": true,
	"search_files":   true,
	"glob_search":    true,
	"grep":           true,
	"batch_read":     true,
	"git_status":     true,
	"git_diff":       true,
}

// cacheEntry is one LRU-cached tool output plus the weight it was
// inserted with (output length/100 + 1). The cache is bounded by entry
// count (Config.CacheCapacity) only; the weight is recorded but plays
// no part in eviction.
type cacheEntry struct {
	output string
	weight int
}

// Executor is the bound, stateful ToolExecutor: catalog of known tools,
// handler table, and the idempotent-output cache.
type Executor struct {
	Catalog *toolspec.Catalog
	Config  Config

	handlers map[string]Handler

	mu          sync.Mutex
	cache       *lru.Cache[string, cacheEntry]
	cacheWeight int

	Delegator Delegator

	delegationMu  sync.Mutex
	delegationLog map[string]toolspec.ToolResult

	Memory *memoryStore
	Todos  *todoStore
}

// Config carries the executor's environmental knobs.
type Config struct {
	WorkingDirectory string
	Shell            string
	CacheCapacity    int
}

// New constructs an Executor bound to catalog, wired with every builtin
// handler, and backed by a bounded LRU cache.
func New(catalog *toolspec.Catalog, cfg Config, delegator Delegator) (*Executor, error) {
	if cfg.CacheCapacity <= 0 {
		cfg.CacheCapacity = 256
	}
	cache, err := lru.New[string, cacheEntry](cfg.CacheCapacity)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindIO, "failed to allocate tool output cache", err)
	}
	ex := &Executor{
		Catalog:       catalog,
		Config:        cfg,
		handlers:      make(map[string]Handler),
		cache:         cache,
		Delegator:     delegator,
		delegationLog: make(map[string]toolspec.ToolResult),
		Memory:        newMemoryStore(),
		Todos:         newTodoStore(),
	}
	registerBuiltinHandlers(ex)
	return ex, nil
}

// RegisterHandler binds a handler for a tool name, overwriting any prior
// binding. Exposed so callers can rebind the default registration (e.g.
// tests substituting a fake filesystem handler).
func (ex *Executor) RegisterHandler(name string, h Handler) {
	ex.handlers[name] = h
}

// Execute dispatches one tool call and returns its result. It never
// returns a Go error for a tool-level failure; a failed ToolResult is
// the normal representation (spec §7 distinguishes tool failures, which
// are reported to the model, from executor-level faults).
func (ex *Executor) Execute(ctx context.Context, call toolspec.ToolCall) toolspec.ToolResult {
	class := ex.Catalog.SideEffectOf(call.Name)

	if class == toolspec.ReadOnly || class == toolspec.Pure {
		if out, ok := ex.cacheGet(call); ok {
			return toolspec.ToolResult{ToolCallID: call.ID, Success: true, Output: out}
		}
	}

	handler, ok := ex.handlers[call.Name]
	if !ok {
		return toolspec.ToolResult{
			ToolCallID: call.ID,
			Success:    false,
			Output:     fmt.Sprintf("unknown tool %q", call.Name),
		}
	}

	out, err := handler(ctx, ex, call)
	if err != nil {
		return toolspec.ToolResult{ToolCallID: call.ID, Success: false, Output: err.Error()}
	}

	switch class {
	case toolspec.ReadOnly, toolspec.Pure:
		ex.cachePut(call, out)
	case toolspec.Mutating:
		ex.cacheClear()
	}

	return toolspec.ToolResult{ToolCallID: call.ID, Success: true, Output: out}
}

// ExecuteMany implements the grouping algorithm of spec §4.3: walk calls
// in order, accumulate a run of pure/read-only calls into a parallel
// group, flush (execute, possibly concurrently) on encountering a
// non-parallelisable call, execute that call sequentially, and continue.
// Output order always matches input order.
func (ex *Executor) ExecuteMany(ctx context.Context, calls []toolspec.ToolCall) []toolspec.ToolResult {
	results := make([]toolspec.ToolResult, len(calls))

	var group []int // indices into calls/results forming the current parallel run
	flush := func() {
		if len(group) == 0 {
			return
		}
		ex.runGroup(ctx, calls, results, group)
		group = nil
	}

	for i, call := range calls {
		class := ex.Catalog.SideEffectOf(call.Name)
		if class == toolspec.Pure || class == toolspec.ReadOnly {
			group = append(group, i)
			continue
		}
		flush()
		results[i] = ex.Execute(ctx, call)
	}
	flush()

	return results
}

// runGroup executes a parallelisable run of calls, sequentially if the
// group is small (overhead dominates below 3 calls per spec §4.3),
// otherwise concurrently via errgroup with results re-ordered by index.
func (ex *Executor) runGroup(ctx context.Context, calls []toolspec.ToolCall, results []toolspec.ToolResult, group []int) {
	if len(group) <= 2 {
		for _, i := range group {
			results[i] = ex.Execute(ctx, calls[i])
		}
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, i := range group {
		i := i
		g.Go(func() error {
			results[i] = ex.Execute(gctx, calls[i])
			return nil
		})
	}
	_ = g.Wait() // Execute never returns a Go error; failures surface as ToolResult.Success=false
}

// canonicalArgsKey builds the cache key of spec §4.3:
// tool_name + "|" + canonical_json(arguments) with keys sorted and
// whitespace stripped.
func canonicalArgsKey(call toolspec.ToolCall) string {
	raw := call.Args.RawMap()
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ordered := make([]byte, 0, 128)
	ordered = append(ordered, '{')
	for i, k := range keys {
		if i > 0 {
			ordered = append(ordered, ',')
		}
		kb, _ := json.Marshal(k)
		vb, _ := json.Marshal(raw[k])
		ordered = append(ordered, kb...)
		ordered = append(ordered, ':')
		ordered = append(ordered, vb...)
	}
	ordered = append(ordered, '}')

	return call.Name + "|" + string(ordered)
}

func isCacheable(name string) bool {
	return cacheableReadOnly[name] || name == "think" || name == "complete" || name == "memory:retrieve" || name == "memory:list" || name == "todo:list"
}

func (ex *Executor) cacheGet(call toolspec.ToolCall) (string, bool) {
	if !isCacheable(call.Name) {
		return "", false
	}
	ex.mu.Lock()
	defer ex.mu.Unlock()
	entry, ok := ex.cache.Get(canonicalArgsKey(call))
	if !ok {
		return "", false
	}
	return entry.output, true
}

func (ex *Executor) cachePut(call toolspec.ToolCall, output string) {
	if !isCacheable(call.Name) {
		return
	}
	ex.mu.Lock()
	defer ex.mu.Unlock()
	ex.cache.Add(canonicalArgsKey(call), cacheEntry{output: output, weight: len(output)/100 + 1})
}

func (ex *Executor) cacheClear() {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	ex.cache.Purge()
	ex.cacheWeight = 0
}
