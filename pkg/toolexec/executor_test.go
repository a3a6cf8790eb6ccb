package toolexec

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ollamabot/agentcore/pkg/toolspec"
)

func newTestExecutor(t *testing.T) (*Executor, string) {
	t.Helper()
	dir := t.TempDir()
	cat, err := toolspec.NewBuiltinCatalog()
	require.NoError(t, err)
	ex, err := New(cat, Config{WorkingDirectory: dir, CacheCapacity: 32}, nil)
	require.NoError(t, err)
	return ex, dir
}

func TestReadWriteFileRoundTrip(t *testing.T) {
	ex, _ := newTestExecutor(t)
	ctx := context.Background()

	writeResult := ex.Execute(ctx, toolspec.ToolCall{
		ID: "1", Name: "write_file",
		Args: toolspec.Args{"path": toolspec.StringValue("a.txt"), "content": toolspec.StringValue("hello")},
	})
	require.True(t, writeResult.Success)

	readResult := ex.Execute(ctx, toolspec.ToolCall{
		ID: "2", Name: "read_file", Args: toolspec.Args{"path": toolspec.StringValue("a.txt")},
	})
	require.True(t, readResult.Success)
	assert.Equal(t, "hello", readResult.Output)
}

func TestMutatingToolClearsCache(t *testing.T) {
	ex, dir := newTestExecutor(t)
	ctx := context.Background()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("v1"), 0644))

	first := ex.Execute(ctx, toolspec.ToolCall{ID: "1", Name: "read_file", Args: toolspec.Args{"path": toolspec.StringValue("a.txt")}})
	require.Equal(t, "v1", first.Output)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("v2"), 0644))

	// Cache still holds "v1" until a mutating tool runs.
	cached := ex.Execute(ctx, toolspec.ToolCall{ID: "2", Name: "read_file", Args: toolspec.Args{"path": toolspec.StringValue("a.txt")}})
	assert.Equal(t, "v1", cached.Output)

	mutate := ex.Execute(ctx, toolspec.ToolCall{ID: "3", Name: "write_file", Args: toolspec.Args{"path": toolspec.StringValue("b.txt"), "content": toolspec.StringValue("x")}})
	require.True(t, mutate.Success)

	fresh := ex.Execute(ctx, toolspec.ToolCall{ID: "4", Name: "read_file", Args: toolspec.Args{"path": toolspec.StringValue("a.txt")}})
	assert.Equal(t, "v2", fresh.Output)
}

func TestExecuteManyPreservesOrder(t *testing.T) {
	ex, dir := newTestExecutor(t)
	ctx := context.Background()
	for _, name := range []string{"a", "b", "c", "d"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+".txt"), []byte(name), 0644))
	}

	calls := []toolspec.ToolCall{
		{ID: "1", Name: "read_file", Args: toolspec.Args{"path": toolspec.StringValue("a.txt")}},
		{ID: "2", Name: "read_file", Args: toolspec.Args{"path": toolspec.StringValue("b.txt")}},
		{ID: "3", Name: "read_file", Args: toolspec.Args{"path": toolspec.StringValue("c.txt")}},
		{ID: "4", Name: "read_file", Args: toolspec.Args{"path": toolspec.StringValue("d.txt")}},
	}
	results := ex.ExecuteMany(ctx, calls)
	require.Len(t, results, 4)
	assert.Equal(t, "a", results[0].Output)
	assert.Equal(t, "b", results[1].Output)
	assert.Equal(t, "c", results[2].Output)
	assert.Equal(t, "d", results[3].Output)
}

func TestEditFileLineRange(t *testing.T) {
	ex, dir := newTestExecutor(t)
	ctx := context.Background()
	path := filepath.Join(dir, "f.go")
	require.NoError(t, os.WriteFile(path, []byte("one\ntwo\nthree\n"), 0644))

	result := ex.Execute(ctx, toolspec.ToolCall{
		ID: "1", Name: "edit_file",
		Args: toolspec.Args{
			"path":        toolspec.StringValue("f.go"),
			"start_line":  toolspec.IntValue(2),
			"end_line":    toolspec.IntValue(2),
			"new_content": toolspec.StringValue("TWO"),
		},
	})
	require.True(t, result.Success, result.Output)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "one\nTWO\nthree\n", string(raw))
}

func TestEditFileRangeStringDashPlusForm(t *testing.T) {
	ex, dir := newTestExecutor(t)
	ctx := context.Background()
	path := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("L1\nL2\nL3\nL4\nL5\n"), 0644))

	result := ex.Execute(ctx, toolspec.ToolCall{
		ID: "1", Name: "edit_file",
		Args: toolspec.Args{
			"path":        toolspec.StringValue("f.txt"),
			"range":       toolspec.StringValue("-2 +4"),
			"new_content": toolspec.StringValue("X\nY"),
		},
	})
	require.True(t, result.Success, result.Output)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "L1\nX\nY\nL5\n", string(raw))
}

func TestEditFileOldStringNotFoundFails(t *testing.T) {
	ex, dir := newTestExecutor(t)
	ctx := context.Background()
	path := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))

	result := ex.Execute(ctx, toolspec.ToolCall{
		ID: "1", Name: "edit_file",
		Args: toolspec.Args{"path": toolspec.StringValue("f.txt"), "old_string": toolspec.StringValue("nope"), "new_string": toolspec.StringValue("x")},
	})
	assert.False(t, result.Success)
}

func TestMultiEditSkipsNonMatchingAndAppliesRest(t *testing.T) {
	ex, dir := newTestExecutor(t)
	ctx := context.Background()
	path := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("alpha beta gamma"), 0644))

	result := ex.Execute(ctx, toolspec.ToolCall{
		ID: "1", Name: "multi_edit",
		Args: toolspec.Args{
			"path": toolspec.StringValue("f.txt"),
			"edits": toolspec.ListValue([]toolspec.Value{
				toolspec.ObjectValue(map[string]toolspec.Value{"old_string": toolspec.StringValue("alpha"), "new_string": toolspec.StringValue("ALPHA")}),
				toolspec.ObjectValue(map[string]toolspec.Value{"old_string": toolspec.StringValue("nonexistent"), "new_string": toolspec.StringValue("x")}),
			}),
		},
	})
	require.True(t, result.Success, result.Output)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ALPHA beta gamma", string(raw))
}

func TestMultiEditFailsWhenZeroApplied(t *testing.T) {
	ex, dir := newTestExecutor(t)
	ctx := context.Background()
	path := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("alpha"), 0644))

	result := ex.Execute(ctx, toolspec.ToolCall{
		ID: "1", Name: "multi_edit",
		Args: toolspec.Args{
			"path": toolspec.StringValue("f.txt"),
			"edits": toolspec.ListValue([]toolspec.Value{
				toolspec.ObjectValue(map[string]toolspec.Value{"old_string": toolspec.StringValue("nope"), "new_string": toolspec.StringValue("x")}),
			}),
		},
	})
	assert.False(t, result.Success)
}

func TestSearchReplaceDryRunDoesNotWrite(t *testing.T) {
	ex, dir := newTestExecutor(t)
	ctx := context.Background()
	path := filepath.Join(dir, "f.go")
	require.NoError(t, os.WriteFile(path, []byte("foo foo foo"), 0644))

	result := ex.Execute(ctx, toolspec.ToolCall{
		ID: "1", Name: "search_replace",
		Args: toolspec.Args{
			"search":  toolspec.StringValue("foo"),
			"replace": toolspec.StringValue("bar"),
			"paths":   toolspec.ListValue([]toolspec.Value{toolspec.StringValue(path)}),
			"dry_run": toolspec.BoolValue(true),
		},
	})
	require.True(t, result.Success)
	assert.Contains(t, result.Output, "3 total occurrence")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "foo foo foo", string(raw))
}

func TestUnknownToolReturnsFailure(t *testing.T) {
	ex, _ := newTestExecutor(t)
	result := ex.Execute(context.Background(), toolspec.ToolCall{ID: "1", Name: "nonexistent"})
	assert.False(t, result.Success)
}
