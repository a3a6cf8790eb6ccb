package toolexec

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/ollamabot/agentcore/pkg/apperrors"
	"github.com/ollamabot/agentcore/pkg/toolspec"
)

func handleReadFile(ctx context.Context, ex *Executor, call toolspec.ToolCall) (string, error) {
	args := call.Args
	path, err := args.GetString("path")
	if err != nil {
		return "", err
	}
	raw, rerr := os.ReadFile(resolvePath(ex, path))
	if rerr != nil {
		if os.IsNotExist(rerr) {
			return "", apperrors.Wrap(apperrors.KindNotFound, fmt.Sprintf("%q does not exist", path), rerr)
		}
		return "", apperrors.Wrap(apperrors.KindIO, fmt.Sprintf("failed to read %q", path), rerr)
	}
	return string(raw), nil
}

func handleBatchRead(ctx context.Context, ex *Executor, call toolspec.ToolCall) (string, error) {
	args := call.Args
	paths, err := args.GetStringList("paths")
	if err != nil {
		return "", err
	}
	var out strings.Builder
	for _, p := range paths {
		raw, rerr := os.ReadFile(resolvePath(ex, p))
		if rerr != nil {
			fmt.Fprintf(&out, "=== %s (error: %v) ===\n", p, rerr)
			continue
		}
		fmt.Fprintf(&out, "=== %s ===\n%s\n", p, string(raw))
	}
	return out.String(), nil
}

func handleListDirectory(ctx context.Context, ex *Executor, call toolspec.ToolCall) (string, error) {
	args := call.Args
	path, err := args.GetString("path")
	if err != nil {
		return "", err
	}
	entries, rerr := os.ReadDir(resolvePath(ex, path))
	if rerr != nil {
		return "", apperrors.Wrap(apperrors.KindIO, fmt.Sprintf("failed to list %q", path), rerr)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		suffix := ""
		if e.IsDir() {
			suffix = "/"
		}
		names = append(names, e.Name()+suffix)
	}
	sort.Strings(names)
	return strings.Join(names, "\n"), nil
}

func handleMkdir(ctx context.Context, ex *Executor, call toolspec.ToolCall) (string, error) {
	args := call.Args
	path, err := args.GetString("path")
	if err != nil {
		return "", err
	}
	full := resolvePath(ex, path)
	if err := os.MkdirAll(full, 0755); err != nil {
		return "", apperrors.Wrap(apperrors.KindIO, fmt.Sprintf("failed to create directory %q", path), err)
	}
	return fmt.Sprintf("created %s", path), nil
}

func handleWriteFile(ctx context.Context, ex *Executor, call toolspec.ToolCall) (string, error) {
	args := call.Args
	path, err := args.GetString("path")
	if err != nil {
		return "", err
	}
	content, err := args.GetString("content")
	if err != nil {
		return "", err
	}
	full := resolvePath(ex, path)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return "", apperrors.Wrap(apperrors.KindIO, fmt.Sprintf("failed to create parent directory for %q", path), err)
	}
	if err := writeFileAtomic(full, content); err != nil {
		return "", err
	}
	return fmt.Sprintf("wrote %d bytes to %s", len(content), path), nil
}

func handleMove(ctx context.Context, ex *Executor, call toolspec.ToolCall) (string, error) {
	args := call.Args
	from, err := args.GetString("from")
	if err != nil {
		return "", err
	}
	to, err := args.GetString("to")
	if err != nil {
		return "", err
	}
	if err := os.Rename(resolvePath(ex, from), resolvePath(ex, to)); err != nil {
		return "", apperrors.Wrap(apperrors.KindIO, fmt.Sprintf("failed to move %q to %q", from, to), err)
	}
	return fmt.Sprintf("moved %s to %s", from, to), nil
}

func handleDelete(ctx context.Context, ex *Executor, call toolspec.ToolCall) (string, error) {
	args := call.Args
	path, err := args.GetString("path")
	if err != nil {
		return "", err
	}
	full := resolvePath(ex, path)
	if err := os.RemoveAll(full); err != nil {
		return "", apperrors.Wrap(apperrors.KindIO, fmt.Sprintf("failed to delete %q", path), err)
	}
	return fmt.Sprintf("deleted %s", path), nil
}

func handleGlobSearch(ctx context.Context, ex *Executor, call toolspec.ToolCall) (string, error) {
	args := call.Args
	pattern, err := args.GetString("pattern")
	if err != nil {
		return "", err
	}
	root := ex.Config.WorkingDirectory
	if root == "" {
		root = "."
	}
	matches, merr := filepath.Glob(filepath.Join(root, pattern))
	if merr != nil {
		return "", apperrors.Wrap(apperrors.KindArgInvalid, "invalid glob pattern", merr)
	}
	sort.Strings(matches)
	return strings.Join(matches, "\n"), nil
}

func handleSearchFiles(ctx context.Context, ex *Executor, call toolspec.ToolCall) (string, error) {
	return handleGrep(ctx, ex, call)
}

func handleGrep(ctx context.Context, ex *Executor, call toolspec.ToolCall) (string, error) {
	args := call.Args
	pattern, err := args.GetString("pattern")
	if err != nil {
		return "", err
	}
	re, rerr := regexp.Compile(pattern)
	if rerr != nil {
		return "", apperrors.Wrap(apperrors.KindArgInvalid, "invalid regular expression", rerr)
	}

	root := args.GetStringOr("path", ex.Config.WorkingDirectory)
	if root == "" {
		root = "."
	}

	var out strings.Builder
	walkErr := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		raw, rerr := os.ReadFile(path)
		if rerr != nil {
			return nil
		}
		for i, line := range strings.Split(string(raw), "\n") {
			if re.MatchString(line) {
				fmt.Fprintf(&out, "%s:%d: %s\n", path, i+1, line)
			}
		}
		return nil
	})
	if walkErr != nil {
		return "", apperrors.Wrap(apperrors.KindIO, "failed to walk workspace", walkErr)
	}
	if out.Len() == 0 {
		return "no matches found", nil
	}
	return out.String(), nil
}

// handleCodebaseSearch is a text-grep approximation of semantic search:
// the reference executor has no embedding index, so it falls back to a
// case-insensitive substring grep over code files, ranked by hit count.
func handleCodebaseSearch(ctx context.Context, ex *Executor, call toolspec.ToolCall) (string, error) {
	args := call.Args
	query, err := args.GetString("query")
	if err != nil {
		return "", err
	}
	files, ferr := enumerateCodeFiles(ex.Config.WorkingDirectory)
	if ferr != nil {
		return "", ferr
	}
	queryLower := strings.ToLower(query)

	type hit struct {
		path  string
		count int
	}
	var hits []hit
	for _, f := range files {
		raw, rerr := os.ReadFile(f)
		if rerr != nil {
			continue
		}
		count := strings.Count(strings.ToLower(string(raw)), queryLower)
		if count > 0 {
			hits = append(hits, hit{path: f, count: count})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].count > hits[j].count })

	var out strings.Builder
	for _, h := range hits {
		fmt.Fprintf(&out, "%s (%d match(es))\n", h.path, h.count)
	}
	if out.Len() == 0 {
		return "no matches found", nil
	}
	return out.String(), nil
}

// symbolDeclPattern approximates "definition" sites across the code-file
// allow-list's common declaration keywords.
var symbolDeclPattern = regexp.MustCompile(`^\s*(func|type|class|def|interface|struct)\s+(\w+)`)

func handleFindDefinition(ctx context.Context, ex *Executor, call toolspec.ToolCall) (string, error) {
	args := call.Args
	symbol, err := args.GetString("symbol")
	if err != nil {
		return "", err
	}
	files, ferr := enumerateCodeFiles(ex.Config.WorkingDirectory)
	if ferr != nil {
		return "", ferr
	}
	var out strings.Builder
	for _, f := range files {
		raw, rerr := os.ReadFile(f)
		if rerr != nil {
			continue
		}
		for i, line := range strings.Split(string(raw), "\n") {
			m := symbolDeclPattern.FindStringSubmatch(line)
			if m != nil && strings.Contains(m[2], symbol) {
				fmt.Fprintf(&out, "%s:%d: %s\n", f, i+1, strings.TrimSpace(line))
			}
		}
	}
	if out.Len() == 0 {
		return "no definitions found", nil
	}
	return out.String(), nil
}

func handleFindReferences(ctx context.Context, ex *Executor, call toolspec.ToolCall) (string, error) {
	args := call.Args
	symbol, err := args.GetString("symbol")
	if err != nil {
		return "", err
	}
	return handleGrep(ctx, ex, toolspec.ToolCall{
		ID:   call.ID,
		Name: "grep",
		Args: toolspec.Args{"pattern": toolspec.StringValue(regexp.QuoteMeta(symbol))},
	})
}
