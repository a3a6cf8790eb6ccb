package toolexec

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/ollamabot/agentcore/pkg/apperrors"
	"github.com/ollamabot/agentcore/pkg/toolspec"
)

// codeFileExtensions is the fixed allow-list of spec §6.3 used to bound
// search_replace's recursive file enumeration when no explicit path list
// is given.
var codeFileExtensions = map[string]bool{
	".go": true, ".py": true, ".js": true, ".jsx": true, ".ts": true, ".tsx": true,
	".rs": true, ".c": true, ".h": true, ".cpp": true, ".hpp": true, ".java": true,
	".rb": true, ".swift": true, ".kt": true, ".md": true, ".yaml": true, ".yml": true,
	".json": true, ".toml": true, ".sh": true,
	".cs": true, ".php": true, ".vue": true, ".svelte": true, ".html": true, ".css": true,
	".scss": true, ".xml": true, ".bash": true, ".zsh": true, ".sql": true,
}

// writeFileAtomic writes content to path via write-to-temp-then-rename,
// matching spec §4.3's "atomic file writes" requirement for edit_file,
// search_replace, and multi_edit.
func writeFileAtomic(path, content string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return apperrors.Wrap(apperrors.KindIO, fmt.Sprintf("failed to create temp file for %q", path), err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return apperrors.Wrap(apperrors.KindIO, fmt.Sprintf("failed to write temp file for %q", path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return apperrors.Wrap(apperrors.KindIO, fmt.Sprintf("failed to close temp file for %q", path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return apperrors.Wrap(apperrors.KindIO, fmt.Sprintf("failed to rename temp file into %q", path), err)
	}
	return nil
}

// lineRangePattern parses edit_file's line-range string forms:
// "-S +E", "S-E", or "-N" (spec §4.3 dispatcher precedence (a)).
var lineRangePattern = regexp.MustCompile(`^-(\d+)\s*\+(\d+)$|^(\d+)-(\d+)$|^-(\d+)$`)

func parseLineRange(s string, totalLines int) (start, end int, ok bool) {
	m := lineRangePattern.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	switch {
	case m[1] != "":
		start, _ = strconv.Atoi(m[1])
		end, _ = strconv.Atoi(m[2])
	case m[3] != "":
		start, _ = strconv.Atoi(m[3])
		end, _ = strconv.Atoi(m[4])
	default:
		n, _ := strconv.Atoi(m[5])
		start, end = 1, n
	}
	return clampLine(start, totalLines), clampLine(end, totalLines), true
}

func clampLine(n, total int) int {
	if n < 1 {
		return 1
	}
	if n > total {
		return total
	}
	return n
}

// handleEditFile implements the edit_file dispatcher precedence of spec
// §4.3: (a) line-range string, (b) start_line+end_line+new_content,
// (c) old_string/new_string exact-substring replacement.
func handleEditFile(ctx context.Context, ex *Executor, call toolspec.ToolCall) (string, error) {
	args := call.Args
	path, err := args.GetString("path")
	if err != nil {
		return "", err
	}
	path = resolvePath(ex, path)

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindIO, fmt.Sprintf("failed to read %q", path), err)
	}
	lines := strings.Split(string(raw), "\n")

	if rangeStr, rerr := args.GetString("range"); rerr == nil {
		start, end, ok := parseLineRange(rangeStr, len(lines))
		if !ok {
			return "", apperrors.New(apperrors.KindArgInvalid, fmt.Sprintf("invalid range %q", rangeStr))
		}
		if start > end {
			return "", apperrors.New(apperrors.KindArgInvalid, "range start is after end")
		}
		newContent, nerr := args.GetString("new_content")
		if nerr != nil {
			return "", nerr
		}
		return applyLineRange(ex, path, lines, start, end, newContent)
	}

	if startLine, serr := args.GetInt("start_line"); serr == nil {
		endLine, eerr := args.GetInt("end_line")
		if eerr != nil {
			return "", eerr
		}
		newContent, nerr := args.GetString("new_content")
		if nerr != nil {
			return "", nerr
		}
		start, end := clampLine(startLine, len(lines)), clampLine(endLine, len(lines))
		if start > end {
			return "", apperrors.New(apperrors.KindArgInvalid, "start_line is after end_line")
		}
		return applyLineRange(ex, path, lines, start, end, newContent)
	}

	if oldStr, operr := args.GetString("old_string"); operr == nil {
		newStr, nerr := args.GetString("new_string")
		if nerr != nil {
			return "", nerr
		}
		content := string(raw)
		if !strings.Contains(content, oldStr) {
			return "", apperrors.New(apperrors.KindNotFound, "old_string not found in file")
		}
		updated := strings.Replace(content, oldStr, newStr, 1)
		if err := writeFileAtomic(path, updated); err != nil {
			return "", err
		}
		return fmt.Sprintf("replaced 1 occurrence in %s", path), nil
	}

	return "", apperrors.New(apperrors.KindArgInvalid, "no valid edit parameters")
}

func applyLineRange(ex *Executor, path string, lines []string, start, end int, newContent string) (string, error) {
	before := lines[:start-1]
	after := lines[end:]
	replacement := strings.Split(newContent, "\n")

	out := make([]string, 0, len(before)+len(replacement)+len(after))
	out = append(out, before...)
	out = append(out, replacement...)
	out = append(out, after...)

	if err := writeFileAtomic(path, strings.Join(out, "\n")); err != nil {
		return "", err
	}
	return fmt.Sprintf("replaced lines %d-%d in %s", start, end, path), nil
}

// handleSearchReplace implements search_replace's count-then-optionally-write
// behavior. The Open Question is decided as: compile the literal search
// string as a quoted regex and count FindAllStringIndex matches, not
// strings.Split-length arithmetic.
func handleSearchReplace(ctx context.Context, ex *Executor, call toolspec.ToolCall) (string, error) {
	args := call.Args
	search, err := args.GetString("search")
	if err != nil {
		return "", err
	}
	replace, err := args.GetString("replace")
	if err != nil {
		return "", err
	}
	dryRun := args.GetBoolOr("dry_run", true)

	files, _ := args.GetStringList("paths")
	if len(files) == 0 {
		files, err = enumerateCodeFiles(ex.Config.WorkingDirectory)
		if err != nil {
			return "", err
		}
	}

	pattern, err := regexp.Compile(regexp.QuoteMeta(search))
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindArgInvalid, "failed to compile search pattern", err)
	}

	var summary strings.Builder
	total := 0
	for _, f := range files {
		raw, rerr := os.ReadFile(f)
		if rerr != nil {
			continue
		}
		content := string(raw)
		matches := pattern.FindAllStringIndex(content, -1)
		if len(matches) == 0 {
			continue
		}
		total += len(matches)
		fmt.Fprintf(&summary, "%s: %d occurrence(s)\n", f, len(matches))

		if !dryRun {
			updated := pattern.ReplaceAllLiteralString(content, replace)
			if err := writeFileAtomic(f, updated); err != nil {
				return "", err
			}
		}
	}

	if total == 0 {
		return "no occurrences found", nil
	}
	mode := "dry run"
	if !dryRun {
		mode = "applied"
	}
	return fmt.Sprintf("%s: %d total occurrence(s) across %d file(s)\n%s", mode, total, strings.Count(summary.String(), "\n"), summary.String()), nil
}

func enumerateCodeFiles(root string) ([]string, error) {
	if root == "" {
		root = "."
	}
	var files []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			base := info.Name()
			if base == "node_modules" || base == ".git" || (strings.HasPrefix(base, ".") && path != root) {
				return filepath.SkipDir
			}
			return nil
		}
		if codeFileExtensions[filepath.Ext(path)] {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindIO, "failed to enumerate workspace files", err)
	}
	return files, nil
}

// handleMultiEdit implements multi_edit's atomicity rule of spec §4.3:
// load once, apply each edit in order to the in-memory string (a
// non-matching old_string is skipped and reported, not an error), write
// once at the end if any edit succeeded, fail only if zero succeeded.
func handleMultiEdit(ctx context.Context, ex *Executor, call toolspec.ToolCall) (string, error) {
	args := call.Args
	path, err := args.GetString("path")
	if err != nil {
		return "", err
	}
	path = resolvePath(ex, path)

	edits, err := args.GetObjectList("edits")
	if err != nil {
		return "", err
	}

	raw, rerr := os.ReadFile(path)
	if rerr != nil {
		return "", apperrors.Wrap(apperrors.KindIO, fmt.Sprintf("failed to read %q", path), rerr)
	}
	content := string(raw)

	var report strings.Builder
	applied := 0
	for i, edit := range edits {
		oldStr, operr := edit.GetString("old_string")
		newStr, nerr := edit.GetString("new_string")
		if operr != nil || nerr != nil {
			fmt.Fprintf(&report, "edit %d: missing old_string/new_string, skipped\n", i)
			continue
		}
		if !strings.Contains(content, oldStr) {
			fmt.Fprintf(&report, "edit %d: old_string not found, skipped\n", i)
			continue
		}
		content = strings.Replace(content, oldStr, newStr, 1)
		applied++
		fmt.Fprintf(&report, "edit %d: applied\n", i)
	}

	if applied == 0 {
		return "", apperrors.New(apperrors.KindArgInvalid, "no edits applied: "+report.String())
	}

	if err := writeFileAtomic(path, content); err != nil {
		return "", err
	}
	return fmt.Sprintf("applied %d/%d edit(s) to %s\n%s", applied, len(edits), path, report.String()), nil
}

func resolvePath(ex *Executor, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if ex.Config.WorkingDirectory == "" {
		return path
	}
	return filepath.Join(ex.Config.WorkingDirectory, path)
}
