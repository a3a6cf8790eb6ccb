package toolexec

import (
	"context"

	"github.com/ollamabot/agentcore/pkg/toolspec"
)

func handleMemoryRetrieve(ctx context.Context, ex *Executor, call toolspec.ToolCall) (string, error) {
	key, err := call.Args.GetString("key")
	if err != nil {
		return "", err
	}
	return memoryRetrieveOrNotFound(ex.Memory, key)
}

func handleMemoryStore(ctx context.Context, ex *Executor, call toolspec.ToolCall) (string, error) {
	key, err := call.Args.GetString("key")
	if err != nil {
		return "", err
	}
	value, err := call.Args.GetString("value")
	if err != nil {
		return "", err
	}
	ex.Memory.set(key, value)
	return "stored", nil
}

func handleMemoryDelete(ctx context.Context, ex *Executor, call toolspec.ToolCall) (string, error) {
	key, err := call.Args.GetString("key")
	if err != nil {
		return "", err
	}
	if !ex.Memory.delete(key) {
		return "", apperrorsNotFoundKey(key)
	}
	return "deleted", nil
}

func handleMemoryList(ctx context.Context, ex *Executor, call toolspec.ToolCall) (string, error) {
	keys := ex.Memory.keys()
	if len(keys) == 0 {
		return "no keys stored", nil
	}
	out := ""
	for i, k := range keys {
		if i > 0 {
			out += "\n"
		}
		out += k
	}
	return out, nil
}

func handleTodoAdd(ctx context.Context, ex *Executor, call toolspec.ToolCall) (string, error) {
	content, err := call.Args.GetString("content")
	if err != nil {
		return "", err
	}
	id := ex.Todos.add(content)
	return "added " + id, nil
}

func handleTodoUpdate(ctx context.Context, ex *Executor, call toolspec.ToolCall) (string, error) {
	id, err := call.Args.GetString("id")
	if err != nil {
		return "", err
	}
	content, err := call.Args.GetString("content")
	if err != nil {
		return "", err
	}
	if !ex.Todos.update(id, content) {
		return "", apperrorsNotFoundKey(id)
	}
	return "updated", nil
}

func handleTodoComplete(ctx context.Context, ex *Executor, call toolspec.ToolCall) (string, error) {
	id, err := call.Args.GetString("id")
	if err != nil {
		return "", err
	}
	if !ex.Todos.complete(id) {
		return "", apperrorsNotFoundKey(id)
	}
	return "completed", nil
}

func handleTodoRemove(ctx context.Context, ex *Executor, call toolspec.ToolCall) (string, error) {
	id, err := call.Args.GetString("id")
	if err != nil {
		return "", err
	}
	if !ex.Todos.remove(id) {
		return "", apperrorsNotFoundKey(id)
	}
	return "removed", nil
}

func handleTodoList(ctx context.Context, ex *Executor, call toolspec.ToolCall) (string, error) {
	return formatTodoList(ex.Todos.list()), nil
}
