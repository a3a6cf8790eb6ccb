package toolexec

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/ollamabot/agentcore/pkg/apperrors"
)

// memoryStore is the run-local key-value store backing the memory:*
// tools. It is not part of SessionStore's durable state (spec §4.6
// scopes persistence to sessions, not ad-hoc scratch memory); it lives
// for the lifetime of the Executor.
type memoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string]string)}
}

func (m *memoryStore) get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *memoryStore) set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}

func (m *memoryStore) delete(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	delete(m.data, key)
	return ok
}

func (m *memoryStore) keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// todoItem is one entry in the run-local to-do list backing the todo:*
// tools.
type todoItem struct {
	id      string
	content string
	done    bool
}

type todoStore struct {
	mu    sync.Mutex
	items []todoItem
}

func newTodoStore() *todoStore {
	return &todoStore{}
}

func (t *todoStore) add(content string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := uuid.NewString()
	t.items = append(t.items, todoItem{id: id, content: content})
	return id
}

func (t *todoStore) update(id, content string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.items {
		if t.items[i].id == id {
			t.items[i].content = content
			return true
		}
	}
	return false
}

func (t *todoStore) complete(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.items {
		if t.items[i].id == id {
			t.items[i].done = true
			return true
		}
	}
	return false
}

func (t *todoStore) remove(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.items {
		if t.items[i].id == id {
			t.items = append(t.items[:i], t.items[i+1:]...)
			return true
		}
	}
	return false
}

func (t *todoStore) list() []todoItem {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]todoItem, len(t.items))
	copy(out, t.items)
	return out
}

func memoryRetrieveOrNotFound(m *memoryStore, key string) (string, error) {
	v, ok := m.get(key)
	if !ok {
		return "", apperrors.New(apperrors.KindNotFound, fmt.Sprintf("memory key %q not found", key))
	}
	return v, nil
}

func apperrorsNotFoundKey(key string) error {
	return apperrors.New(apperrors.KindNotFound, fmt.Sprintf("key %q not found", key))
}

func formatTodoList(items []todoItem) string {
	if len(items) == 0 {
		return "no to-do items"
	}
	var out strings.Builder
	for _, it := range items {
		mark := " "
		if it.done {
			mark = "x"
		}
		fmt.Fprintf(&out, "[%s] %s: %s\n", mark, it.id, it.content)
	}
	return out.String()
}
