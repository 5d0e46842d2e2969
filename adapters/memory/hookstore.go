// Package memory provides in-memory implementations for testing.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/artpar/cmscore/domain/hook"
	"github.com/artpar/cmscore/ports"
	"github.com/google/uuid"
)

// HookStore is an in-memory implementation of ports.HookStore.
type HookStore struct {
	mu        sync.RWMutex
	hooks     map[string]hook.Hook // by name, without listeners
	listeners map[string]hook.Listener
	seq       map[string]int64 // listener ID -> registration order
	next      int64
}

// NewHookStore creates a new in-memory hook store.
func NewHookStore() *HookStore {
	return &HookStore{
		hooks:     make(map[string]hook.Hook),
		listeners: make(map[string]hook.Listener),
		seq:       make(map[string]int64),
	}
}

// GetHook retrieves a hook by name.
func (s *HookStore) GetHook(ctx context.Context, name string) (hook.Hook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.hooks[name]
	if !ok {
		return hook.Hook{}, ports.ErrNotFound
	}
	h.Listeners = s.sorted(func(l hook.Listener) bool { return l.HookName == name })
	return h, nil
}

// ListHooks returns all hooks ordered by name.
func (s *HookStore) ListHooks(ctx context.Context) ([]hook.Hook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]hook.Hook, 0, len(s.hooks))
	for name, h := range s.hooks {
		h.Listeners = s.sorted(func(l hook.Listener) bool { return l.HookName == name })
		result = append(result, h)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// CreateHook stores a new hook.
func (s *HookStore) CreateHook(ctx context.Context, h hook.Hook) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.hooks[h.Name]; ok {
		return ports.ErrDuplicate
	}
	s.hooks[h.Name] = fillHook(h)
	return nil
}

// EnsureHook creates the hook if absent and returns the stored row.
func (s *HookStore) EnsureHook(ctx context.Context, h hook.Hook) (hook.Hook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.hooks[h.Name]; ok {
		return existing, nil
	}
	h = fillHook(h)
	s.hooks[h.Name] = h
	return h, nil
}

// DeleteHook removes a hook and its listeners.
func (s *HookStore) DeleteHook(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.hooks[name]; !ok {
		return ports.ErrNotFound
	}
	delete(s.hooks, name)
	for id, l := range s.listeners {
		if l.HookName == name {
			s.drop(id)
		}
	}
	return nil
}

// GetListener retrieves a listener by ID.
func (s *HookStore) GetListener(ctx context.Context, id string) (hook.Listener, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.listeners[id]
	if !ok {
		return hook.Listener{}, ports.ErrNotFound
	}
	return l, nil
}

// ListEnabledListeners returns enabled listeners in dispatch order.
func (s *HookStore) ListEnabledListeners(ctx context.Context) ([]hook.Listener, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sorted(func(l hook.Listener) bool { return l.Enabled }), nil
}

// ListListenersByModule returns a module's listeners.
func (s *HookStore) ListListenersByModule(ctx context.Context, moduleSlug string) ([]hook.Listener, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sorted(func(l hook.Listener) bool { return l.ModuleSlug == moduleSlug }), nil
}

// UpsertListener inserts or replaces the listener keyed by (hook, module).
func (s *HookStore) UpsertListener(ctx context.Context, l hook.Listener) (hook.Listener, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.hooks[l.HookName]
	if !ok {
		return hook.Listener{}, ports.ErrNotFound
	}
	l.HookID = h.ID

	if l.UpdatedAt.IsZero() {
		l.UpdatedAt = time.Now().UTC()
	}
	if existing, ok := s.find(l.HookName, l.ModuleSlug); ok {
		l.ID = existing.ID
		l.CreatedAt = existing.CreatedAt
	} else {
		if l.ID == "" {
			l.ID = uuid.New().String()
		}
		if l.CreatedAt.IsZero() {
			l.CreatedAt = l.UpdatedAt
		}
	}

	s.next++
	s.seq[l.ID] = s.next
	s.listeners[l.ID] = l
	return l, nil
}

// UpdateListener persists priority and enabled state and moves the
// listener behind equal priorities.
func (s *HookStore) UpdateListener(ctx context.Context, l hook.Listener) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.listeners[l.ID]
	if !ok {
		return ports.ErrNotFound
	}
	existing.Priority = l.Priority
	existing.Enabled = l.Enabled
	existing.UpdatedAt = l.UpdatedAt
	if existing.UpdatedAt.IsZero() {
		existing.UpdatedAt = time.Now().UTC()
	}
	s.next++
	s.seq[l.ID] = s.next
	s.listeners[l.ID] = existing
	return nil
}

// DeleteListener removes the listener for (hook, module).
func (s *HookStore) DeleteListener(ctx context.Context, hookName, moduleSlug string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.find(hookName, moduleSlug)
	if !ok {
		return ports.ErrNotFound
	}
	s.drop(l.ID)
	return nil
}

// DeleteListenersByModule removes every listener owned by a module.
func (s *HookStore) DeleteListenersByModule(ctx context.Context, moduleSlug string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, l := range s.listeners {
		if l.ModuleSlug == moduleSlug {
			s.drop(id)
		}
	}
	return nil
}

func (s *HookStore) find(hookName, moduleSlug string) (hook.Listener, bool) {
	for _, l := range s.listeners {
		if l.HookName == hookName && l.ModuleSlug == moduleSlug {
			return l, true
		}
	}
	return hook.Listener{}, false
}

func (s *HookStore) drop(id string) {
	delete(s.listeners, id)
	delete(s.seq, id)
}

// sorted returns matching listeners by priority, then registration order.
// Caller must hold the lock.
func (s *HookStore) sorted(match func(hook.Listener) bool) []hook.Listener {
	var result []hook.Listener
	for _, l := range s.listeners {
		if match(l) {
			result = append(result, l)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Priority != result[j].Priority {
			return result[i].Priority < result[j].Priority
		}
		return s.seq[result[i].ID] < s.seq[result[j].ID]
	})
	return result
}

func fillHook(h hook.Hook) hook.Hook {
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now().UTC()
	}
	h.Listeners = nil
	return h
}

// Ensure interface compliance.
var _ ports.HookStore = (*HookStore)(nil)
