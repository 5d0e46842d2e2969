package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/artpar/cmscore/domain/module"
	"github.com/artpar/cmscore/domain/settings"
	"github.com/artpar/cmscore/ports"
)

// ModuleStore is an in-memory implementation of ports.ModuleStore.
type ModuleStore struct {
	mu       sync.RWMutex
	modules  map[string]module.Module // by slug
	settings settingsTable            // by module ID
}

// NewModuleStore creates a new in-memory module store.
func NewModuleStore() *ModuleStore {
	return &ModuleStore{
		modules:  make(map[string]module.Module),
		settings: make(settingsTable),
	}
}

// Get retrieves a module by slug.
func (s *ModuleStore) Get(ctx context.Context, slug string) (module.Module, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.modules[slug]
	if !ok {
		return module.Module{}, ports.ErrNotFound
	}
	return copyModule(m), nil
}

// List returns modules matching the filter in listing order.
func (s *ModuleStore) List(ctx context.Context, filter module.Filter) ([]module.Module, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []module.Module
	for _, m := range s.modules {
		if filter.Matches(m) {
			result = append(result, copyModule(m))
		}
	}
	sort.Slice(result, func(i, j int) bool { return module.Less(result[i], result[j]) })
	return result, nil
}

// Create stores a new module.
func (s *ModuleStore) Create(ctx context.Context, m module.Module) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.modules[m.Slug]; ok {
		return ports.ErrDuplicate
	}
	for _, existing := range s.modules {
		if existing.ID == m.ID {
			return ports.ErrDuplicate
		}
	}
	m.DefaultSettings = normalized(m.DefaultSettings)
	s.modules[m.Slug] = copyModule(m)
	return nil
}

// SetEnabled persists the enabled flag and enabledAt.
func (s *ModuleStore) SetEnabled(ctx context.Context, slug string, enabled bool, at *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.modules[slug]
	if !ok {
		return ports.ErrNotFound
	}
	m.IsEnabled = enabled
	m.EnabledAt = nil
	if at != nil {
		t := *at
		m.EnabledAt = &t
	}
	m.UpdatedAt = time.Now().UTC()
	s.modules[slug] = m
	return nil
}

// Delete removes a module and its settings.
func (s *ModuleStore) Delete(ctx context.Context, slug string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.modules[slug]
	if !ok {
		return ports.ErrNotFound
	}
	delete(s.modules, slug)
	delete(s.settings, m.ID)
	return nil
}

// ListSettings returns a module's overrides.
func (s *ModuleStore) ListSettings(ctx context.Context, moduleID string) ([]settings.Setting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.settings.list(moduleID), nil
}

// UpsertSettings writes every row or none.
func (s *ModuleStore) UpsertSettings(ctx context.Context, rows []settings.Setting) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.settings.upsert(rows, func(id string) bool {
		for _, m := range s.modules {
			if m.ID == id {
				return true
			}
		}
		return false
	})
}

func copyModule(m module.Module) module.Module {
	m.Dependencies = cloneStrings(m.Dependencies)
	m.DefaultSettings = m.DefaultSettings.Clone()
	if m.EnabledAt != nil {
		t := *m.EnabledAt
		m.EnabledAt = &t
	}
	return m
}

// Ensure interface compliance.
var _ ports.ModuleStore = (*ModuleStore)(nil)
