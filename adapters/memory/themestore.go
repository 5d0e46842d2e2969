package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/artpar/cmscore/domain/settings"
	"github.com/artpar/cmscore/domain/theme"
	"github.com/artpar/cmscore/ports"
)

// ThemeStore is an in-memory implementation of ports.ThemeStore.
type ThemeStore struct {
	mu       sync.RWMutex
	themes   map[string]theme.Theme // by slug
	settings settingsTable          // by theme ID
}

// NewThemeStore creates a new in-memory theme store.
func NewThemeStore() *ThemeStore {
	return &ThemeStore{
		themes:   make(map[string]theme.Theme),
		settings: make(settingsTable),
	}
}

// Get retrieves a theme by slug.
func (s *ThemeStore) Get(ctx context.Context, slug string) (theme.Theme, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.themes[slug]
	if !ok {
		return theme.Theme{}, ports.ErrNotFound
	}
	return copyTheme(t), nil
}

// GetActive returns the active theme.
func (s *ThemeStore) GetActive(ctx context.Context) (theme.Theme, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.themes {
		if t.IsActive {
			return copyTheme(t), nil
		}
	}
	return theme.Theme{}, ports.ErrNotFound
}

// FindDefault returns a default theme other than exclude, by name.
func (s *ThemeStore) FindDefault(ctx context.Context, exclude string) (theme.Theme, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *theme.Theme
	for _, t := range s.themes {
		if !t.IsDefault || t.Slug == exclude {
			continue
		}
		if found == nil || t.Name < found.Name {
			c := t
			found = &c
		}
	}
	if found == nil {
		return theme.Theme{}, ports.ErrNotFound
	}
	return copyTheme(*found), nil
}

// List returns themes matching the filter in listing order.
func (s *ThemeStore) List(ctx context.Context, filter theme.Filter) ([]theme.Theme, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []theme.Theme
	for _, t := range s.themes {
		if filter.Matches(t) {
			result = append(result, copyTheme(t))
		}
	}
	sort.Slice(result, func(i, j int) bool { return theme.Less(result[i], result[j]) })
	return result, nil
}

// Create stores a new theme.
func (s *ThemeStore) Create(ctx context.Context, t theme.Theme) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.themes[t.Slug]; ok {
		return ports.ErrDuplicate
	}
	if t.IsActive {
		for _, existing := range s.themes {
			if existing.IsActive {
				return ports.ErrDuplicate
			}
		}
	}
	t.DefaultSettings = normalized(t.DefaultSettings)
	s.themes[t.Slug] = copyTheme(t)
	return nil
}

// Activate clears every active flag and sets slug active under one lock.
func (s *ThemeStore) Activate(ctx context.Context, slug string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, ok := s.themes[slug]
	if !ok {
		return ports.ErrNotFound
	}

	for k, t := range s.themes {
		if t.IsActive {
			t.IsActive = false
			t.UpdatedAt = at
			s.themes[k] = t
		}
	}
	target = s.themes[slug]
	target.IsActive = true
	target.ActivatedAt = &at
	target.UpdatedAt = at
	s.themes[slug] = target
	return nil
}

// Deactivate clears the active flag on slug.
func (s *ThemeStore) Deactivate(ctx context.Context, slug string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.themes[slug]
	if !ok {
		return ports.ErrNotFound
	}
	t.IsActive = false
	t.UpdatedAt = at
	s.themes[slug] = t
	return nil
}

// Delete removes a theme and its settings.
func (s *ThemeStore) Delete(ctx context.Context, slug string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.themes[slug]
	if !ok {
		return ports.ErrNotFound
	}
	delete(s.themes, slug)
	delete(s.settings, t.ID)
	return nil
}

// ListSettings returns a theme's overrides.
func (s *ThemeStore) ListSettings(ctx context.Context, themeID string) ([]settings.Setting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.settings.list(themeID), nil
}

// UpsertSettings writes every row or none.
func (s *ThemeStore) UpsertSettings(ctx context.Context, rows []settings.Setting) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.settings.upsert(rows, func(id string) bool {
		for _, t := range s.themes {
			if t.ID == id {
				return true
			}
		}
		return false
	})
}

// DeleteSettings removes every override of a theme.
func (s *ThemeStore) DeleteSettings(ctx context.Context, themeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.settings, themeID)
	return nil
}

func copyTheme(t theme.Theme) theme.Theme {
	t.Features = cloneStrings(t.Features)
	t.DefaultSettings = t.DefaultSettings.Clone()
	if t.ActivatedAt != nil {
		at := *t.ActivatedAt
		t.ActivatedAt = &at
	}
	return t
}

// Ensure interface compliance.
var _ ports.ThemeStore = (*ThemeStore)(nil)
