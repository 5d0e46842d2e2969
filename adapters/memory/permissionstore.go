package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/artpar/cmscore/domain/module"
	"github.com/artpar/cmscore/ports"
)

// PermissionStore is an in-memory implementation of ports.PermissionStore.
type PermissionStore struct {
	mu    sync.RWMutex
	perms map[[2]string]module.Permission // by (module, action)
}

// NewPermissionStore creates a new in-memory permission store.
func NewPermissionStore() *PermissionStore {
	return &PermissionStore{perms: make(map[[2]string]module.Permission)}
}

// Upsert inserts or replaces the permission keyed by (module, action).
func (s *PermissionStore) Upsert(ctx context.Context, p module.Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.perms[[2]string{p.Module, p.Action}] = p
	return nil
}

// ListByModule returns the permissions a module registered, by action.
func (s *PermissionStore) ListByModule(ctx context.Context, moduleSlug string) ([]module.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []module.Permission
	for k, p := range s.perms {
		if k[0] == moduleSlug {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Action < result[j].Action })
	return result, nil
}

// DeleteByModule removes every permission a module registered.
func (s *PermissionStore) DeleteByModule(ctx context.Context, moduleSlug string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k := range s.perms {
		if k[0] == moduleSlug {
			delete(s.perms, k)
		}
	}
	return nil
}

// Ensure interface compliance.
var _ ports.PermissionStore = (*PermissionStore)(nil)
