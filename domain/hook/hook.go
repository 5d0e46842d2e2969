// Package hook provides value types for extension points and their
// priority-ordered listener chains.
package hook

import (
	"sort"
	"time"
)

// DefaultPriority is used when a registration does not specify one.
// Lower priorities run first.
const DefaultPriority = 10

// Mode is how a chain is dispatched.
type Mode string

const (
	// ModeFilter folds the payload through every listener.
	ModeFilter Mode = "filter"
	// ModeAction notifies every listener and discards results.
	ModeAction Mode = "action"
)

// Hook is a named extension point.
type Hook struct {
	ID          string
	Name        string
	Description string
	IsSystem    bool
	CreatedAt   time.Time

	// Listeners is populated by list queries, ordered by priority.
	Listeners []Listener
}

// Listener attaches a module's handler to a hook.
// At most one listener exists per (HookName, ModuleSlug).
type Listener struct {
	ID         string
	HookID     string
	HookName   string
	ModuleSlug string
	HandlerRef string
	Priority   int
	Enabled    bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Entry returns the in-memory projection of the listener.
func (l Listener) Entry() Entry {
	return Entry{Module: l.ModuleSlug, Handler: l.HandlerRef, Priority: l.Priority}
}

// Entry is one link of an in-memory chain.
type Entry struct {
	Module   string `json:"module"`
	Handler  string `json:"handler"`
	Priority int    `json:"priority"`
}

// Chain is an ordered list of entries: ascending priority, registration order
// among equal priorities. Chains are never mutated in place, so a chain read
// under a lock may be iterated after the lock is released.
type Chain []Entry

// Upsert returns a new chain where e replaces any entry of the same module.
// The replaced module moves behind existing entries of equal priority.
func (c Chain) Upsert(e Entry) Chain {
	out := make(Chain, 0, len(c)+1)
	for _, x := range c {
		if x.Module != e.Module {
			out = append(out, x)
		}
	}
	out = append(out, e)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority < out[j].Priority
	})
	return out
}

// Without returns a new chain with the module's entry removed.
func (c Chain) Without(module string) Chain {
	out := make(Chain, 0, len(c))
	for _, x := range c {
		if x.Module != module {
			out = append(out, x)
		}
	}
	return out
}

// Has reports whether the module has an entry.
func (c Chain) Has(module string) bool {
	for _, x := range c {
		if x.Module == module {
			return true
		}
	}
	return false
}

// Build sorts listeners into a chain, keeping only enabled ones.
// Input order breaks priority ties.
func Build(listeners []Listener) Chain {
	var c Chain
	for _, l := range listeners {
		if l.Enabled {
			c = c.Upsert(l.Entry())
		}
	}
	return c
}
