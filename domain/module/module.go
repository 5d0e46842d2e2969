// Package module provides value types for installable feature units,
// their manifests, and the dependency graph between them.
package module

import (
	"time"

	"github.com/artpar/cmscore/domain/settings"
)

// Type categorizes a module.
type Type string

const (
	TypeCore        Type = "CORE"
	TypeExtension   Type = "EXTENSION"
	TypeWidget      Type = "WIDGET"
	TypeIntegration Type = "INTEGRATION"
)

// Valid reports whether t is a known module type.
func (t Type) Valid() bool {
	switch t {
	case TypeCore, TypeExtension, TypeWidget, TypeIntegration:
		return true
	}
	return false
}

// rank orders types for listing (CORE first).
func (t Type) rank() int {
	switch t {
	case TypeCore:
		return 0
	case TypeExtension:
		return 1
	case TypeWidget:
		return 2
	case TypeIntegration:
		return 3
	}
	return 4
}

// Module is an installed feature unit.
type Module struct {
	ID              string
	Slug            string
	Name            string
	Description     string
	Version         string
	Author          string
	Icon            string
	Type            Type
	Path            string
	Manifest        Manifest
	Dependencies    []string
	DefaultSettings settings.Values
	IsCore          bool
	IsSystem        bool
	IsInstalled     bool
	IsEnabled       bool
	InstalledAt     time.Time
	EnabledAt       *time.Time
	UpdatedAt       time.Time
}

// Descriptor is the input to an install.
type Descriptor struct {
	Slug         string   `json:"slug" yaml:"slug"`
	Name         string   `json:"name" yaml:"name"`
	Version      string   `json:"version" yaml:"version"`
	Author       string   `json:"author,omitempty" yaml:"author,omitempty"`
	Description  string   `json:"description,omitempty" yaml:"description,omitempty"`
	Icon         string   `json:"icon,omitempty" yaml:"icon,omitempty"`
	Type         Type     `json:"type" yaml:"type"`
	Path         string   `json:"path,omitempty" yaml:"path,omitempty"`
	Dependencies []string `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	IsCore       bool     `json:"isCore,omitempty" yaml:"isCore,omitempty"`
	IsSystem     bool     `json:"isSystem,omitempty" yaml:"isSystem,omitempty"`
	Manifest     Manifest `json:"manifest" yaml:"manifest"`
}

// DescriptorFromManifest derives an install descriptor from a bare manifest,
// using the manifest id as slug.
func DescriptorFromManifest(m Manifest) Descriptor {
	return Descriptor{
		Slug:         m.ID,
		Name:         m.Name,
		Version:      m.Version,
		Author:       m.Author,
		Description:  m.Description,
		Icon:         m.Icon,
		Type:         m.Type,
		Dependencies: m.Dependencies,
		Manifest:     m,
	}
}

// Filter narrows module listings. Nil pointers match everything.
type Filter struct {
	Type    Type
	Enabled *bool
	Core    *bool
}

// Matches reports whether m passes the filter.
func (f Filter) Matches(m Module) bool {
	if f.Type != "" && m.Type != f.Type {
		return false
	}
	if f.Enabled != nil && m.IsEnabled != *f.Enabled {
		return false
	}
	if f.Core != nil && m.IsCore != *f.Core {
		return false
	}
	return true
}

// Less orders modules for listing: core first, then by type, then by name.
func Less(a, b Module) bool {
	if a.IsCore != b.IsCore {
		return a.IsCore
	}
	if a.Type.rank() != b.Type.rank() {
		return a.Type.rank() < b.Type.rank()
	}
	return a.Name < b.Name
}

// Loaded is the in-memory view of an enabled module.
type Loaded struct {
	Slug     string          `json:"slug"`
	Name     string          `json:"name"`
	Version  string          `json:"version"`
	Type     Type            `json:"type"`
	Manifest Manifest        `json:"manifest"`
	Settings settings.Values `json:"settings"`
	Enabled  bool            `json:"isEnabled"`
}
