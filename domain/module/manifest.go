package module

import (
	"bytes"
	"fmt"

	"github.com/artpar/cmscore/domain/settings"
	"gopkg.in/yaml.v3"
)

// Manifest declares what a module provides. JSON manifests parse as YAML.
type Manifest struct {
	ID             string          `json:"id" yaml:"id"`
	Name           string          `json:"name" yaml:"name"`
	Version        string          `json:"version" yaml:"version"`
	Author         string          `json:"author,omitempty" yaml:"author,omitempty"`
	Description    string          `json:"description,omitempty" yaml:"description,omitempty"`
	Icon           string          `json:"icon,omitempty" yaml:"icon,omitempty"`
	Type           Type            `json:"type" yaml:"type"`
	Dependencies   []string        `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	MinCoreVersion string          `json:"minCoreVersion,omitempty" yaml:"minCoreVersion,omitempty"`
	Provides       Provides        `json:"provides,omitempty" yaml:"provides,omitempty"`
	Settings       []SettingSchema `json:"settings,omitempty" yaml:"settings,omitempty"`
	Hooks          []HookBinding   `json:"hooks,omitempty" yaml:"hooks,omitempty"`
}

// Provides lists the module's contributions to the host.
type Provides struct {
	Routes             []Route             `json:"routes,omitempty" yaml:"routes,omitempty"`
	AdminPages         []AdminPage         `json:"adminPages,omitempty" yaml:"adminPages,omitempty"`
	FrontendComponents []FrontendComponent `json:"frontendComponents,omitempty" yaml:"frontendComponents,omitempty"`
	Permissions        []Permission        `json:"permissions,omitempty" yaml:"permissions,omitempty"`
	Widgets            []Widget            `json:"widgets,omitempty" yaml:"widgets,omitempty"`
}

type Route struct {
	Method      string   `json:"method" yaml:"method"`
	Path        string   `json:"path" yaml:"path"`
	Handler     string   `json:"handler" yaml:"handler"`
	Auth        bool     `json:"auth,omitempty" yaml:"auth,omitempty"`
	Permissions []string `json:"permissions,omitempty" yaml:"permissions,omitempty"`
}

type AdminPage struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Path        string   `json:"path" yaml:"path"`
	Icon        string   `json:"icon,omitempty" yaml:"icon,omitempty"`
	Component   string   `json:"component,omitempty" yaml:"component,omitempty"`
	Parent      string   `json:"parent,omitempty" yaml:"parent,omitempty"`
	Order       int      `json:"order,omitempty" yaml:"order,omitempty"`
	Permissions []string `json:"permissions,omitempty" yaml:"permissions,omitempty"`
}

type FrontendComponent struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name,omitempty" yaml:"name,omitempty"`
	Component string `json:"component,omitempty" yaml:"component,omitempty"`
	Region    string `json:"region,omitempty" yaml:"region,omitempty"`
}

// Permission is registered with the permission registry at install.
type Permission struct {
	Name        string `json:"name" yaml:"name"`
	DisplayName string `json:"displayName,omitempty" yaml:"displayName,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Module      string `json:"module" yaml:"module"`
	Action      string `json:"action" yaml:"action"`
}

type Widget struct {
	ID              string          `json:"id" yaml:"id"`
	Name            string          `json:"name" yaml:"name"`
	Description     string          `json:"description,omitempty" yaml:"description,omitempty"`
	Component       string          `json:"component,omitempty" yaml:"component,omitempty"`
	DefaultSettings settings.Values `json:"defaultSettings,omitempty" yaml:"defaultSettings,omitempty"`
}

// SettingSchema describes one configurable setting.
type SettingSchema struct {
	Key         string          `json:"key" yaml:"key"`
	Type        string          `json:"type" yaml:"type"`
	Label       string          `json:"label,omitempty" yaml:"label,omitempty"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	Default     any             `json:"default,omitempty" yaml:"default,omitempty"`
	Required    bool            `json:"required,omitempty" yaml:"required,omitempty"`
	Options     []SettingOption `json:"options,omitempty" yaml:"options,omitempty"`
	Group       string          `json:"group,omitempty" yaml:"group,omitempty"`
	IsSecret    bool            `json:"isSecret,omitempty" yaml:"isSecret,omitempty"`
}

type SettingOption struct {
	Value any    `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// HookBinding declares a listener registered when the module loads.
type HookBinding struct {
	Name     string `json:"name" yaml:"name"`
	Handler  string `json:"handler" yaml:"handler"`
	Priority *int   `json:"priority,omitempty" yaml:"priority,omitempty"`
}

// ParseManifest decodes a YAML or JSON manifest. Unknown fields are rejected.
func ParseManifest(data []byte) (Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return Manifest{}, fmt.Errorf("parse module manifest: %w", err)
	}
	return m, nil
}

// Validate returns every missing required field. An empty result means valid.
func (m Manifest) Validate() []string {
	var problems []string
	if m.ID == "" {
		problems = append(problems, "missing module id")
	}
	if m.Name == "" {
		problems = append(problems, "missing module name")
	}
	if m.Version == "" {
		problems = append(problems, "missing module version")
	}
	if m.Type == "" {
		problems = append(problems, "missing module type")
	} else if !m.Type.Valid() {
		problems = append(problems, fmt.Sprintf("unknown module type %q", m.Type))
	}
	for i, h := range m.Hooks {
		if h.Name == "" {
			problems = append(problems, fmt.Sprintf("hooks[%d]: missing name", i))
		}
		if h.Handler == "" {
			problems = append(problems, fmt.Sprintf("hooks[%d]: missing handler", i))
		}
	}
	for i, s := range m.Settings {
		if s.Key == "" {
			problems = append(problems, fmt.Sprintf("settings[%d]: missing key", i))
		}
	}
	return problems
}

// DefaultSettings folds the settings schema into key -> default.
// Entries without a default are omitted.
func (m Manifest) DefaultSettings() settings.Values {
	out := settings.Values{}
	for _, s := range m.Settings {
		if s.Default != nil && s.Key != "" {
			out[s.Key] = s.Default
		}
	}
	return out
}

// SecretKeys returns the keys of settings flagged as secret.
func (m Manifest) SecretKeys() []string {
	var keys []string
	for _, s := range m.Settings {
		if s.IsSecret {
			keys = append(keys, s.Key)
		}
	}
	return keys
}
