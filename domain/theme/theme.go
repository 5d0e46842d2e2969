// Package theme provides value types for presentation packages.
package theme

import (
	"bytes"
	"fmt"
	"time"

	"github.com/artpar/cmscore/domain/settings"
	"gopkg.in/yaml.v3"
)

// Theme is an installed presentation package. At most one theme is active.
type Theme struct {
	ID              string
	Slug            string
	Name            string
	Description     string
	Version         string
	Author          string
	PreviewImage    string
	Path            string
	Manifest        Manifest
	Features        []string
	DefaultSettings settings.Values
	IsActive        bool
	IsDefault       bool
	IsSystem        bool
	InstalledAt     time.Time
	ActivatedAt     *time.Time
	UpdatedAt       time.Time
}

// Active is the resolved active theme served to the rendering layer.
type Active struct {
	ID       string          `json:"id"`
	Slug     string          `json:"slug"`
	Name     string          `json:"name"`
	Version  string          `json:"version"`
	Manifest Manifest        `json:"manifest"`
	Settings settings.Values `json:"settings"`
}

// Descriptor is the input to an install.
type Descriptor struct {
	Slug         string   `json:"slug" yaml:"slug"`
	Name         string   `json:"name" yaml:"name"`
	Version      string   `json:"version" yaml:"version"`
	Author       string   `json:"author,omitempty" yaml:"author,omitempty"`
	Description  string   `json:"description,omitempty" yaml:"description,omitempty"`
	PreviewImage string   `json:"previewImage,omitempty" yaml:"previewImage,omitempty"`
	Path         string   `json:"path,omitempty" yaml:"path,omitempty"`
	Features     []string `json:"features,omitempty" yaml:"features,omitempty"`
	IsDefault    bool     `json:"isDefault,omitempty" yaml:"isDefault,omitempty"`
	IsSystem     bool     `json:"isSystem,omitempty" yaml:"isSystem,omitempty"`
	Manifest     Manifest `json:"manifest" yaml:"manifest"`
}

// DescriptorFromManifest derives an install descriptor from a bare manifest.
func DescriptorFromManifest(m Manifest) Descriptor {
	return Descriptor{
		Slug:         m.ID,
		Name:         m.Name,
		Version:      m.Version,
		Author:       m.Author,
		Description:  m.Description,
		PreviewImage: m.PreviewImage,
		Features:     m.Features,
		Manifest:     m,
	}
}

// Filter narrows theme listings. Nil pointers match everything.
type Filter struct {
	Active  *bool
	Default *bool
}

// Matches reports whether t passes the filter.
func (f Filter) Matches(t Theme) bool {
	if f.Active != nil && t.IsActive != *f.Active {
		return false
	}
	if f.Default != nil && t.IsDefault != *f.Default {
		return false
	}
	return true
}

// Less orders themes for listing: active first, then default, then by name.
func Less(a, b Theme) bool {
	if a.IsActive != b.IsActive {
		return a.IsActive
	}
	if a.IsDefault != b.IsDefault {
		return a.IsDefault
	}
	return a.Name < b.Name
}

// Manifest declares a theme's templates, regions and customizer schema.
type Manifest struct {
	ID              string     `json:"id" yaml:"id"`
	Name            string     `json:"name" yaml:"name"`
	Version         string     `json:"version" yaml:"version"`
	Author          string     `json:"author,omitempty" yaml:"author,omitempty"`
	Description     string     `json:"description,omitempty" yaml:"description,omitempty"`
	PreviewImage    string     `json:"previewImage,omitempty" yaml:"previewImage,omitempty"`
	Screenshots     []string   `json:"screenshots,omitempty" yaml:"screenshots,omitempty"`
	Features        []string   `json:"features,omitempty" yaml:"features,omitempty"`
	MinCoreVersion  string     `json:"minCoreVersion,omitempty" yaml:"minCoreVersion,omitempty"`
	RequiredModules []string   `json:"requiredModules,omitempty" yaml:"requiredModules,omitempty"`
	Templates       []Template `json:"templates,omitempty" yaml:"templates,omitempty"`
	Regions         []Region   `json:"regions,omitempty" yaml:"regions,omitempty"`
	Customizer      Customizer `json:"customizer,omitempty" yaml:"customizer,omitempty"`
}

type Template struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	File        string `json:"file,omitempty" yaml:"file,omitempty"`
	Type        string `json:"type" yaml:"type"`
	IsDefault   bool   `json:"isDefault,omitempty" yaml:"isDefault,omitempty"`
}

type Region struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Type        string `json:"type,omitempty" yaml:"type,omitempty"`
	MaxWidgets  int    `json:"maxWidgets,omitempty" yaml:"maxWidgets,omitempty"`
}

type Customizer struct {
	Sections []Section `json:"sections,omitempty" yaml:"sections,omitempty"`
}

type Section struct {
	ID          string  `json:"id" yaml:"id"`
	Title       string  `json:"title" yaml:"title"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Fields      []Field `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// Field is one customizer control. Its id is the settings key.
type Field struct {
	ID          string   `json:"id" yaml:"id"`
	Type        string   `json:"type" yaml:"type"`
	Label       string   `json:"label,omitempty" yaml:"label,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Default     any      `json:"default,omitempty" yaml:"default,omitempty"`
	Options     []Option `json:"options,omitempty" yaml:"options,omitempty"`
	Min         *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max         *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Step        *float64 `json:"step,omitempty" yaml:"step,omitempty"`
}

type Option struct {
	Value any    `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// ParseManifest decodes a YAML or JSON theme manifest.
func ParseManifest(data []byte) (Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return Manifest{}, fmt.Errorf("parse theme manifest: %w", err)
	}
	return m, nil
}

// Validate returns every error and warning. Errors block install.
func (m Manifest) Validate() (errs, warnings []string) {
	if m.ID == "" {
		errs = append(errs, "missing theme id")
	}
	if m.Name == "" {
		errs = append(errs, "missing theme name")
	}
	if m.Version == "" {
		errs = append(errs, "missing theme version")
	}
	if len(m.Templates) == 0 {
		warnings = append(warnings, "no templates defined")
	}
	return errs, warnings
}

// DefaultSettings folds every customizer field default into field id -> default.
func (m Manifest) DefaultSettings() settings.Values {
	out := settings.Values{}
	for _, s := range m.Customizer.Sections {
		for _, f := range s.Fields {
			if f.Default != nil && f.ID != "" {
				out[f.ID] = f.Default
			}
		}
	}
	return out
}
