// Package settings provides value types for module and theme settings.
// Manifests declare defaults; administrators persist per-key overrides that
// are layered on top of them at read time.
package settings

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Values is a flat key/value settings map. Values are JSON-compatible.
type Values map[string]any

// Setting is one persisted override row (immutable value type).
type Setting struct {
	OwnerID   string // module or theme ID
	Key       string
	Value     any
	Type      string
	UpdatedAt time.Time
}

// Clone returns a shallow copy. A nil map clones to an empty one.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// Keys returns the keys in sorted order.
func (v Values) Keys() []string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetString returns a setting as string or the default if missing or not a string.
func (v Values) GetString(key, defaultValue string) string {
	if s, ok := v[key].(string); ok {
		return s
	}
	return defaultValue
}

// GetBool returns a setting as bool. Missing or non-bool values are false.
func (v Values) GetBool(key string) bool {
	b, _ := v[key].(bool)
	return b
}

// GetFloat returns a numeric setting or the default.
func (v Values) GetFloat(key string, defaultValue float64) float64 {
	switch n := v[key].(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return defaultValue
}

// Merge shallow-merges overrides on top of defaults. Overrides win.
// The result is a fresh map; neither input is modified.
func Merge(defaults, overrides Values) Values {
	result := defaults.Clone()
	for k, v := range overrides {
		result[k] = v
	}
	return result
}

// Fold builds a Values map from persisted rows.
func Fold(rows []Setting) Values {
	result := make(Values, len(rows))
	for _, r := range rows {
		result[r.Key] = r.Value
	}
	return result
}

// TagScheme names the type tags stored next to each override.
type TagScheme struct {
	Bool   string
	Number string
	Text   string
}

var (
	// ModuleTags is used for module settings rows.
	ModuleTags = TagScheme{Bool: "boolean", Number: "number", Text: "string"}

	// ThemeTags is used for theme settings rows.
	ThemeTags = TagScheme{Bool: "toggle", Number: "number", Text: "text"}
)

// TagOf returns the tag for a value. Anything that is neither a bool nor a
// number is tagged as text.
func (s TagScheme) TagOf(v any) string {
	switch v.(type) {
	case bool:
		return s.Bool
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, json.Number:
		return s.Number
	default:
		return s.Text
	}
}

// EncodeValue serializes a value for storage.
func EncodeValue(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode setting value: %w", err)
	}
	return string(data), nil
}

// DecodeValue parses a stored value.
func DecodeValue(s string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, fmt.Errorf("decode setting value: %w", err)
	}
	return v, nil
}

// Normalize round-trips values through JSON so that every store returns the
// same representation (numbers as float64, nested maps as map[string]any).
func Normalize(v Values) (Values, error) {
	if v == nil {
		return Values{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("normalize settings: %w", err)
	}
	out := Values{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("normalize settings: %w", err)
	}
	return out, nil
}

// Export is a portable snapshot of a theme's overrides.
type Export struct {
	Slug       string    `json:"slug" yaml:"slug"`
	ExportedAt time.Time `json:"exportedAt" yaml:"exportedAt"`
	Settings   Values    `json:"settings" yaml:"settings"`
}

// Masked returns a copy with the given keys replaced by a placeholder.
func (v Values) Masked(secret []string) Values {
	out := v.Clone()
	for _, k := range secret {
		if _, ok := out[k]; ok {
			out[k] = "********"
		}
	}
	return out
}
