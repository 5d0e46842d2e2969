package settings_test

import (
	"testing"

	"github.com/artpar/cmscore/domain/settings"
)

func TestMerge_OverridesWin(t *testing.T) {
	defaults := settings.Values{"primaryColor": "#ed7520", "stickyHeader": true}
	overrides := settings.Values{"primaryColor": "#000000", "fontSize": "18px"}

	got := settings.Merge(defaults, overrides)

	if got["primaryColor"] != "#000000" {
		t.Errorf("primaryColor = %v, want #000000", got["primaryColor"])
	}
	if got["stickyHeader"] != true {
		t.Errorf("stickyHeader = %v, want true", got["stickyHeader"])
	}
	if got["fontSize"] != "18px" {
		t.Errorf("fontSize = %v, want 18px", got["fontSize"])
	}
	if defaults["primaryColor"] != "#ed7520" {
		t.Error("Merge modified defaults")
	}
}

func TestMerge_NilInputs(t *testing.T) {
	got := settings.Merge(nil, nil)
	if got == nil {
		t.Fatal("Merge(nil, nil) = nil, want empty map")
	}
	if len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}

func TestTagOf(t *testing.T) {
	tests := []struct {
		scheme settings.TagScheme
		value  any
		want   string
	}{
		{settings.ModuleTags, true, "boolean"},
		{settings.ModuleTags, 3.5, "number"},
		{settings.ModuleTags, 7, "number"},
		{settings.ModuleTags, "x", "string"},
		{settings.ModuleTags, []any{"a"}, "string"},
		{settings.ThemeTags, false, "toggle"},
		{settings.ThemeTags, int64(2), "number"},
		{settings.ThemeTags, "Cairo", "text"},
	}

	for _, tt := range tests {
		if got := tt.scheme.TagOf(tt.value); got != tt.want {
			t.Errorf("TagOf(%v) = %s, want %s", tt.value, got, tt.want)
		}
	}
}

func TestEncodeDecodeValue(t *testing.T) {
	raw, err := settings.EncodeValue(map[string]any{"a": 1})
	if err != nil {
		t.Fatalf("EncodeValue: %v", err)
	}
	v, err := settings.DecodeValue(raw)
	if err != nil {
		t.Fatalf("DecodeValue: %v", err)
	}
	m, ok := v.(map[string]any)
	if !ok || m["a"] != float64(1) {
		t.Errorf("DecodeValue = %#v, want map with a=1", v)
	}

	if _, err := settings.DecodeValue("{not json"); err == nil {
		t.Error("DecodeValue(invalid) error = nil, want error")
	}
}

func TestNormalize(t *testing.T) {
	got, err := settings.Normalize(settings.Values{"count": 3, "nested": map[string]int{"x": 1}})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got["count"] != float64(3) {
		t.Errorf("count = %#v, want float64(3)", got["count"])
	}
	if _, ok := got["nested"].(map[string]any); !ok {
		t.Errorf("nested = %T, want map[string]any", got["nested"])
	}
}

func TestValues_Getters(t *testing.T) {
	v := settings.Values{"name": "x", "on": true, "n": 2.5, "i": 4}

	if v.GetString("name", "d") != "x" || v.GetString("on", "d") != "d" {
		t.Error("GetString mismatch")
	}
	if !v.GetBool("on") || v.GetBool("name") {
		t.Error("GetBool mismatch")
	}
	if v.GetFloat("n", 0) != 2.5 || v.GetFloat("i", 0) != 4 || v.GetFloat("missing", 9) != 9 {
		t.Error("GetFloat mismatch")
	}
	if keys := v.Keys(); len(keys) != 4 || keys[0] != "i" {
		t.Errorf("Keys = %v, want sorted", keys)
	}
}

func TestValues_Masked(t *testing.T) {
	v := settings.Values{"apiKey": "secret", "title": "x"}
	got := v.Masked([]string{"apiKey", "missing"})

	if got["apiKey"] != "********" {
		t.Errorf("apiKey = %v, want masked", got["apiKey"])
	}
	if _, ok := got["missing"]; ok {
		t.Error("Masked added a missing key")
	}
	if v["apiKey"] != "secret" {
		t.Error("Masked modified the receiver")
	}
}
