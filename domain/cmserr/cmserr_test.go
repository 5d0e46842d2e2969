package cmserr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/artpar/cmscore/domain/cmserr"
)

func TestError_IsMatchesKindSentinel(t *testing.T) {
	err := cmserr.DependencyViolation("modules.enable", "required modules are disabled", []string{"media", "users"})
	wrapped := fmt.Errorf("enable breaking-news: %w", err)

	if !errors.Is(wrapped, cmserr.ErrDependencyViolation) {
		t.Error("errors.Is(ErrDependencyViolation) = false, want true")
	}
	if errors.Is(wrapped, cmserr.ErrNotFound) {
		t.Error("errors.Is(ErrNotFound) = true, want false")
	}
	if got := cmserr.KindOf(wrapped); got != cmserr.KindDependencyViolation {
		t.Errorf("KindOf = %s, want %s", got, cmserr.KindDependencyViolation)
	}
	if got := cmserr.NamesOf(wrapped); len(got) != 2 || got[0] != "media" {
		t.Errorf("NamesOf = %v, want [media users]", got)
	}
}

func TestError_Message(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{
			cmserr.DependencyViolation("modules.disable", "enabled modules depend on this", []string{"a", "b"}),
			"modules.disable: enabled modules depend on this: a, b",
		},
		{
			cmserr.InvalidManifest("modules.install", []string{"missing module id", "missing module type"}),
			"modules.install: invalid manifest: missing module id, missing module type",
		},
		{
			cmserr.NotFound("themes.get", "theme %q not found", "x"),
			`themes.get: theme "x" not found`,
		},
		{
			&cmserr.Error{Kind: cmserr.KindConflict},
			"conflict",
		},
	}

	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestKindOf_PlainError(t *testing.T) {
	if got := cmserr.KindOf(errors.New("boom")); got != "" {
		t.Errorf("KindOf(plain) = %q, want empty", got)
	}
}
