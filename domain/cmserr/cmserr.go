// Package cmserr defines the error kinds returned by lifecycle operations.
// Every rejected operation carries a machine-readable Kind plus detail, and
// the blocking names when a dependency or manifest check fails.
package cmserr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a rejected operation.
type Kind string

const (
	KindNotFound            Kind = "not_found"
	KindConflict            Kind = "conflict"
	KindInvalidManifest     Kind = "invalid_manifest"
	KindDependencyViolation Kind = "dependency_violation"
	KindInvariantViolation  Kind = "invariant_violation"
)

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrNotFound            = &Error{Kind: KindNotFound}
	ErrConflict            = &Error{Kind: KindConflict}
	ErrInvalidManifest     = &Error{Kind: KindInvalidManifest}
	ErrDependencyViolation = &Error{Kind: KindDependencyViolation}
	ErrInvariantViolation  = &Error{Kind: KindInvariantViolation}
)

// Error is a rejected operation.
type Error struct {
	Kind   Kind
	Op     string   // e.g. "modules.enable"
	Detail string   // human readable
	Names  []string // blocking modules, missing fields, ...
	Err    error    // underlying cause, if any
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Detail != "" {
		b.WriteString(e.Detail)
	} else {
		b.WriteString(strings.ReplaceAll(string(e.Kind), "_", " "))
	}
	if len(e.Names) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Names, ", "))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the bare sentinel of e's kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Detail == "" && len(t.Names) == 0 && t.Err == nil && t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// NamesOf returns the blocking names carried by err, if any.
func NamesOf(err error) []string {
	var e *Error
	if errors.As(err, &e) {
		return e.Names
	}
	return nil
}

func NotFound(op, format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Op: op, Detail: fmt.Sprintf(format, args...)}
}

func Conflict(op, format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Op: op, Detail: fmt.Sprintf(format, args...)}
}

// InvalidManifest reports every problem found, not just the first.
func InvalidManifest(op string, problems []string) *Error {
	return &Error{Kind: KindInvalidManifest, Op: op, Detail: "invalid manifest", Names: problems}
}

func DependencyViolation(op, detail string, names []string) *Error {
	return &Error{Kind: KindDependencyViolation, Op: op, Detail: detail, Names: names}
}

func InvariantViolation(op, format string, args ...any) *Error {
	return &Error{Kind: KindInvariantViolation, Op: op, Detail: fmt.Sprintf(format, args...)}
}
