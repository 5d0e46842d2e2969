package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/artpar/cmscore/domain/cmserr"
	"github.com/artpar/cmscore/ports"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Span attribute keys.
const (
	attrHookName      = "hook.name"
	attrHookMode      = "hook.mode"
	attrListenerCount = "hook.listeners"
	attrModuleSlug    = "module.slug"
	attrThemeSlug     = "theme.slug"
)

// Observability carries the optional tracer and metrics shared by services.
type Observability struct {
	Tracer  trace.Tracer
	Metrics ports.Metrics
}

type nopMetrics struct{}

func (nopMetrics) ObserveDispatch(string, string, time.Duration) {}
func (nopMetrics) ListenerFailed(string, string)                 {}
func (nopMetrics) SetHooksRegistered(int)                        {}
func (nopMetrics) Lifecycle(string, error)                       {}
func (nopMetrics) SetModulesLoaded(int)                          {}
func (nopMetrics) ThemeCache(bool)                               {}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

func (o Observability) withDefaults() Observability {
	if o.Tracer == nil {
		o.Tracer = noop.NewTracerProvider().Tracer("cmscore")
	}
	if o.Metrics == nil {
		o.Metrics = nopMetrics{}
	}
	return o
}

// startOp opens a span for a lifecycle operation. The returned func records
// the outcome; call it with a pointer to the named error result.
func (o Observability) startOp(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(*error)) {
	ctx, span := o.Tracer.Start(ctx, op, trace.WithAttributes(attrs...))
	return ctx, func(errp *error) {
		var err error
		if errp != nil {
			err = *errp
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		o.Metrics.Lifecycle(op, err)
		span.End()
	}
}

// storeErr maps store sentinels onto error kinds.
func storeErr(op, subject string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ports.ErrNotFound):
		return cmserr.NotFound(op, "%s not found", subject)
	case errors.Is(err, ports.ErrDuplicate):
		return cmserr.Conflict(op, "%s already exists", subject)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
