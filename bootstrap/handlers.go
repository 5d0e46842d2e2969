package bootstrap

import (
	"context"

	"github.com/artpar/cmscore/app"
	"github.com/rs/zerolog"
)

// RegisterBuiltinHandlers binds the in-process handlers that seeded
// manifests refer to. Modules installed later may ship manifests that
// reference these names too.
func RegisterBuiltinHandlers(handlers *app.HandlerRegistry, logger zerolog.Logger) {
	// log records the invocation and returns the payload unchanged.
	handlers.Register("log", func(ctx context.Context, inv app.Invocation) (any, error) {
		logger.Info().
			Str("hook", inv.Hook).
			Str("module", inv.Module).
			Str("mode", string(inv.Mode)).
			Msg("hook invoked")
		return inv.Payload, nil
	})

	handlers.Register("breaking-news:notify", func(ctx context.Context, inv app.Invocation) (any, error) {
		title := payloadString(inv.Payload, "title")
		logger.Info().
			Str("title", title).
			Msg("breaking news notification queued")
		return inv.Payload, nil
	})

	handlers.Register("analytics:track", func(ctx context.Context, inv app.Invocation) (any, error) {
		logger.Debug().
			Str("event", inv.Hook).
			Str("id", payloadString(inv.Payload, "id")).
			Msg("analytics event tracked")
		return inv.Payload, nil
	})

	logger.Debug().
		Int("count", len(handlers.List())).
		Msg("built-in handlers registered")
}

func payloadString(payload any, key string) string {
	m, ok := payload.(map[string]any)
	if !ok {
		return ""
	}
	s, _ := m[key].(string)
	return s
}
