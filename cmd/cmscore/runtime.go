package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/artpar/cmscore/bootstrap"
	"github.com/artpar/cmscore/config"
	"github.com/artpar/cmscore/domain/settings"
)

// openApp builds and restores an App for one-shot management commands.
// The HTTP server is never started and the config file is not watched.
func openApp(ctx context.Context) (*bootstrap.App, error) {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if !verbose {
		cfg.Logging.Level = "warn"
		cfg.Logging.Format = "console"
	}
	cfg.Metrics.Enabled = false
	cfg.Tracing.Enabled = false

	a, err := bootstrap.NewWithConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize: %w", err)
	}
	if err := a.Init(ctx); err != nil {
		a.Shutdown()
		return nil, fmt.Errorf("failed to restore state: %w", err)
	}
	return a, nil
}

func closeApp(a *bootstrap.App) {
	if err := a.Shutdown(); err != nil {
		fmt.Fprintf(os.Stderr, "shutdown: %v\n", err)
	}
}

// parseAssignments turns key=value arguments into settings. Values that
// parse as JSON keep their JSON type; anything else is a string.
func parseAssignments(args []string) (settings.Values, error) {
	out := settings.Values{}
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid setting %q, want key=value", arg)
		}
		var decoded any
		if err := json.Unmarshal([]byte(v), &decoded); err != nil {
			decoded = v
		}
		out[k] = decoded
	}
	return out, nil
}

func printSettings(values settings.Values) {
	if len(values) == 0 {
		fmt.Println("  (none)")
		return
	}
	keys := values.Keys()
	width := 0
	for _, k := range keys {
		if len(k) > width {
			width = len(k)
		}
	}
	for _, k := range keys {
		fmt.Printf("  %-*s  %s\n", width, k, formatValue(values[k]))
	}
}

func formatValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
