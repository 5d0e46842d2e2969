package main

import (
	"context"
	"fmt"
	"os"

	"github.com/artpar/cmscore/bootstrap"
	"github.com/artpar/cmscore/config"
	"github.com/spf13/cobra"
)

var (
	hotReload bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the admin API server",
	Long: `Start the cmscore server.

The server will:
  - Load configuration from cmscore.yaml (or --config)
  - Or load configuration from CMSCORE_* environment variables
  - Open and migrate the database
  - Restore persisted hooks, modules and themes
  - Serve the admin API, public read endpoints, /metrics and /health

Environment variables (for Docker deployments):
  CMSCORE_DATABASE_DSN      - Database path (default: cmscore.db)
  CMSCORE_SERVER_PORT       - Server port (default: 8080)
  CMSCORE_ADMIN_TOKEN       - Admin bearer token or its bcrypt hash
  CMSCORE_LOG_LEVEL         - Log level: debug, info, warn, error

Examples:
  cmscore serve
  cmscore serve --config /etc/cmscore/config.yaml
  cmscore serve --hot-reload=false`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&hotReload, "hot-reload", true, "enable hot reload of configuration")
}

func runServe(cmd *cobra.Command, args []string) error {
	hasConfigFile := false
	if _, err := os.Stat(cfgFile); err == nil {
		hasConfigFile = true
	}

	var a *bootstrap.App
	var err error

	if hasConfigFile && hotReload {
		// Hot reload only works with a config file
		a, err = bootstrap.New(cfgFile)
	} else {
		cfg, loadErr := config.LoadWithFallback(cfgFile)
		if loadErr != nil {
			return fmt.Errorf("error loading config: %w", loadErr)
		}
		if !hasConfigFile {
			fmt.Println("Running with environment variables (no config file)")
		}
		a, err = bootstrap.NewWithConfig(cfg)
	}
	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}

	if err := a.Init(context.Background()); err != nil {
		a.Shutdown()
		return fmt.Errorf("error restoring state: %w", err)
	}

	// Run (blocks until shutdown)
	return a.Run()
}
