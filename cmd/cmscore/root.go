package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cmscore",
	Short: "Extensibility core for a news CMS: hooks, modules and themes",
	Long: `cmscore runs the extensibility core of a news CMS.

It keeps a registry of named hooks with prioritized listeners, manages the
lifecycle of pluggable modules (install, enable, disable, uninstall) and
tracks installed themes, the single active theme and its settings.

Quick start:
  cmscore seed      # Install core modules and the default theme
  cmscore serve     # Start the admin API

Management:
  cmscore modules   # Manage modules
  cmscore themes    # Manage themes
  cmscore hooks     # Inspect hooks and listeners
  cmscore validate  # Validate configuration`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "cmscore.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at the configured level instead of warn")
}
