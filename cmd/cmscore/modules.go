package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/artpar/cmscore/domain/module"
	"github.com/artpar/cmscore/domain/settings"
	"github.com/spf13/cobra"
)

var modulesCmd = &cobra.Command{
	Use:     "modules",
	Aliases: []string{"module", "mod"},
	Short:   "Manage modules",
	Long: `Install, enable, disable and configure modules.

Enabling a module loads it: its settings are resolved and its hook listeners
join the dispatch chains. Disabling unloads it but keeps its listener rows,
so enabling it again restores the same registrations.

Examples:
  cmscore modules list
  cmscore modules get breaking-news
  cmscore modules install ./modules/newsletter/module.yaml --enable
  cmscore modules disable analytics
  cmscore modules settings analytics sampleRate=50`,
}

var modulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed modules",
	RunE:  runModulesList,
}

var modulesGetCmd = &cobra.Command{
	Use:   "get <slug>",
	Short: "Show module details",
	Args:  cobra.ExactArgs(1),
	RunE:  runModulesGet,
}

var modulesInstallCmd = &cobra.Command{
	Use:   "install <manifest-file>",
	Short: "Install a module from a YAML or JSON manifest",
	Args:  cobra.ExactArgs(1),
	RunE:  runModulesInstall,
}

var modulesUninstallCmd = &cobra.Command{
	Use:   "uninstall <slug>",
	Short: "Uninstall a module",
	Args:  cobra.ExactArgs(1),
	RunE:  runModulesUninstall,
}

var modulesEnableCmd = &cobra.Command{
	Use:   "enable <slug>",
	Short: "Enable and load a module",
	Args:  cobra.ExactArgs(1),
	RunE:  runModulesEnable,
}

var modulesDisableCmd = &cobra.Command{
	Use:   "disable <slug>",
	Short: "Disable and unload a module",
	Args:  cobra.ExactArgs(1),
	RunE:  runModulesDisable,
}

var modulesSettingsCmd = &cobra.Command{
	Use:   "settings <slug> [key=value ...]",
	Short: "Show or update module settings",
	Long: `Show a module's resolved settings, or update them when key=value pairs
are given. Values are parsed as JSON when possible (true, 42, "text") and
fall back to plain strings. Secret settings are masked.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runModulesSettings,
}

var (
	modulesType          string
	modulesEnabledOnly   bool
	modulesInstallEnable bool
	modulesInstallPath   string
)

func init() {
	rootCmd.AddCommand(modulesCmd)

	modulesCmd.AddCommand(modulesListCmd)
	modulesCmd.AddCommand(modulesGetCmd)
	modulesCmd.AddCommand(modulesInstallCmd)
	modulesCmd.AddCommand(modulesUninstallCmd)
	modulesCmd.AddCommand(modulesEnableCmd)
	modulesCmd.AddCommand(modulesDisableCmd)
	modulesCmd.AddCommand(modulesSettingsCmd)

	modulesListCmd.Flags().StringVar(&modulesType, "type", "", "filter by type (CORE, EXTENSION, WIDGET, INTEGRATION)")
	modulesListCmd.Flags().BoolVar(&modulesEnabledOnly, "enabled", false, "only list enabled modules")

	modulesInstallCmd.Flags().BoolVar(&modulesInstallEnable, "enable", false, "enable the module after install")
	modulesInstallCmd.Flags().StringVar(&modulesInstallPath, "path", "", "module directory recorded with the install")
}

func runModulesList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a)

	filter := module.Filter{Type: module.Type(strings.ToUpper(modulesType))}
	if modulesEnabledOnly {
		enabled := true
		filter.Enabled = &enabled
	}

	mods, err := a.Modules.List(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to list modules: %w", err)
	}
	if len(mods) == 0 {
		fmt.Println("No modules installed.")
		fmt.Println()
		fmt.Println("Install the bundled modules with: cmscore seed")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SLUG\tNAME\tVERSION\tTYPE\tCORE\tENABLED\tLOADED")
	fmt.Fprintln(w, "----\t----\t-------\t----\t----\t-------\t------")
	for _, m := range mods {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			m.Slug, m.Name, m.Version, m.Type, yesNo(m.IsCore), yesNo(m.IsEnabled), yesNo(a.Modules.IsLoaded(m.Slug)))
	}
	w.Flush()
	return nil
}

func runModulesGet(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a)

	slug := args[0]
	m, err := a.Modules.Get(ctx, slug)
	if err != nil {
		return err
	}

	fmt.Printf("Slug:          %s\n", m.Slug)
	fmt.Printf("Name:          %s\n", m.Name)
	fmt.Printf("Version:       %s\n", m.Version)
	fmt.Printf("Type:          %s\n", m.Type)
	if m.Author != "" {
		fmt.Printf("Author:        %s\n", m.Author)
	}
	if m.Description != "" {
		fmt.Printf("Description:   %s\n", m.Description)
	}
	fmt.Printf("Core:          %v\n", m.IsCore)
	fmt.Printf("System:        %v\n", m.IsSystem)
	fmt.Printf("Enabled:       %v\n", m.IsEnabled)
	fmt.Printf("Loaded:        %v\n", a.Modules.IsLoaded(slug))
	if len(m.Dependencies) > 0 {
		fmt.Printf("Depends on:    %s\n", strings.Join(m.Dependencies, ", "))
	}
	if deps := a.Modules.Dependents(slug); len(deps) > 0 {
		fmt.Printf("Required by:   %s\n", strings.Join(deps, ", "))
	}
	fmt.Printf("Installed:     %s\n", m.InstalledAt.Format("2006-01-02 15:04:05"))

	if len(m.Manifest.Hooks) > 0 {
		fmt.Println()
		fmt.Println("Hooks:")
		for _, h := range m.Manifest.Hooks {
			fmt.Printf("  %s -> %s\n", h.Name, h.Handler)
		}
	}

	perms, err := a.Modules.Permissions(ctx, slug)
	if err != nil {
		return err
	}
	if len(perms) > 0 {
		fmt.Println()
		fmt.Println("Permissions:")
		for _, p := range perms {
			fmt.Printf("  %s\n", p.Name)
		}
	}

	values, err := a.Modules.GetSettings(ctx, slug)
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Println("Settings:")
	printSettings(values.Masked(m.Manifest.SecretKeys()))
	return nil
}

func runModulesInstall(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read manifest: %w", err)
	}
	manifest, err := module.ParseManifest(data)
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a)

	d := module.DescriptorFromManifest(manifest)
	d.Path = modulesInstallPath

	m, err := a.Modules.Install(ctx, d)
	if err != nil {
		return err
	}
	fmt.Printf("Installed module %s (%s)\n", m.Slug, m.Version)

	if modulesInstallEnable {
		if _, err := a.Modules.Enable(ctx, m.Slug); err != nil {
			return err
		}
		fmt.Printf("Enabled module %s\n", m.Slug)
	}
	return nil
}

func runModulesUninstall(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a)

	if err := a.Modules.Uninstall(ctx, args[0]); err != nil {
		return err
	}
	fmt.Printf("Uninstalled module %s\n", args[0])
	return nil
}

func runModulesEnable(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a)

	if _, err := a.Modules.Enable(ctx, args[0]); err != nil {
		return err
	}
	fmt.Printf("Enabled module %s\n", args[0])
	return nil
}

func runModulesDisable(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a)

	if _, err := a.Modules.Disable(ctx, args[0]); err != nil {
		return err
	}
	fmt.Printf("Disabled module %s\n", args[0])
	return nil
}

func runModulesSettings(cmd *cobra.Command, args []string) error {
	slug := args[0]
	patch, err := parseAssignments(args[1:])
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a)

	m, err := a.Modules.Get(ctx, slug)
	if err != nil {
		return err
	}

	var values settings.Values
	if len(patch) > 0 {
		values, err = a.Modules.UpdateSettings(ctx, slug, patch)
	} else {
		values, err = a.Modules.GetSettings(ctx, slug)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Settings for %s:\n", slug)
	printSettings(values.Masked(m.Manifest.SecretKeys()))
	return nil
}
