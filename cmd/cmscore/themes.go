package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/artpar/cmscore/domain/settings"
	"github.com/artpar/cmscore/domain/theme"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var themesCmd = &cobra.Command{
	Use:     "themes",
	Aliases: []string{"theme"},
	Short:   "Manage themes",
	Long: `Install, activate and customize themes.

Exactly one theme is active at a time. Deactivating the active theme falls
back to the default theme when one is installed. Theme settings are the
customizer defaults overlaid with stored overrides.

Examples:
  cmscore themes list
  cmscore themes install ./themes/magazine/theme.yaml --activate
  cmscore themes settings default primaryColor='"#1a1a1a"'
  cmscore themes export default -o default-settings.yaml
  cmscore themes import magazine default-settings.yaml --diff`,
}

var themesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed themes",
	RunE:  runThemesList,
}

var themesInstallCmd = &cobra.Command{
	Use:   "install <manifest-file>",
	Short: "Install a theme from a YAML or JSON manifest",
	Args:  cobra.ExactArgs(1),
	RunE:  runThemesInstall,
}

var themesUninstallCmd = &cobra.Command{
	Use:   "uninstall <slug>",
	Short: "Uninstall an inactive theme",
	Args:  cobra.ExactArgs(1),
	RunE:  runThemesUninstall,
}

var themesActivateCmd = &cobra.Command{
	Use:   "activate <slug>",
	Short: "Make a theme the active theme",
	Args:  cobra.ExactArgs(1),
	RunE:  runThemesActivate,
}

var themesDeactivateCmd = &cobra.Command{
	Use:   "deactivate <slug>",
	Short: "Deactivate the active theme",
	Args:  cobra.ExactArgs(1),
	RunE:  runThemesDeactivate,
}

var themesActiveCmd = &cobra.Command{
	Use:   "active",
	Short: "Show the active theme with resolved settings",
	RunE:  runThemesActive,
}

var themesSettingsCmd = &cobra.Command{
	Use:   "settings <slug> [key=value ...]",
	Short: "Show or update theme settings",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runThemesSettings,
}

var themesResetCmd = &cobra.Command{
	Use:   "reset <slug>",
	Short: "Drop every settings override of a theme",
	Args:  cobra.ExactArgs(1),
	RunE:  runThemesReset,
}

var themesExportCmd = &cobra.Command{
	Use:   "export <slug>",
	Short: "Export theme settings as JSON or YAML",
	Args:  cobra.ExactArgs(1),
	RunE:  runThemesExport,
}

var themesImportCmd = &cobra.Command{
	Use:   "import <slug> <file>",
	Short: "Import theme settings from an export file",
	Long: `Apply the settings of an export file as overrides on a theme.

The export's own slug is informational, so settings exported from one theme
can be imported into another. Use --diff to preview the change and --dry-run
to stop after the preview.`,
	Args: cobra.ExactArgs(2),
	RunE: runThemesImport,
}

var (
	themesInstallActivate bool
	themesInstallDefault  bool
	themesInstallPath     string
	themesExportOutput    string
	themesExportFormat    string
	themesImportDiff      bool
	themesImportDryRun    bool
)

func init() {
	rootCmd.AddCommand(themesCmd)

	themesCmd.AddCommand(themesListCmd)
	themesCmd.AddCommand(themesInstallCmd)
	themesCmd.AddCommand(themesUninstallCmd)
	themesCmd.AddCommand(themesActivateCmd)
	themesCmd.AddCommand(themesDeactivateCmd)
	themesCmd.AddCommand(themesActiveCmd)
	themesCmd.AddCommand(themesSettingsCmd)
	themesCmd.AddCommand(themesResetCmd)
	themesCmd.AddCommand(themesExportCmd)
	themesCmd.AddCommand(themesImportCmd)

	themesInstallCmd.Flags().BoolVar(&themesInstallActivate, "activate", false, "activate the theme after install")
	themesInstallCmd.Flags().BoolVar(&themesInstallDefault, "default", false, "mark the theme as the fallback default")
	themesInstallCmd.Flags().StringVar(&themesInstallPath, "path", "", "theme directory recorded with the install")

	themesExportCmd.Flags().StringVarP(&themesExportOutput, "output", "o", "", "write to file instead of stdout")
	themesExportCmd.Flags().StringVar(&themesExportFormat, "format", "", "json or yaml (default: from --output extension, else json)")

	themesImportCmd.Flags().BoolVar(&themesImportDiff, "diff", false, "print a diff of the resolved settings")
	themesImportCmd.Flags().BoolVar(&themesImportDryRun, "dry-run", false, "do not apply the import")
}

func runThemesList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a)

	themes, err := a.Themes.List(ctx, theme.Filter{})
	if err != nil {
		return fmt.Errorf("failed to list themes: %w", err)
	}
	if len(themes) == 0 {
		fmt.Println("No themes installed.")
		fmt.Println()
		fmt.Println("Install the default theme with: cmscore seed")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SLUG\tNAME\tVERSION\tACTIVE\tDEFAULT\tSYSTEM")
	fmt.Fprintln(w, "----\t----\t-------\t------\t-------\t------")
	for _, t := range themes {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			t.Slug, t.Name, t.Version, yesNo(t.IsActive), yesNo(t.IsDefault), yesNo(t.IsSystem))
	}
	w.Flush()
	return nil
}

func runThemesInstall(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read manifest: %w", err)
	}
	manifest, err := theme.ParseManifest(data)
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a)

	d := theme.DescriptorFromManifest(manifest)
	d.Path = themesInstallPath
	d.IsDefault = themesInstallDefault

	t, warnings, err := a.Themes.Install(ctx, d)
	if err != nil {
		return err
	}
	fmt.Printf("Installed theme %s (%s)\n", t.Slug, t.Version)
	for _, w := range warnings {
		fmt.Printf("  warning: %s\n", w)
	}

	if themesInstallActivate {
		if _, err := a.Themes.Activate(ctx, t.Slug); err != nil {
			return err
		}
		fmt.Printf("Activated theme %s\n", t.Slug)
	}
	return nil
}

func runThemesUninstall(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a)

	if err := a.Themes.Uninstall(ctx, args[0]); err != nil {
		return err
	}
	fmt.Printf("Uninstalled theme %s\n", args[0])
	return nil
}

func runThemesActivate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a)

	if _, err := a.Themes.Activate(ctx, args[0]); err != nil {
		return err
	}
	fmt.Printf("Activated theme %s\n", args[0])
	return nil
}

func runThemesDeactivate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a)

	fallback, err := a.Themes.Deactivate(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Deactivated theme %s\n", args[0])
	if fallback != nil {
		fmt.Printf("Default theme %s is now active\n", fallback.Slug)
	} else {
		fmt.Println("No default theme installed, no theme is active")
	}
	return nil
}

func runThemesActive(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a)

	active, err := a.Themes.ActiveTheme(ctx)
	if err != nil {
		return err
	}
	if active == nil {
		fmt.Println("No theme is active.")
		return nil
	}

	fmt.Printf("Slug:      %s\n", active.Slug)
	fmt.Printf("Name:      %s\n", active.Name)
	fmt.Printf("Version:   %s\n", active.Version)
	if len(active.Manifest.Templates) > 0 {
		ids := make([]string, 0, len(active.Manifest.Templates))
		for _, tpl := range active.Manifest.Templates {
			ids = append(ids, tpl.ID)
		}
		fmt.Printf("Templates: %s\n", strings.Join(ids, ", "))
	}
	if len(active.Manifest.Regions) > 0 {
		ids := make([]string, 0, len(active.Manifest.Regions))
		for _, r := range active.Manifest.Regions {
			ids = append(ids, r.ID)
		}
		fmt.Printf("Regions:   %s\n", strings.Join(ids, ", "))
	}
	fmt.Println()
	fmt.Println("Settings:")
	printSettings(active.Settings)
	return nil
}

func runThemesSettings(cmd *cobra.Command, args []string) error {
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

	var values settings.Values
	if len(patch) > 0 {
		values, err = a.Themes.UpdateSettings(ctx, slug, patch)
	} else {
		values, err = a.Themes.GetSettings(ctx, slug)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Settings for %s:\n", slug)
	printSettings(values)
	return nil
}

func runThemesReset(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a)

	values, err := a.Themes.ResetSettings(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Reset settings for %s:\n", args[0])
	printSettings(values)
	return nil
}

func runThemesExport(cmd *cobra.Command, args []string) error {
	format, err := exportFormat(themesExportFormat, themesExportOutput)
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a)

	export, err := a.Themes.ExportSettings(ctx, args[0])
	if err != nil {
		return err
	}

	var data []byte
	if format == "yaml" {
		data, err = yaml.Marshal(export)
	} else {
		data, err = json.MarshalIndent(export, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}

	if themesExportOutput == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(themesExportOutput, data, 0o644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	fmt.Printf("Exported %d settings of %s to %s\n", len(export.Settings), args[0], themesExportOutput)
	return nil
}

func runThemesImport(cmd *cobra.Command, args []string) error {
	slug, path := args[0], args[1]
	export, err := readExport(path)
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a)

	if themesImportDiff || themesImportDryRun {
		current, err := a.Themes.GetSettings(ctx, slug)
		if err != nil {
			return err
		}
		preview, err := settings.Normalize(settings.Merge(current, export.Settings))
		if err != nil {
			return err
		}
		diff, changed := settingsDiff(current, preview)
		if !changed {
			fmt.Printf("Import leaves the settings of %s unchanged\n", slug)
			return nil
		}
		fmt.Print(diff)
		if themesImportDryRun {
			return nil
		}
	}

	values, err := a.Themes.ImportSettings(ctx, slug, export)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d settings into %s (%d resolved)\n", len(export.Settings), slug, len(values))
	return nil
}

func exportFormat(flag, output string) (string, error) {
	switch strings.ToLower(flag) {
	case "json", "yaml":
		return strings.ToLower(flag), nil
	case "yml":
		return "yaml", nil
	case "":
		switch strings.ToLower(filepath.Ext(output)) {
		case ".yaml", ".yml":
			return "yaml", nil
		}
		return "json", nil
	}
	return "", fmt.Errorf("unknown export format %q, want json or yaml", flag)
}

// readExport decodes an export file by extension; anything that is not
// .yaml or .yml is read as JSON.
func readExport(path string) (settings.Export, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return settings.Export{}, fmt.Errorf("failed to read export: %w", err)
	}

	var export settings.Export
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &export)
	default:
		err = json.Unmarshal(data, &export)
	}
	if err != nil {
		return settings.Export{}, fmt.Errorf("failed to parse export %s: %w", path, err)
	}
	return export, nil
}
