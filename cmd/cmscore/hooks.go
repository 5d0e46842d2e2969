package main

import (
	"context"
	"fmt"

	"github.com/artpar/cmscore/app"
	"github.com/artpar/cmscore/domain/hook"
	"github.com/spf13/cobra"
)

var hooksCmd = &cobra.Command{
	Use:     "hooks",
	Aliases: []string{"hook"},
	Short:   "Inspect and manage hooks and listeners",
	Long: `List hooks with their listeners, and register or remove listeners.

A listener only takes part in dispatch while it is enabled and its module is
loaded.

Examples:
  cmscore hooks list
  cmscore hooks register content.afterPublish newsletter newsletter:notify --priority 5
  cmscore hooks remove content.afterPublish newsletter`,
}

var hooksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List hooks and their listeners",
	RunE:  runHooksList,
}

var hooksRegisterCmd = &cobra.Command{
	Use:   "register <hook> <module> <handler>",
	Short: "Register or replace a module's listener on a hook",
	Args:  cobra.ExactArgs(3),
	RunE:  runHooksRegister,
}

var hooksRemoveCmd = &cobra.Command{
	Use:   "remove <hook> <module>",
	Short: "Remove a module's listener from a hook",
	Args:  cobra.ExactArgs(2),
	RunE:  runHooksRemove,
}

var (
	hooksPriority int
	hooksDisabled bool
)

func init() {
	rootCmd.AddCommand(hooksCmd)

	hooksCmd.AddCommand(hooksListCmd)
	hooksCmd.AddCommand(hooksRegisterCmd)
	hooksCmd.AddCommand(hooksRemoveCmd)

	hooksRegisterCmd.Flags().IntVar(&hooksPriority, "priority", hook.DefaultPriority, "lower runs first")
	hooksRegisterCmd.Flags().BoolVar(&hooksDisabled, "disabled", false, "register the listener disabled")
}

func runHooksList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a)

	hooks, err := a.Hooks.ListHooks(ctx)
	if err != nil {
		return fmt.Errorf("failed to list hooks: %w", err)
	}
	if len(hooks) == 0 {
		fmt.Println("No hooks defined.")
		return nil
	}

	for _, h := range hooks {
		kind := "custom"
		if h.IsSystem {
			kind = "system"
		}
		fmt.Printf("%s (%s)\n", h.Name, kind)
		for i, l := range h.Listeners {
			branch := "├──"
			if i == len(h.Listeners)-1 {
				branch = "└──"
			}
			state := ""
			switch {
			case !l.Enabled:
				state = " [disabled]"
			case !a.Modules.IsLoaded(l.ModuleSlug):
				state = " [not loaded]"
			}
			fmt.Printf("  %s %3d  %s -> %s%s\n", branch, l.Priority, l.ModuleSlug, l.HandlerRef, state)
		}
	}
	return nil
}

func runHooksRegister(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a)

	spec := app.ListenerSpec{Hook: args[0], Module: args[1], Handler: args[2]}
	if cmd.Flags().Changed("priority") {
		spec.Priority = &hooksPriority
	}
	if hooksDisabled {
		enabled := false
		spec.Enabled = &enabled
	}

	l, err := a.Hooks.RegisterListener(ctx, spec)
	if err != nil {
		return err
	}
	fmt.Printf("Registered %s on %s (priority %d, enabled %v)\n", l.ModuleSlug, l.HookName, l.Priority, l.Enabled)
	return nil
}

func runHooksRemove(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(a)

	if err := a.Hooks.RemoveListener(ctx, args[0], args[1]); err != nil {
		return err
	}
	fmt.Printf("Removed %s from %s\n", args[1], args[0])
	return nil
}
