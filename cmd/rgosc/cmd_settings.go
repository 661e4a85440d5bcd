package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/newtron-network/rgosc/pkg/cli"
	"github.com/newtron-network/rgosc/pkg/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage persistent settings",
	Long:  `Manage persistent settings stored in ~/.rgosc/settings.json.

Examples:
  rgosc settings show
  rgosc settings set format json
  rgosc settings set redis_addr 10.0.0.5:6379
  rgosc settings clear`,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(app.out, "Settings file: %s\n\n", app.settingsFile())
		eff := app.settings.Effective()
		t := cli.NewTable(app.out, "setting", "value")
		for _, k := range settings.Keys() {
			t.Row(k, eff[k])
		}
		t.Flush()
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <setting> <value>",
	Short: "Set a setting value",
	Long:  "Set a persistent setting value.\n\nAvailable settings: " +
		strings.Join(settings.Keys(), ", "),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.settings.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := app.settings.SaveTo(app.settingsFile()); err != nil {
			return fmt.Errorf("saving settings: %w", err)
		}
		fmt.Fprintf(app.out, "%s = %s\n", args[0], args[1])
		return nil
	},
}

var settingsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Reset all settings to defaults",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app.settings.Clear()
		if err := app.settings.SaveTo(app.settingsFile()); err != nil {
			return fmt.Errorf("saving settings: %w", err)
		}
		fmt.Fprintln(app.out, "Settings cleared")
		return nil
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd, settingsClearCmd)
}

func (a *App) settingsFile() string {
	if a.settingsPath != "" {
		return a.settingsPath
	}
	return settings.DefaultSettingsPath()
}
