package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leonardcser/fm-prefs/internal/settings"
	"github.com/leonardcser/fm-prefs/internal/tools"
)

var getCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Print a preference as tagged JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPrefs(func(prefs *settings.Cache) error {
			out, err := json.Marshal(prefs.GetValue(args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		})
	},
}

var setCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Set a preference from tagged JSON or a bare literal",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPrefs(func(prefs *settings.Cache) error {
			v := settings.ParseValue(args[1])
			prefs.SetValue(args[0], v)
			prefs.Flush()
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s (%s)\n", args[0], v, v.Kind())
			return nil
		})
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset KEY",
	Short: "Remove a preference",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPrefs(func(prefs *settings.Cache) error {
			prefs.Reset(args[0])
			prefs.Flush()
			return nil
		})
	},
}

var resetAllCmd = &cobra.Command{
	Use:   "reset-all",
	Short: "Remove every preference",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPrefs(func(prefs *settings.Cache) error {
			prefs.ResetAll()
			prefs.Flush()
			return nil
		})
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every preference",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPrefs(func(prefs *settings.Cache) error {
			fmt.Fprintln(cmd.OutOrStdout(), tools.FormatSettings(prefs))
			return nil
		})
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync [KEY]",
	Short: "Flush the store and reload preferences from it",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := ""
		if len(args) == 1 {
			key = args[0]
		}
		return withPrefs(func(prefs *settings.Cache) error {
			prefs.ForceSync(key)
			fmt.Fprintf(cmd.OutOrStdout(), "%d preferences\n", len(prefs.Keys()))
			return nil
		})
	},
}

var timeFormatCmd = &cobra.Command{
	Use:   "time-format",
	Short: "Print the date and time layout from the desktop clock preferences",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPrefs(func(prefs *settings.Cache) error {
			fmt.Fprintln(cmd.OutOrStdout(), prefs.SystemTimeFormat())
			return nil
		})
	},
}
