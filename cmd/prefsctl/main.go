package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/leonardcser/fm-prefs/internal/config"
	"github.com/leonardcser/fm-prefs/internal/feed"
	"github.com/leonardcser/fm-prefs/internal/logger"
	"github.com/leonardcser/fm-prefs/internal/settings"
	"github.com/leonardcser/fm-prefs/internal/store"
)

var storePath string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "prefsctl",
	Short: "Inspect and edit file manager preferences",
	Long: `Reads and writes the file manager's preference store directly.
The store is locked while the preferences server runs; stop it first.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&storePath, "store", "", "preference database (default from config)")
	rootCmd.AddCommand(getCmd, setCmd, resetCmd, resetAllCmd, listCmd, syncCmd, timeFormatCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// withPrefs opens the store and cache, runs fn and waits for the
// background writes before closing everything.
func withPrefs(fn func(prefs *settings.Cache) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if storePath != "" {
		cfg.Store.Path = storePath
	}
	if err := logger.Init(cfg.Log.Path, cfg.Log.Level); err != nil {
		return err
	}
	defer logger.Close()

	kv, err := store.Open(cfg.Store.Path, store.Options{Bucket: cfg.Store.Bucket})
	if err != nil {
		return err
	}
	defer kv.Close()

	prefs, err := settings.New(settings.Options{
		Store:       kv,
		Panel:       feed.Probe(cfg.Feed.Socket, settings.PanelSchema, logger.L()),
		Style:       feed.Probe(cfg.Feed.Socket, settings.StyleSchema, logger.L()),
		Logger:      logger.L(),
		LockTimeout: cfg.Settings.LockTimeout,
		QueueSize:   cfg.Settings.QueueSize,
	})
	if err != nil {
		return err
	}
	defer prefs.Close()
	return fn(prefs)
}
