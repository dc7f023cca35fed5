package main

import (
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/leonardcser/fm-prefs/internal/config"
	"github.com/leonardcser/fm-prefs/internal/feed"
	"github.com/leonardcser/fm-prefs/internal/logger"
	"github.com/leonardcser/fm-prefs/internal/settings"
	"github.com/leonardcser/fm-prefs/internal/store"
	tools "github.com/leonardcser/fm-prefs/internal/tools"
)

// logPalette stands in for the application object: without a window
// system the palette refresh is only recorded.
type logPalette struct{ log *zap.Logger }

func (p logPalette) PaletteChanged() { p.log.Info("palette refresh requested") }

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := logger.Init(cfg.Log.Path, cfg.Log.Level); err != nil {
		panic(err)
	}
	defer logger.Close()
	log := logger.L()

	logger.Infof("Starting preferences MCP server")

	kv, err := store.Open(cfg.Store.Path, store.Options{Bucket: cfg.Store.Bucket})
	if err != nil {
		logger.Errorf("Failed to open preferences store: %v", err)
		panic(err)
	}
	defer kv.Close()

	prefs, err := settings.New(settings.Options{
		Store:       kv,
		Panel:       feed.Probe(cfg.Feed.Socket, settings.PanelSchema, log),
		Style:       feed.Probe(cfg.Feed.Socket, settings.StyleSchema, log),
		Palette:     logPalette{log: log},
		Logger:      log,
		LockTimeout: cfg.Settings.LockTimeout,
		QueueSize:   cfg.Settings.QueueSize,
		NotifyOnSet: cfg.Settings.NotifyOnSet,
	})
	if err != nil {
		logger.Errorf("Failed to initialize preferences: %v", err)
		panic(err)
	}
	defer prefs.Close()
	logger.Infof("Loaded %d preferences from %s", len(prefs.Keys()), cfg.Store.Path)

	prefs.Subscribe(func(key string) {
		logger.Infof("Preference changed: %s", key)
	})

	if cfg.Settings.SyncSpec != "" {
		sched, err := settings.NewScheduler(prefs, cfg.Settings.SyncSpec)
		if err != nil {
			logger.Errorf("Periodic sync disabled: %v", err)
		} else {
			sched.Start()
			defer sched.Stop()
		}
	}

	s := server.NewMCPServer(
		"File Manager Preferences",
		"0.1.0",
		server.WithRecovery(),
		server.WithToolCapabilities(false),
	)

	keyArg := mcp.WithString("key", mcp.Required(), mcp.Description("The preference key"))

	s.AddTool(mcp.NewTool("settings-get",
		mcp.WithDescription(multiline(
			"Returns the cached value of a file manager preference",
			"\nUsage notes:",
			"- Missing keys are reported with exists=false and a null value",
			"- Values are tagged: {\"kind\":\"int\",\"v\":25}",
		)),
		keyArg,
	), tools.SettingsGetHandler(prefs))

	s.AddTool(mcp.NewTool("settings-set",
		mcp.WithDescription(multiline(
			"Sets a file manager preference",
			"\nUsage notes:",
			"- The value may be a tagged JSON value or a bare literal (number, true/false, text)",
			"- The change is visible immediately; the durable write happens in the background",
		)),
		keyArg,
		mcp.WithString("value", mcp.Required(), mcp.Description("The new value")),
	), tools.SettingsSetHandler(prefs))

	s.AddTool(mcp.NewTool("settings-reset",
		mcp.WithDescription("Removes a preference so it reads as unset"),
		keyArg,
	), tools.SettingsResetHandler(prefs))

	s.AddTool(mcp.NewTool("settings-reset-all",
		mcp.WithDescription("Removes every preference"),
	), tools.SettingsResetAllHandler(prefs))

	s.AddTool(mcp.NewTool("settings-list",
		mcp.WithDescription("Lists every cached preference with its value and kind"),
	), tools.SettingsListHandler(prefs))

	s.AddTool(mcp.NewTool("settings-sync",
		mcp.WithDescription(multiline(
			"Flushes the durable store and reloads preferences from it",
			"- With a key only that preference is reloaded",
		)),
		mcp.WithString("key", mcp.Description("Optional preference key")),
	), tools.SettingsSyncHandler(prefs))

	s.AddTool(mcp.NewTool("system-time-format",
		mcp.WithDescription("Returns the date and time layout derived from the desktop clock preferences"),
	), tools.SystemTimeFormatHandler(prefs))
	logger.Infof("Registered preference tools")

	logger.Infof("Starting MCP server on stdio")
	if err := server.ServeStdio(s); err != nil {
		logger.Errorf("server error: %v", err)
	}
}

// multiline joins lines with newlines for tool descriptions.
func multiline(lines ...string) string { return strings.Join(lines, "\n") }
