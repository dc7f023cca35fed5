package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, time.Second, cfg.Settings.LockTimeout)
	require.Equal(t, 64, cfg.Settings.QueueSize)
	require.Equal(t, "@every 5m", cfg.Settings.SyncSpec)
	require.False(t, cfg.Settings.NotifyOnSet)
	require.Equal(t, "preferences", cfg.Store.Bucket)
	require.Equal(t, "preferences.bbolt", filepath.Base(cfg.Store.Path))
}

func TestLoadEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("FM_PREFS_STORE_PATH", "/tmp/prefs.bbolt")
	t.Setenv("FM_PREFS_SETTINGS_LOCK_TIMEOUT", "250ms")
	t.Setenv("FM_PREFS_SETTINGS_NOTIFY_ON_SET", "true")
	t.Setenv("FM_PREFS_FEED_SOCKET", "/run/user/1000/confd.sock")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "/tmp/prefs.bbolt", cfg.Store.Path)
	require.Equal(t, 250*time.Millisecond, cfg.Settings.LockTimeout)
	require.True(t, cfg.Settings.NotifyOnSet)
	require.Equal(t, "/run/user/1000/confd.sock", cfg.Feed.Socket)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", t.TempDir())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fm-prefs.yaml"), []byte(
		"settings:\n  queue_size: 8\n  sync_spec: \"\"\nlog:\n  level: debug\n"), 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 8, cfg.Settings.QueueSize)
	require.Equal(t, "", cfg.Settings.SyncSpec)
	require.Equal(t, "debug", cfg.Log.Level)
}
