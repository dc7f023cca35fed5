// Package config loads process configuration from a config file and the
// environment.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Store    StoreConfig    `mapstructure:"store"`
	Feed     FeedConfig     `mapstructure:"feed"`
	Settings SettingsConfig `mapstructure:"settings"`
	Log      LogConfig      `mapstructure:"log"`
}

type StoreConfig struct {
	Path   string `mapstructure:"path"`
	Bucket string `mapstructure:"bucket"`
}

type FeedConfig struct {
	// Socket is the configuration daemon's Unix socket.
	Socket string `mapstructure:"socket"`
	// Path is where the daemon keeps its own database.
	Path string `mapstructure:"path"`
}

type SettingsConfig struct {
	LockTimeout time.Duration `mapstructure:"lock_timeout"`
	QueueSize   int           `mapstructure:"queue_size"`
	// SyncSpec is a cron schedule for periodic durable syncs. Empty
	// disables them.
	SyncSpec    string `mapstructure:"sync_spec"`
	NotifyOnSet bool   `mapstructure:"notify_on_set"`
}

type LogConfig struct {
	Path  string `mapstructure:"path"`
	Level string `mapstructure:"level"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	dir := defaultDir()
	return &Config{
		Store: StoreConfig{
			Path:   filepath.Join(dir, "preferences.bbolt"),
			Bucket: "preferences",
		},
		Feed: FeedConfig{
			Socket: filepath.Join(dir, "confd.sock"),
			Path:   filepath.Join(dir, "desktop.bbolt"),
		},
		Settings: SettingsConfig{
			LockTimeout: time.Second,
			QueueSize:   64,
			SyncSpec:    "@every 5m",
		},
		Log: LogConfig{
			Path:  filepath.Join(dir, "fm-prefs.log"),
			Level: "info",
		},
	}
}

func defaultDir() string {
	home, _ := os.UserHomeDir()
	if home == "" {
		home = "."
	}
	return filepath.Join(home, ".config", "fm-prefs")
}

// Load reads configuration from files and environment variables.
// Environment variables use the prefix "FM_PREFS" and the dot character
// in keys is replaced by an underscore. For example, "store.path" becomes
// "FM_PREFS_STORE_PATH".
func Load() (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigName("fm-prefs")
	v.AddConfigPath(".")
	v.AddConfigPath(defaultDir())
	v.SetEnvPrefix("FM_PREFS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v, cfg)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// bindEnvs registers all keys within cfg so that viper will look up
// corresponding environment variables when unmarshalling.
func bindEnvs(v *viper.Viper, cfg any, parts ...string) {
	val := reflect.ValueOf(cfg)
	typ := reflect.TypeOf(cfg)
	if typ.Kind() == reflect.Ptr {
		val = val.Elem()
		typ = typ.Elem()
	}
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "" {
			tag = strings.ToLower(f.Name)
		}
		key := append(append([]string(nil), parts...), tag)
		if f.Type.Kind() == reflect.Struct {
			bindEnvs(v, val.Field(i).Interface(), key...)
			continue
		}
		_ = v.BindEnv(strings.Join(key, "."))
	}
}
