package main

import (
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/leonardcser/fm-prefs/internal/config"
	"github.com/leonardcser/fm-prefs/internal/feed"
	"github.com/leonardcser/fm-prefs/internal/logger"
	"github.com/leonardcser/fm-prefs/internal/store"
)

// Schemas the daemon installs and the values it seeds them with.
var builtinSchemas = map[string]map[string]string{
	"org.ukui.control-center.panel.plugins": {
		"date":       "cn",
		"time":       "24",
		"hoursystem": "24",
	},
	"org.ukui.style": {
		"peonySideBarTransparency": "50",
	},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := logger.Init(cfg.Log.Path, cfg.Log.Level); err != nil {
		panic(err)
	}
	defer logger.Close()

	sock := cfg.Feed.Socket

	// Ensure socket dir exists and remove stale socket
	_ = os.MkdirAll(filepath.Dir(sock), 0o755)
	_ = os.Remove(sock)

	l, err := net.Listen("unix", sock)
	if err != nil {
		logger.Errorf("listen %s: %v", sock, err)
		panic(err)
	}
	defer l.Close()
	_ = os.Chmod(sock, 0o600)

	kv, err := store.Open(cfg.Feed.Path, store.Options{Bucket: "desktop"})
	if err != nil {
		logger.Errorf("open %s: %v", cfg.Feed.Path, err)
		panic(err)
	}
	defer kv.Close()

	srv := feed.NewServer(kv, logger.L())
	for _, name := range enabledSchemas() {
		defaults, ok := builtinSchemas[name]
		if !ok {
			defaults = map[string]string{}
		}
		if err := srv.Install(name, defaults); err != nil {
			logger.Errorf("install schema %s: %v", name, err)
			panic(err)
		}
	}

	logger.Infof("Configuration daemon listening on %s", sock)
	if err := srv.Serve(l); err != nil {
		logger.Errorf("serve: %v", err)
	}
}

// enabledSchemas reads FM_PREFS_CONFD_SCHEMAS, a comma separated list,
// defaulting to every built-in schema.
func enabledSchemas() []string {
	if v := os.Getenv("FM_PREFS_CONFD_SCHEMAS"); v != "" {
		var out []string
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	out := make([]string, 0, len(builtinSchemas))
	for name := range builtinSchemas {
		out = append(out, name)
	}
	return out
}
