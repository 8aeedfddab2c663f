package app

import (
	"strings"

	"github.com/xxxsen/capekit/internal/config"
)

var appConfig = config.Default()

// SetConfig replaces the configuration runners resolve their defaults from.
func SetConfig(cfg *config.Config) {
	if cfg == nil {
		cfg = config.Default()
	}
	appConfig = cfg
}

// CurrentConfig returns the active configuration.
func CurrentConfig() *config.Config {
	return appConfig
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
