package cli

import (
	"path/filepath"

	"github.com/xxxsen/capekit/internal/config"
	"github.com/xxxsen/capekit/internal/constant"

	"github.com/adrg/xdg"
)

const defaultConfigName = constant.AppName + ".json"

func defaultKeyList() []string {
	return []string{
		"./" + defaultConfigName,
		filepath.Join(xdg.ConfigHome, constant.AppName, "config.json"),
		"/etc/" + defaultConfigName,
	}
}

// LoadConfig resolves the configuration file respecting precedence rules and
// applies environment overrides on top.
func LoadConfig(explicit string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if explicit != "" {
		cfg, err = config.Load(explicit)
	} else {
		cfg, err = config.LoadFirst(defaultKeyList()...)
	}
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	return cfg, cfg.Validate()
}
