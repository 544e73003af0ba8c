package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Load reads configuration from path, layered over Default. An empty
// path returns the defaults untouched.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("forkstream: config file does not exist: %s", path)
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("forkstream: failed to read config file %s: %w", path, err)
	}

	// Only the `forkstream:` subtree is ours; other keys are ignored so
	// the file can be shared with deployment tooling.
	sub := v.Sub("forkstream")
	if sub == nil {
		sub = v
	}
	if err := sub.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("forkstream: failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
