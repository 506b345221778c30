// Config loading for the healthdb CLI.
package main

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/fitonduty/healthdb/pkg/types"
)

// loadDatabaseConfig reads the optional environment config file. An empty
// path returns a zero config so URL resolution falls through to the
// environment.
func loadDatabaseConfig(path string) (types.DatabaseConfig, error) {
	if path == "" {
		return types.DatabaseConfig{}, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return types.DatabaseConfig{}, fmt.Errorf("reading %s: %w", path, err)
	}

	var cfg types.DatabaseConfig
	if err := v.UnmarshalKey("database", &cfg); err != nil {
		return types.DatabaseConfig{}, fmt.Errorf("decoding database section of %s: %w", path, err)
	}
	return cfg, nil
}

// loadSeedConfig reads and decodes a seed document. Validation happens in
// the loader, not here.
func loadSeedConfig(path string) (*types.SeedConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var cfg types.SeedConfig
	if err := v.Unmarshal(&cfg, listDecodeHook()); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return &cfg, nil
}

// loadExclusionConfig reads and decodes an excluded-days document.
func loadExclusionConfig(path string) (*types.ExclusionConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var cfg types.ExclusionConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return &cfg, nil
}

// listDecodeHook tolerates hand-written documents that give a single group
// name where a list is expected.
func listDecodeHook() viper.DecoderConfigOption {
	return viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToSliceHookFunc(","),
	))
}
