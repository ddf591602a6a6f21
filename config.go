package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"
)

// Config holds the settings a run starts from. Flags override whatever the
// config file or environment provided.
type Config struct {
	SearchRoot  string `mapstructure:"search_root"`
	ScanWorkers int    `mapstructure:"scan_workers"`
	DryRun      bool   `mapstructure:"dry_run"`
}

// loadConfig reads an optional "cratesweep" config file from the working
// directory or ~/.config/cratesweep, with CRATESWEEP_* environment
// variables layered on top. An explicit path must exist and parse.
func loadConfig(explicit string) (Config, error) {
	v := viper.New()
	if explicit != "" {
		v.SetConfigFile(explicit)
	} else {
		v.SetConfigName("cratesweep")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "cratesweep"))
		}
	}
	v.SetEnvPrefix("CRATESWEEP")
	v.AutomaticEnv()

	v.SetDefault("search_root", "")
	v.SetDefault("scan_workers", defaultScanWorkers())
	v.SetDefault("dry_run", false)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if cfg.ScanWorkers < 0 {
		return Config{}, errors.New("config: scan_workers must be >= 0")
	}
	return cfg, nil
}

// defaultScanWorkers leaves one core for the UI and the result drain.
func defaultScanWorkers() int {
	return max(runtime.NumCPU()-1, 1)
}
