package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultAPIURL = "http://localhost:8080/api"

type config struct {
	APIURL  string        `yaml:"api_url"`
	LogFile string        `yaml:"log_file,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
	Debug   bool          `yaml:"debug,omitempty"`
}

// configPath returns TASKBOARD_CONFIG, or config.yaml under the user config
// directory.
func configPath() string {
	if p := os.Getenv("TASKBOARD_CONFIG"); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "taskboard", "config.yaml")
}

// loadConfig reads the optional config file and applies environment
// overrides on top of it.
func loadConfig(path string) (config, error) {
	cfg := config{APIURL: defaultAPIURL}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return config{}, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return config{}, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}

	if v := os.Getenv("TASKBOARD_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("TASKBOARD_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil {
		cfg.Debug = dbg
	}

	if cfg.APIURL == "" {
		return config{}, errors.New("config: api_url is required")
	}
	if cfg.Timeout < 0 {
		return config{}, fmt.Errorf("config: timeout must not be negative")
	}
	return cfg, nil
}
