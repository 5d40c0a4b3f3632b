package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// ScenePath is a single .hcl scene file or a directory of them.
	ScenePath string

	// DataDir is the directory image, buffer, and reference byte files
	// resolve against. Defaults to the current directory.
	DataDir string

	// Backend selects the registered backend by name. Empty selects the
	// highest-priority available backend.
	Backend string

	LogFormat string
	LogLevel  string
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.ScenePath == "" {
		return nil, errors.New("ScenePath is a required configuration field and cannot be empty")
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "."
	}
	return &cfg, nil
}
