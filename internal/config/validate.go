package config

import (
	"errors"
	"fmt"
)

const maxSearchWorkers = 64

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateSearch(); err != nil {
		return err
	}
	if err := c.validateIngest(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.Catalog == "" {
		return errors.New("paths.catalog must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateSearch() error {
	if c.Search.Workers < 1 || c.Search.Workers > maxSearchWorkers {
		return fmt.Errorf("search.workers must be between 1 and %d", maxSearchWorkers)
	}
	if c.Search.Top < 1 {
		return errors.New("search.top must be positive")
	}
	return nil
}

func (c *Config) validateIngest() error {
	if c.Ingest.BatchSize < 1 {
		return errors.New("ingest.batch_size must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q (use debug, info, warn or error)", c.Logging.Level)
	}
}
