package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSearch()
	c.normalizeIngest()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("CATERER_CATALOG"); ok && strings.TrimSpace(value) != "" {
		c.Paths.Catalog = strings.TrimSpace(value)
	}
	if value, ok := os.LookupEnv("CATERER_DATASET_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.DatasetDir = strings.TrimSpace(value)
	}

	var err error
	if strings.TrimSpace(c.Paths.Catalog) == "" {
		c.Paths.Catalog = filepath.Join(defaultDataDir(), defaultCatalogName)
	}
	if c.Paths.Catalog, err = expandPath(strings.TrimSpace(c.Paths.Catalog)); err != nil {
		return fmt.Errorf("paths.catalog: %w", err)
	}
	if strings.TrimSpace(c.Paths.DatasetDir) == "" {
		c.Paths.DatasetDir = defaultDatasetDir
	}
	if c.Paths.DatasetDir, err = expandPath(strings.TrimSpace(c.Paths.DatasetDir)); err != nil {
		return fmt.Errorf("paths.dataset_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(defaultDataDir(), defaultLogSubdir)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSearch() {
	if c.Search.Workers == 0 {
		c.Search.Workers = defaultWorkers()
	}
	if c.Search.Top == 0 {
		c.Search.Top = defaultSearchTop
	}
	c.Search.IDPrefix = strings.TrimSpace(c.Search.IDPrefix)
}

func (c *Config) normalizeIngest() {
	if c.Ingest.BatchSize == 0 {
		c.Ingest.BatchSize = defaultIngestBatchSize
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
