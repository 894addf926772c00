package config

import (
	"path/filepath"
	"runtime"
)

const (
	defaultCatalogName     = "caterer.db"
	defaultDatasetDir      = "."
	defaultLogSubdir       = "logs"
	defaultSearchTop       = 100
	defaultIDPrefix        = "tt"
	defaultIngestBatchSize = 50000
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	maxDefaultWorkers      = 8
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	dataDir := defaultDataDir()
	return Config{
		Paths: Paths{
			Catalog:    filepath.Join(dataDir, defaultCatalogName),
			DatasetDir: defaultDatasetDir,
			LogDir:     filepath.Join(dataDir, defaultLogSubdir),
		},
		Search: Search{
			Workers:  defaultWorkers(),
			Top:      defaultSearchTop,
			IDPrefix: defaultIDPrefix,
		},
		Ingest: Ingest{
			BatchSize: defaultIngestBatchSize,
			Progress:  true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

func defaultWorkers() int {
	n := runtime.NumCPU()
	if n > maxDefaultWorkers {
		return maxDefaultWorkers
	}
	if n < 1 {
		return 1
	}
	return n
}
