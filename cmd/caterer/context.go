package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"caterer/internal/config"
	"caterer/internal/faults"
	"caterer/internal/logging"
)

type globalFlags struct {
	config  string
	catalog string
	color   string
}

type commandContext struct {
	flags *globalFlags

	configOnce sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, exists, err := config.Load(strings.TrimSpace(c.flags.config))
		if err != nil {
			c.configErr = faults.Wrap(faults.ErrConfiguration, "config", "load", path, err)
			return
		}
		if override := strings.TrimSpace(c.flags.catalog); override != "" {
			expanded, err := config.ExpandPath(override)
			if err != nil {
				c.configErr = faults.Wrap(faults.ErrConfiguration, "config", "catalog flag", override, err)
				return
			}
			cfg.Paths.Catalog = expanded
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = faults.Wrap(faults.ErrConfiguration, "config", "ensure directories", "", err)
			return
		}
		c.config = cfg
		c.configPath = path
		c.configSeen = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) logger(cmd *cobra.Command) (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewFromConfig(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, faults.Wrap(faults.ErrConfiguration, "logging", "init", "", err)
	}
	return logger, nil
}

// colorize resolves the --color flag against the command's stdout.
func (c *commandContext) colorize(cmd *cobra.Command) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(c.flags.color)) {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "auto", "":
		return shouldColorize(cmd.OutOrStdout()), nil
	default:
		return false, faults.Wrap(faults.ErrConfiguration, "cli", "color",
			fmt.Sprintf("unsupported --color value %q (want auto, always or never)", c.flags.color), nil)
	}
}

func shouldColorize(writer io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
