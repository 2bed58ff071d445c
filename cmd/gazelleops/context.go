package main

import (
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"gazelleops/internal/config"
	"gazelleops/internal/gazelle"
	"gazelleops/internal/logging"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// newLogger builds the run logger writing to stderr and the log directory.
func (c *commandContext) newLogger(cfg *config.Config) (*slog.Logger, error) {
	return logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		OutputPaths: []string{
			"stderr",
			filepath.Join(cfg.Paths.LogDir, "gazelleops.log"),
		},
	})
}

func (c *commandContext) newClient(cfg *config.Config) *gazelle.Client {
	return gazelle.NewConfiguredClient(cfg)
}
