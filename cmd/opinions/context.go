package main

import (
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/sakif/what-to-watch/internal/config"
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
		c.config, c.configErr = config.Load(path)
	})
	return c.config, c.configErr
}

// newLogger builds the process logger. Text output on stderr keeps stdout
// free for command results.
func (c *commandContext) newLogger() *slog.Logger {
	level := slog.LevelInfo
	if c.config != nil {
		if l, err := c.config.SlogLevel(); err == nil {
			level = l
		}
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
