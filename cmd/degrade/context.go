package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/degrade/config"
	"github.com/RyanBlaney/degrade/logging"
	"github.com/RyanBlaney/degrade/progress"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string
	noColorFlag  *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag *string, noColorFlag *bool) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
		noColorFlag:  noColorFlag,
	}
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
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.ToLower(strings.TrimSpace(*c.logLevelFlag))
		}
		if c.noColorFlag != nil && *c.noColorFlag {
			cfg.Logging.NoColor = true
		}
		configureLogging(cfg.Logging)
		c.config = cfg
	})
	return c.config, c.configErr
}

func configureLogging(cfg config.Logging) {
	var logger *logging.DefaultLogger
	if cfg.NoColor {
		logger = logging.NewDefaultLoggerNoColor()
	} else {
		logger = logging.NewDefaultLogger()
	}
	logger.SetLevel(logging.ParseLevel(cfg.Level))
	logging.SetGlobalLogger(logger)
}

// openLedger opens the progress database named in the configuration.
func (c *commandContext) openLedger() (*progress.Ledger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	ledger, err := progress.Open(cfg.Progress.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open progress ledger: %w", err)
	}
	return ledger, nil
}

// signalContext cancels on SIGINT or SIGTERM so runs stop between batches.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
