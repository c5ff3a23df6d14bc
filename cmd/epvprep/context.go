package main

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/okian/epvprep/internal/adapters/ledger"
	service "github.com/okian/epvprep/internal/app"
	"github.com/okian/epvprep/internal/config"
	"github.com/okian/epvprep/pkg/logger"
	"github.com/okian/epvprep/pkg/metrics"
)

type globalFlags struct {
	config   string
	logLevel string
	workers  int
}

type commandContext struct {
	flags *globalFlags

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

// ensureConfig loads the configuration once, applies flag overrides and
// points the logger at the command's stderr.
func (c *commandContext) ensureConfig(cmd *cobra.Command) (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, err := config.Load(cmd.Context(), strings.TrimSpace(c.flags.config))
		if err != nil {
			c.configErr = err
			return
		}
		if c.flags.logLevel != "" {
			cfg.LogLevel = strings.ToLower(c.flags.logLevel)
		}
		if cmd.Flags().Changed("workers") {
			cfg.Workers = c.flags.workers
		}
		if err := cfg.Validate(); err != nil {
			c.configErr = err
			return
		}
		if err := logger.Configure(cmd.ErrOrStderr(), cfg.LogFormat); err != nil {
			c.configErr = fmt.Errorf("configure logging: %w", err)
			return
		}
		if err := logger.SetLevelString(cfg.LogLevel); err != nil {
			c.configErr = fmt.Errorf("configure logging: %w", err)
			return
		}
		metrics.Configure(
			metrics.WithConstLabels(cfg.MetricsLabels),
			metrics.WithHistogramBuckets(cfg.MetricsBuckets),
		)
		c.config = cfg
	})
	return c.config, c.configErr
}

// withService builds a Service wired to the configured ledger and runs fn.
func (c *commandContext) withService(cmd *cobra.Command, fn func(*service.Service) error) error {
	cfg, err := c.ensureConfig(cmd)
	if err != nil {
		return err
	}
	var opts []service.Option
	if cfg.LedgerPath != "" {
		lg, err := ledger.Open(cmd.Context(), cfg.LedgerPath)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := lg.Close(); cerr != nil {
				logger.Get().Warn(context.WithoutCancel(cmd.Context()), "failed to close ledger", logger.Error(cerr))
			}
		}()
		opts = append(opts, service.WithLedger(lg))
	}
	svc, err := service.NewFromConfig(cfg, opts...)
	if err != nil {
		return err
	}
	return fn(svc)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
