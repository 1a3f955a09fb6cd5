package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecrec/internal/config"
	logpkg "github.com/kailas-cloud/vecrec/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// rootOptions carries global flags and the state built from them in PersistentPreRunE.
type rootOptions struct {
	env        string
	configPath string
	logLevel   string

	cfg    config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "vecrec",
		Short: "Catalog recommendation engine",
		Long: `vecrec matches a customer's structured need against a product catalog
by vector similarity and hard filters, then applies a budget-aware selection policy.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return opts.init()
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&opts.env, "env", "", "environment name, selects config/<env>.yaml (default: $ENV or local)")
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "explicit config file, overrides --env lookup")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newSeedCmd(opts))
	cmd.AddCommand(newReembedCmd(opts))
	cmd.AddCommand(newRecommendCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func (o *rootOptions) init() error {
	if o.env == "" {
		o.env = config.GetEnv()
	}

	var err error
	if o.configPath != "" {
		o.cfg, err = config.LoadFile(o.configPath)
	} else {
		o.cfg, err = config.Load(o.env)
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level := o.cfg.Logging.Level
	if o.logLevel != "" {
		level = o.logLevel
	}
	o.logger, err = logpkg.NewLogger(o.env, level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	return nil
}
