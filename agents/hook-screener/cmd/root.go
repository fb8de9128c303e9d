package main

import (
	"fmt"
	"io"
	"os"

	"hook-screener/shared/config"
	"hook-screener/shared/logging"

	"github.com/spf13/cobra"
)

type commandContext struct {
	configFile string
	cfg        *config.Config
	logCloser  io.Closer
}

// load reads the configuration once and installs the default logger.
func (c *commandContext) load() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	if c.configFile != "" {
		os.Setenv("CONFIG_FILE", c.configFile)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	closer, err := logging.Init(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	c.cfg = cfg
	c.logCloser = closer
	return cfg, nil
}

func (c *commandContext) close() {
	if c.logCloser != nil {
		c.logCloser.Close()
	}
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "hook-screener",
		Short:         "Screen short creator videos against the approved hook and format rules",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.load()
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			ctx.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.configFile, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newRunCommand(ctx))
	rootCmd.AddCommand(newOnceCommand(ctx))
	rootCmd.AddCommand(newScreenCommand(ctx))
	rootCmd.AddCommand(newHooksCommand(ctx))
	rootCmd.AddCommand(newVerdictsCommand(ctx))

	return rootCmd
}
