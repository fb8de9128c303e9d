package main

import (
	"fmt"

	hookscreener "hook-screener/agents/hook-screener"
	"hook-screener/shared/scheduler"

	"github.com/spf13/cobra"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Screen creators on the configured schedule and serve the API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.cfg
			if err := cfg.ValidateBatch(); err != nil {
				return err
			}

			agent := hookscreener.NewAgent(cfg)
			defer agent.Close()

			fmt.Fprintln(cmd.OutOrStdout(), "Starting scheduler...")
			return scheduler.New(cfg, agent).Start(cmd.Context())
		},
	}
}

func newOnceCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "once",
		Short: "Run a single screening pass and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.cfg
			if err := cfg.ValidateBatch(); err != nil {
				return err
			}

			agent := hookscreener.NewAgent(cfg)
			defer agent.Close()
			if err := agent.Initialize(cmd.Context()); err != nil {
				return fmt.Errorf("failed to initialize agent: %w", err)
			}

			s := scheduler.New(cfg, agent)
			if err := s.RunOnce(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s.Monitor().GetStatusSummary())
			if !s.Monitor().IsHealthy() {
				return fmt.Errorf("run failed")
			}
			return nil
		},
	}
}
