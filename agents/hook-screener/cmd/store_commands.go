package main

import (
	"fmt"
	"strconv"
	"strings"

	hookscreener "hook-screener/agents/hook-screener"
	"hook-screener/internal/models"
	"hook-screener/shared/cache"
	"hook-screener/shared/config"
	"hook-screener/shared/moderation"

	"github.com/spf13/cobra"
)

func storeCorpora(cmd *cobra.Command, cfg *config.Config) (*moderation.CorpusSet, error) {
	store, err := hookscreener.OpenStore(cmd.Context(), cfg)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.Corpora(cmd.Context())
}

func newHooksCommand(ctx *commandContext) *cobra.Command {
	hooksCmd := &cobra.Command{
		Use:   "hooks",
		Short: "Manage the reference hook store",
	}

	var overwrite bool
	seedCmd := &cobra.Command{
		Use:   "seed [preset]",
		Short: "Copy a built-in corpus preset into the hook store",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *ctx.cfg
			name := cfg.Screener.CorpusPreset
			if len(args) == 1 {
				name = args[0]
			}
			preset, err := moderation.Preset(name)
			if err != nil {
				return fmt.Errorf("%w (available: %s)", err, strings.Join(moderation.PresetNames(), ", "))
			}

			// Seeding is explicit here; skip the automatic one.
			cfg.Storage.SeedPreset = ""
			store, err := hookscreener.OpenStore(cmd.Context(), &cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			var invalidator hookscreener.CorpusInvalidator
			if cfg.Redis.Enabled() {
				corpusCache := cache.NewCorpusCache(cfg.Redis, store)
				defer corpusCache.Close()
				invalidator = corpusCache
			}

			n, err := hookscreener.SeedStore(cmd.Context(), store, preset, overwrite, invalidator)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d slots from preset %q into %s\n", n, name, store.Path())
			return nil
		},
	}
	seedCmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace slots that already hold hooks")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the stored reference hooks",
		RunE: func(cmd *cobra.Command, args []string) error {
			corpora, err := storeCorpora(cmd, ctx.cfg)
			if err != nil {
				return err
			}

			var rows [][]string
			for _, entry := range corpora.Entries() {
				for i, hook := range entry.Corpus.Hooks {
					rows = append(rows, []string{string(entry.Language), string(entry.Category), strconv.Itoa(i + 1), hook})
				}
			}
			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No hooks stored")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Language", "Category", "#", "Hook"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
				isTerminal(cmd.OutOrStdout()),
			))
			return nil
		},
	}

	hooksCmd.AddCommand(seedCmd, listCmd)
	return hooksCmd
}

func newVerdictsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "verdicts [handle]",
		Short: "Show the latest stored verdicts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			handle := ""
			if len(args) == 1 {
				handle = args[0]
			}

			store, err := hookscreener.OpenStore(cmd.Context(), ctx.cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.ListVerdicts(cmd.Context(), handle, limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No verdicts stored")
				return nil
			}

			rows := make([][]string, 0, len(records))
			for _, r := range records {
				rows = append(rows, []string{
					r.ScreenedAt.Local().Format("2006-01-02 15:04"),
					r.Handle,
					r.VideoID,
					statusLabel(r.Verdict.Status),
					r.Verdict.ReasonCode,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Screened", "Handle", "Video", "Status", "Reason"},
				rows,
				nil,
				isTerminal(cmd.OutOrStdout()),
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of verdicts")
	return cmd
}

func statusLabel(s models.Status) string {
	if s == models.StatusApproved {
		return "✅ approved"
	}
	return "❌ rejected"
}
