package main

import (
	"encoding/json"
	"fmt"
	"os"

	hookscreener "hook-screener/agents/hook-screener"
	"hook-screener/internal/models"
	"hook-screener/shared/moderation"

	"github.com/spf13/cobra"
)

func newScreenCommand(ctx *commandContext) *cobra.Command {
	var (
		sample   models.ExtractedSample
		category string
		profile  string
		preset   string
		face     string
		app      float64
		useStore bool
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "screen",
		Short: "Decide one sample from its on-screen text and duration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *ctx.cfg
			if profile != "" {
				cfg.Screener.Profile = profile
			}

			cat, err := models.ParseCategory(category)
			if err != nil {
				return err
			}
			signals, err := parseSignals(face, app)
			if err != nil {
				return err
			}
			sample.Signals = signals

			engine, err := hookscreener.NewEngine(&cfg, nil)
			if err != nil {
				return err
			}

			var corpora *moderation.CorpusSet
			switch {
			case useStore:
				corpora, err = storeCorpora(cmd, &cfg)
			case preset != "":
				corpora, err = moderation.Preset(preset)
			default:
				corpora, err = moderation.Preset(cfg.Screener.CorpusPreset)
			}
			if err != nil {
				return err
			}

			verdict, err := engine.Decide(cmd.Context(), sample, cat, corpora)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON || !isTerminal(out) {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(verdict)
			}
			fmt.Fprintln(out, renderChecks(verdict, true))
			fmt.Fprintln(out)
			fmt.Fprint(out, verdict.FormattedMessage)
			return nil
		},
	}

	cmd.Flags().StringVar(&sample.Text, "text", "", "On-screen text of the video")
	cmd.Flags().Float64Var(&sample.DurationSeconds, "duration", 0, "Video duration in seconds")
	cmd.Flags().StringVar(&category, "category", "", "Format category (short or long, empty to classify)")
	cmd.Flags().StringVar(&profile, "profile", "", "Rule profile (defaults to the configured one)")
	cmd.Flags().StringVar(&preset, "preset", "", "Built-in corpus preset (defaults to the configured one)")
	cmd.Flags().BoolVar(&useStore, "store", false, "Judge against the hook store instead of a preset")
	cmd.Flags().StringVar(&sample.Ref.Handle, "handle", "", "Creator handle used in the message")
	cmd.Flags().StringVar(&sample.Ref.URL, "url", "", "Video link used in the message")
	cmd.Flags().StringVar(&face, "face", "", "Face in the opening window (yes, no or empty for unknown)")
	cmd.Flags().Float64Var(&app, "app-confidence", -1, "App footage confidence between 0 and 1 (negative for unknown)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the verdict as JSON")

	return cmd
}

func parseSignals(face string, app float64) (*models.StructuralSignals, error) {
	var signals models.StructuralSignals
	switch face {
	case "":
	case "yes", "true":
		hit := true
		signals.FaceWindowHit = &hit
	case "no", "false":
		hit := false
		signals.FaceWindowHit = &hit
	default:
		return nil, fmt.Errorf("invalid --face value %q", face)
	}

	if app > 1 {
		return nil, fmt.Errorf("--app-confidence must be at most 1")
	}
	if app >= 0 {
		signals.AppFootage = &models.AppFootage{Detected: app > 0, Confidence: &app}
	}

	if signals.FaceWindowHit == nil && signals.AppFootage == nil {
		return nil, nil
	}
	return &signals, nil
}

func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && shouldColorize(f)
}
