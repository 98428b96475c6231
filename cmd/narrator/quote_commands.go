package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"narrator/internal/api"
	"narrator/internal/language"
	"narrator/internal/pricing"
)

func newQuoteCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "quote <url>",
		Short: "Fetch source metadata and show per-tier cost estimates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				resp, err := client.Analyze(cmd.Context(), strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, line := range renderSectionHeader(resp.Video.Title, colorize) {
					fmt.Fprintln(out, line)
				}
				if resp.Video.Channel != "" {
					fmt.Fprintln(out, renderStatusLine("Channel", statusInfo, resp.Video.Channel, colorize))
				}
				duration := time.Duration(resp.Video.DurationSeconds) * time.Second
				fmt.Fprintln(out, renderStatusLine("Duration", statusInfo, duration.String(), colorize))
				fmt.Fprintln(out, renderQuotes(resp.Tiers))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newEstimateCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "estimate <duration>",
		Short: "Estimate per-tier costs for a duration (seconds, MM:SS or HH:MM:SS)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			seconds, err := pricing.ParseDuration(args[0])
			if err != nil {
				return err
			}
			tiers := api.FromTierQuotes(pricing.NewCalculator(cfg).Quote(seconds))
			if asJSON {
				return writeJSON(cmd, tiers)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderQuotes(tiers))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

func renderQuotes(tiers []api.TierCost) string {
	rows := make([][]string, 0, len(tiers))
	for _, tier := range tiers {
		rows = append(rows, []string{
			tier.Tier,
			fmt.Sprintf("%.1f", tier.DurationMinutes),
			pricing.FormatUSD(tier.TranscriptionCost),
			pricing.FormatUSD(tier.TranslationCost),
			pricing.FormatUSD(tier.TTSCost),
			pricing.FormatUSD(tier.TotalCost),
		})
	}
	return renderTable(
		[]string{"Tier", "Minutes", "Transcription", "Translation", "Speech", "Total"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
	)
}

func newLanguagesCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:         "languages",
		Short:       "List supported target languages",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			langs := language.Supported()
			if asJSON {
				return writeJSON(cmd, api.FromLanguages(langs))
			}
			writeLanguages(cmd.OutOrStdout(), langs)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

func writeLanguages(out io.Writer, langs []language.Language) {
	rows := make([][]string, 0, len(langs))
	for _, lang := range langs {
		rows = append(rows, []string{lang.Code, lang.Name, lang.NativeName})
	}
	fmt.Fprintln(out, renderTable([]string{"Code", "Language", "Native name"}, rows, nil))
}
