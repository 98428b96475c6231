package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"narrator/internal/transcriptcache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the transcript cache",
	}

	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCachePruneCommand(ctx))

	return cacheCmd
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show transcript cache usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := openTranscriptCache(ctx)
			if err != nil {
				return err
			}
			defer cache.Close()

			stats, err := cache.Stats(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Path:    %s\n", cache.Path())
			fmt.Fprintf(out, "Entries: %d\n", stats.Entries)
			fmt.Fprintf(out, "Hits:    %d\n", stats.Hits)
			return nil
		},
	}
}

func newCachePruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove cached transcripts older than a cutoff",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan < 0 {
				return fmt.Errorf("--older-than must not be negative")
			}
			cache, err := openTranscriptCache(ctx)
			if err != nil {
				return err
			}
			defer cache.Close()

			removed, err := cache.Prune(cmd.Context(), time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			if removed == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No cache entries pruned")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d cached transcript(s)\n", removed)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Remove entries created before now minus this duration")
	return cmd
}

func openTranscriptCache(ctx *commandContext) (*transcriptcache.Cache, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	cache, err := transcriptcache.Open(cfg.TranscriptCachePath())
	if err != nil {
		return nil, fmt.Errorf("open transcript cache: %w", err)
	}
	return cache, nil
}
