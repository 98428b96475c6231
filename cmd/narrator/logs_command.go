package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"narrator/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var jobID string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the daemon log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := cfg.LogFilePath()
			out := cmd.OutOrStdout()
			emit := func(line string) {
				if logs.Match(line, jobID) {
					fmt.Fprintln(out, line)
				}
			}

			limit := lines
			if jobID != "" && limit > 0 {
				// The job filter runs after the tail.
				limit *= 20
			}
			tail, offset, err := logs.Last(path, limit)
			if err != nil {
				return err
			}
			if jobID != "" {
				tail = lastMatching(tail, jobID, lines)
			}
			for _, line := range tail {
				fmt.Fprintln(out, line)
			}
			if !follow {
				return nil
			}
			err = logs.Follow(cmd.Context(), path, offset, logs.DefaultPollInterval, emit)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines until interrupted")
	cmd.Flags().StringVar(&jobID, "job", "", "Only show records for this job id")
	return cmd
}

func lastMatching(lines []string, jobID string, limit int) []string {
	matched := make([]string, 0, len(lines))
	for _, line := range lines {
		if logs.Match(line, jobID) {
			matched = append(matched, line)
		}
	}
	if limit > 0 && len(matched) > limit {
		matched = matched[len(matched)-limit:]
	}
	return matched
}
