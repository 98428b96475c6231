package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"narrator/internal/api"
	"narrator/internal/config"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var tier string
	var language string
	var watch bool

	cmd := &cobra.Command{
		Use:   "submit <url>",
		Short: "Submit a source for translation into an audiobook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				job, err := client.Submit(cmd.Context(), api.SubmitRequest{
					URL:            strings.TrimSpace(args[0]),
					Tier:           tier,
					TargetLanguage: language,
				})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Job %s submitted (%s tier, target %s)\n", job.JobID, strings.ToLower(tier), strings.ToLower(language))
				if !watch {
					fmt.Fprintf(out, "Follow progress with: narrator watch %s\n", job.JobID)
					return nil
				}
				return watchJob(cmd.Context(), client, job.JobID, out)
			})
		},
	}
	cmd.Flags().StringVarP(&tier, "tier", "t", "full", "Processing tier: short, medium or full")
	cmd.Flags().StringVarP(&language, "language", "l", "", "Target language code (see `narrator languages`)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Follow progress until the job finishes")
	_ = cmd.MarkFlagRequired("language")
	return cmd
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status [job-id]",
		Short: "Show daemon status, or a job's status when an id is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				out := cmd.OutOrStdout()
				if len(args) == 1 {
					job, err := client.Job(cmd.Context(), strings.TrimSpace(args[0]))
					if err != nil {
						return err
					}
					if asJSON {
						return writeJSON(cmd, job)
					}
					renderJob(out, job, shouldColorize(out))
					return nil
				}
				status, err := client.Status(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, status)
				}
				renderDaemonStatus(out, status, shouldColorize(out))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of formatted text")
	return cmd
}

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <job-id>",
		Short: "Follow a job's progress until it finishes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				return watchJob(cmd.Context(), client, strings.TrimSpace(args[0]), cmd.OutOrStdout())
			})
		},
	}
}

func newFetchCommand(ctx *commandContext) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "fetch <job-id>",
		Short: "Download a finished audiobook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return ctx.withClient(func(client *api.Client) error {
				if output == "-" {
					_, err := client.DownloadAudio(cmd.Context(), id, cmd.OutOrStdout())
					return err
				}
				target := strings.TrimSpace(output)
				if target == "" {
					target = fmt.Sprintf("audiobook-%s.mp3", id)
				}
				target, err := config.ExpandPath(target)
				if err != nil {
					return err
				}
				n, err := downloadTo(cmd.Context(), client, id, target)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s)\n", target, formatBytes(n))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination file (default audiobook-<id>.mp3, - for stdout)")
	return cmd
}

// downloadTo writes into a temporary sibling and renames on success so a
// failed download never leaves a truncated file at target.
func downloadTo(ctx context.Context, client *api.Client, id, target string) (int64, error) {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".narrator-download-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := client.DownloadAudio(ctx, id, tmp)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return 0, err
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return 0, fmt.Errorf("move download into place: %w", err)
	}
	return n, nil
}

func watchJob(ctx context.Context, client *api.Client, id string, out io.Writer) error {
	colorize := shouldColorize(out)
	var last api.ProgressEvent
	err := client.Watch(ctx, id, func(event api.ProgressEvent) error {
		last = event
		fmt.Fprintln(out, renderProgress(event, colorize))
		return nil
	})
	switch {
	case errors.Is(err, api.ErrStreamTimeout):
		return fmt.Errorf("job %s reported no progress before the stream timed out; check `narrator status %s`", id, id)
	case err != nil:
		return err
	}
	if last.Status == "failed" {
		message := "unknown error"
		if last.Error != nil {
			message = *last.Error
		}
		return fmt.Errorf("job %s failed: %s", id, message)
	}
	fmt.Fprintf(out, "Audiobook ready: narrator fetch %s\n", id)
	return nil
}
