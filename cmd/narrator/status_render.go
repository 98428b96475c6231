package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"

	"narrator/internal/api"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 20
	statusIndent     = "  "
)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := statusKindLabel(kind)
	if message != "" {
		statusText = fmt.Sprintf("[%s] %s", statusText, message)
	} else {
		statusText = fmt.Sprintf("[%s]", statusText)
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	return paint(base, statusKindColor(kind), colorize)
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func paint(value, color string, colorize bool) string {
	if !colorize || color == "" {
		return value
	}
	return color + value + ansiReset
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	return []string{paint(line, ansiBlue, colorize), paint(rule, ansiBlue, colorize)}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// jobStatusKind maps a wire status to a display severity.
func jobStatusKind(status string) statusKind {
	switch status {
	case "completed":
		return statusOK
	case "failed":
		return statusError
	case "pending":
		return statusWarn
	default:
		return statusInfo
	}
}

func renderProgress(event api.ProgressEvent, colorize bool) string {
	line := fmt.Sprintf("[%3d%%] %-24s %s", event.ProgressPct, event.CurrentStage, event.Status)
	if event.Error != nil && *event.Error != "" {
		line += ": " + *event.Error
	}
	return paint(line, statusKindColor(jobStatusKind(event.Status)), colorize)
}

func renderJob(out io.Writer, job api.JobResponse, colorize bool) {
	for _, line := range renderSectionHeader("Job "+job.JobID, colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderStatusLine("Status", jobStatusKind(job.Status), job.Status, colorize))
	fmt.Fprintln(out, renderStatusLine("Stage", statusInfo, fmt.Sprintf("%s (%d%%)", job.CurrentStage, job.ProgressPct), colorize))
	if job.Title != "" {
		fmt.Fprintln(out, renderStatusLine("Title", statusInfo, job.Title, colorize))
	}
	if job.Tier != "" || job.TargetLanguage != "" {
		fmt.Fprintln(out, renderStatusLine("Tier", statusInfo, fmt.Sprintf("%s -> %s", job.Tier, job.TargetLanguage), colorize))
	}
	if job.Error != nil {
		fmt.Fprintln(out, renderStatusLine("Error", statusError, *job.Error, colorize))
	}
	if job.UpdatedAt != "" {
		fmt.Fprintln(out, renderStatusLine("Updated", statusInfo, job.UpdatedAt, colorize))
	}
}

func renderDaemonStatus(out io.Writer, status api.DaemonStatus, colorize bool) {
	for _, line := range renderSectionHeader("Daemon", colorize) {
		fmt.Fprintln(out, line)
	}
	if status.Running {
		fmt.Fprintln(out, renderStatusLine("Daemon", statusOK, fmt.Sprintf("running (pid %d)", status.PID), colorize))
	} else {
		fmt.Fprintln(out, renderStatusLine("Daemon", statusError, "not running", colorize))
	}
	fmt.Fprintln(out, renderStatusLine("API", statusInfo, status.Bind, colorize))
	if status.TranscriptCachePath != "" {
		fmt.Fprintln(out, renderStatusLine("Transcript cache", statusInfo, status.TranscriptCachePath, colorize))
	}
	if status.Workflow.LastError != "" {
		fmt.Fprintln(out, renderStatusLine("Last error", statusWarn, status.Workflow.LastError, colorize))
	}

	if len(status.Dependencies) > 0 {
		fmt.Fprintln(out)
		for _, line := range renderSectionHeader("Dependencies", colorize) {
			fmt.Fprintln(out, line)
		}
		for _, dep := range status.Dependencies {
			kind := statusOK
			message := dep.Command
			if !dep.Available {
				kind = statusError
				if dep.Optional {
					kind = statusWarn
				}
				message = dep.Detail
			}
			fmt.Fprintln(out, renderStatusLine(dep.Name, kind, message, colorize))
		}
	}

	fmt.Fprintln(out)
	for _, line := range renderSectionHeader("Jobs", colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderJobCounts(status.Workflow.JobCounts))
	if len(status.Workflow.ActiveRuns) > 0 {
		rows := make([][]string, 0, len(status.Workflow.ActiveRuns))
		for _, run := range status.Workflow.ActiveRuns {
			rows = append(rows, []string{run.JobID, run.StartedAt})
		}
		fmt.Fprintln(out, renderTable([]string{"Active job", "Started"}, rows, nil))
	}
}

// renderJobCounts lists non-zero counts first, ordered by status name.
func renderJobCounts(counts map[string]int) string {
	statuses := make([]string, 0, len(counts))
	for status := range counts {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)
	rows := make([][]string, 0, len(statuses))
	for _, status := range statuses {
		rows = append(rows, []string{status, strconv.Itoa(counts[status])})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i][1] != "0" && rows[j][1] == "0"
	})
	return renderTable([]string{"Status", "Jobs"}, rows, []columnAlignment{alignLeft, alignRight})
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for value := n / unit; value >= unit; value /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
