package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/matsen/retitle/internal/batch"
	"github.com/matsen/retitle/internal/planner"
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// exitWithError reports an error in the active output format and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if jsonOutput {
		outputJSON(ErrorResponse{Error: msg})
	} else {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	}
	os.Exit(code)
}

// ErrorResponse is a JSON error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RunResponse is the JSON payload for preview and commit output.
type RunResponse struct {
	*batch.Run
	Tally Tally `json:"tally"`
}

// Tally counts plans by outcome.
type Tally struct {
	Ready     int `json:"ready"`
	NoChange  int `json:"no_change"`
	Unmatched int `json:"unmatched"`
	Conflict  int `json:"conflict"`
	Errors    int `json:"errors"`
}

func tallyPlans(plans []*planner.Plan) Tally {
	var t Tally
	for _, plan := range plans {
		switch {
		case plan.NoChange:
			t.NoChange++
		case plan.Status == planner.StatusReady:
			t.Ready++
		case plan.Status == planner.StatusUnmatched:
			t.Unmatched++
		case plan.Status == planner.StatusConflict:
			t.Conflict++
		case plan.Status == planner.StatusError:
			t.Errors++
		}
	}
	return t
}

func (t Tally) String() string {
	return fmt.Sprintf("%d ready, %d unchanged, %d unmatched, %d conflicts, %d errors",
		t.Ready, t.NoChange, t.Unmatched, t.Conflict, t.Errors)
}

func runResponse(run *batch.Run) RunResponse {
	return RunResponse{Run: run, Tally: tallyPlans(run.Plans)}
}

// renderPlanTable renders the preview for humans: one row per file with
// its current name, proposed name, and outcome.
func renderPlanTable(root string, plans []*planner.Plan) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "STATUS", "CURRENT", "PROPOSED", "DETAIL"})

	for i, plan := range plans {
		tw.AppendRow(table.Row{
			i + 1,
			statusLabel(plan),
			relPath(root, plan.SourcePath),
			relPath(root, plan.TargetPath),
			detailLabel(plan),
		})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 3, WidthMax: 44},
		{Number: 4, WidthMax: 44},
		{Number: 5, WidthMax: 36},
	})
	return tw.Render()
}

func statusLabel(plan *planner.Plan) string {
	if plan.NoChange {
		return "no-op"
	}
	return string(plan.Status)
}

func detailLabel(plan *planner.Plan) string {
	if plan.Status == planner.StatusReady && !plan.NoChange {
		return ""
	}
	return plan.Reason
}

// relPath shortens a path for display. Paths outside root (never the
// case in practice) fall back to the absolute form.
func relPath(root, path string) string {
	if path == "" {
		return ""
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return rel
}

// renderFailures lists committed plans that ended in an error.
func renderFailures(root string, plans []*planner.Plan) string {
	out := ""
	for _, plan := range plans {
		if plan.Status != planner.StatusError {
			continue
		}
		out += fmt.Sprintf("  %s: %s\n", relPath(root, plan.SourcePath), plan.Reason)
	}
	return out
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
