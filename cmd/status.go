package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/uidx/internal/models"
	"github.com/desertthunder/uidx/internal/shared"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"
)

// statusSummary describes the saved UId table.
type statusSummary struct {
	Location        string      `json:"location"`
	LastTrackID     *int        `json:"last_track_id"`
	UIds            int         `json:"uids"`
	Tracks          int         `json:"tracks"`
	DuplicateGroups int         `json:"duplicate_groups"`
	Unreachable     int         `json:"unreachable"`
	LastRun         *models.Run `json:"last_run,omitempty"`
}

func summarize(location string, snapshot *models.Snapshot) statusSummary {
	summary := statusSummary{
		Location:    location,
		LastTrackID: snapshot.LastTrackID,
		UIds:        len(snapshot.Table),
		Tracks:      snapshot.Table.TrackCount(),
	}
	for _, g := range snapshot.Table.Duplicates() {
		summary.DuplicateGroups++
		summary.Unreachable += len(g.Unreachable())
	}
	return summary
}

// Status prints a summary of the saved UId table.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(cmd); err != nil {
		return err
	}

	snapshot, err := r.loadSnapshot(ctx)
	if err != nil {
		return err
	}

	summary := summarize(r.snapshots.Location(), snapshot)
	if r.runs != nil {
		runs, err := r.runs.List(ctx, 1)
		if err != nil {
			return err
		}
		if len(runs) > 0 {
			summary.LastRun = runs[0]
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(summary, true)
	}

	r.writePlainHeader("UId Table")
	r.writePlain("Location: %s\n", summary.Location)
	r.writePlain("Last track id: %s\n", shared.FormatCursor(summary.LastTrackID))
	r.writePlain("UIds: %s\n", humanize.Comma(int64(summary.UIds)))
	r.writePlain("Tracks: %s\n", humanize.Comma(int64(summary.Tracks)))
	r.writePlain("Duplicate UIds: %s\n", humanize.Comma(int64(summary.DuplicateGroups)))
	r.writePlain("Unreachable tracks: %s\n", humanize.Comma(int64(summary.Unreachable)))

	if run := summary.LastRun; run != nil {
		r.writePlainln("Last run: %s %s (%s)", run.Command, run.Status, humanize.RelTime(run.StartedAt, r.now(), "ago", "from now"))
	}
	return nil
}

// History lists recorded runs, newest first, or the single run named by --id.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(cmd); err != nil {
		return err
	}

	if r.runs == nil {
		return fmt.Errorf("%w: run history is disabled, set history.enabled = true", shared.ErrServiceUnavailable)
	}

	if id := cmd.String("id"); id != "" {
		run, err := r.runs.Get(ctx, id)
		if err != nil {
			return err
		}
		return r.writePlain("%s\n", r.renderRuns([]*models.Run{run}))
	}

	limit := cmd.Int("limit")
	if limit <= 0 {
		return fmt.Errorf("%w: --limit must be positive", shared.ErrInvalidFlag)
	}

	runs, err := r.runs.List(ctx, int(limit))
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		return r.writePlain("No runs recorded\n")
	}

	return r.writePlain("%s\n", r.renderRuns(runs))
}

func (r *Runner) renderRuns(runs []*models.Run) string {
	now := r.now()

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"ID", "Command", "Status", "From", "To", "Pages", "Records", "Started", "Duration", "Error"})

	for _, run := range runs {
		tbl.AppendRow(table.Row{
			shortID(run.ID),
			run.Command,
			string(run.Status),
			shared.FormatCursor(run.StartCursor),
			shared.FormatCursor(run.EndCursor),
			humanize.Comma(int64(run.Pages)),
			humanize.Comma(int64(run.Records)),
			humanize.RelTime(run.StartedAt, now, "ago", "from now"),
			run.Duration(now).Round(time.Millisecond).String(),
			run.Error,
		})
	}

	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d runs", len(runs))})
	return tbl.Render()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
