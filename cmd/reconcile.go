package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/uidx/internal/formatter"
	"github.com/desertthunder/uidx/internal/models"
	"github.com/desertthunder/uidx/internal/shared"
	"github.com/desertthunder/uidx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// reportOptions resolves the redirect mode and output format from config and flags.
type reportOptions struct {
	mode   tasks.Mode
	format formatter.Format
	output string
}

func (r *Runner) reportOptions(cmd *cli.Command) (reportOptions, error) {
	onlyUnfinished := r.config.Report.OnlyUnfinished
	if cmd.IsSet("only-unfinished") {
		onlyUnfinished = cmd.Bool("only-unfinished")
	}

	name := r.config.Report.Format
	if cmd.IsSet("format") {
		name = cmd.String("format")
	}
	format, err := formatter.ParseFormat(name)
	if err != nil {
		return reportOptions{}, err
	}

	return reportOptions{mode: tasks.ModeFor(onlyUnfinished), format: format, output: cmd.String("output")}, nil
}

// Run brings the UId table up to date and prints the redirects.
func (r *Runner) Run(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(cmd); err != nil {
		return err
	}

	opts, err := r.reportOptions(cmd)
	if err != nil {
		return err
	}

	snapshot, err := r.sync(ctx, cmd.Name)
	if err != nil {
		return err
	}

	return r.report(ctx, snapshot.Table, opts)
}

// Sync brings the UId table up to date.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(cmd); err != nil {
		return err
	}

	_, err := r.sync(ctx, cmd.Name)
	return err
}

// Report prints redirects for the saved UId table.
func (r *Runner) Report(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(cmd); err != nil {
		return err
	}

	opts, err := r.reportOptions(cmd)
	if err != nil {
		return err
	}

	snapshot, err := r.loadSnapshot(ctx)
	if err != nil {
		return err
	}

	return r.report(ctx, snapshot.Table, opts)
}

func (r *Runner) loadSnapshot(ctx context.Context) (*models.Snapshot, error) {
	snapshot, err := r.snapshots.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot from %s: %w", r.snapshots.Location(), err)
	}

	r.logger.Info("snapshot loaded",
		"location", r.snapshots.Location(),
		"exchange", r.exchange.Name(),
		"uids", len(snapshot.Table),
		"cursor", shared.FormatCursor(snapshot.LastTrackID),
	)
	return snapshot, nil
}

// sync loads the snapshot, announces the starting point and fetches every new page.
func (r *Runner) sync(ctx context.Context, command string) (*models.Snapshot, error) {
	snapshot, err := r.loadSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	if err := r.writeStart(ctx, snapshot.LastTrackID); err != nil {
		return nil, err
	}

	run := r.beginRun(ctx, command, snapshot.LastTrackID)

	progressCh := make(chan tasks.ProgressUpdate)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			r.writePlain("%s\n", update.Message)
		}
	}()

	fetcher := tasks.NewFetcher(r.exchange, r.snapshots, shared.WithLogger(r.logger, "command", command))
	result, err := fetcher.Run(ctx, progressCh, snapshot)
	close(progressCh)
	<-done

	r.finishRun(ctx, run, result, err)
	if err != nil {
		return nil, err
	}

	r.logger.Info("fetch complete", "pages", result.Pages, "records", result.Records, "cursor", shared.FormatCursor(result.EndCursor))
	r.writePlain("UId table now up to date\n")
	return snapshot, nil
}

func (r *Runner) writeStart(ctx context.Context, cursor *int) error {
	if cursor == nil {
		return r.writePlain("Starting search from the beginning\n")
	}

	uploadedAt, err := r.exchange.UploadDate(ctx, *cursor)
	if err != nil {
		return fmt.Errorf("failed to look up upload date of track %d: %w", *cursor, err)
	}
	return r.writePlain("Starting search from %s\n", uploadedAt)
}

// report resolves redirects for table and writes them to the runner output or opts.output.
func (r *Runner) report(ctx context.Context, table models.UIdTable, opts reportOptions) error {
	var progressCh chan tasks.ProgressUpdate
	done := make(chan struct{})
	if opts.mode == tasks.ModeFiltered {
		progressCh = make(chan tasks.ProgressUpdate)
		go func() {
			defer close(done)
			for update := range progressCh {
				r.logger.Debug(update.Message)
			}
		}()
	} else {
		close(done)
	}

	r.logger.Info("resolving duplicates", "mode", opts.mode, "format", opts.format)
	redirects, err := tasks.NewResolver(r.exchange).Resolve(ctx, progressCh, table, opts.mode)
	if progressCh != nil {
		close(progressCh)
	}
	<-done
	if err != nil {
		if len(redirects) > 0 {
			r.logger.Warn("writing partial report", "redirects", len(redirects), "error", err)
			if werr := r.writeReport(redirects, opts); werr != nil {
				r.logger.Error("failed to write partial report", "error", werr)
			}
		}
		return err
	}

	return r.writeReport(redirects, opts)
}

func (r *Runner) writeReport(redirects []models.Redirect, opts reportOptions) error {
	if opts.output != "" {
		if err := formatter.WriteReportFile(opts.output, redirects, opts.format); err != nil {
			return err
		}
		r.logger.Info("report written", "path", opts.output, "redirects", len(redirects))
		return nil
	}

	return formatter.WriteReport(r.output, redirects, opts.format)
}
