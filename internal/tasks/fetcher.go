// package tasks implements the incremental UId table fetch and duplicate resolution.
package tasks

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/uidx/internal/models"
	"github.com/desertthunder/uidx/internal/shared"
)

// Paginator lists tracks in ascending upload order after a cursor.
type Paginator interface {
	ListTracks(ctx context.Context, after *int) (*models.Page, error)
}

// Checkpointer persists the snapshot between pages.
type Checkpointer interface {
	Load(ctx context.Context) (*models.Snapshot, error)
	Save(ctx context.Context, s *models.Snapshot) error
}

// State is the fetcher lifecycle state.
type State int

const (
	Idle State = iota
	Fetching
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Fetching:
		return "fetching"
	default:
		return ""
	}
}

// FetchResult summarizes one [Fetcher.Run].
type FetchResult struct {
	Pages       int  // Pages merged and saved
	Records     int  // Records merged
	StartCursor *int // Cursor the run resumed from
	EndCursor   *int // Cursor after the last saved page
}

// Fetcher incrementally grows a snapshot from a [Paginator], saving after every page.
type Fetcher struct {
	pages  Paginator
	store  Checkpointer
	logger *log.Logger

	mu    sync.Mutex
	state State
}

// NewFetcher creates an idle Fetcher. A nil logger discards log output.
func NewFetcher(pages Paginator, store Checkpointer, logger *log.Logger) *Fetcher {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Fetcher{pages: pages, store: store, logger: logger}
}

// State returns the current lifecycle state.
func (f *Fetcher) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Fetcher) transition(from, to State) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != from {
		return fmt.Errorf("%w: fetcher is %s", shared.ErrFetchInProgress, f.state)
	}
	f.state = to
	return nil
}

// Run merges every page after snapshot's cursor into snapshot, mutating it in place.
//
// The snapshot is saved after each non-empty page. On error the snapshot holds the page that failed to save (if any),
// while the store keeps the last successful checkpoint.
func (f *Fetcher) Run(ctx context.Context, prog chan<- ProgressUpdate, snapshot *models.Snapshot) (*FetchResult, error) {
	if err := f.transition(Idle, Fetching); err != nil {
		return nil, err
	}
	defer f.transition(Fetching, Idle)

	if snapshot.Table == nil {
		snapshot.Table = models.UIdTable{}
	}

	result := &FetchResult{StartCursor: copyCursor(snapshot.LastTrackID), EndCursor: copyCursor(snapshot.LastTrackID)}

	for more := true; more; {
		page, err := f.pages.ListTracks(ctx, snapshot.LastTrackID)
		if err != nil {
			return result, fmt.Errorf("failed to fetch page after %s: %w", shared.FormatCursor(snapshot.LastTrackID), err)
		}

		more = page.More
		if len(page.Results) == 0 {
			if more {
				f.logger.Warn("empty page while more results were reported, stopping", "cursor", shared.FormatCursor(snapshot.LastTrackID))
			}
			break
		}

		last, _ := snapshot.Table.Merge(page.Results)
		snapshot.SetCursor(last)

		if err := f.store.Save(ctx, snapshot); err != nil {
			return result, fmt.Errorf("failed to save checkpoint at %d: %w", last, err)
		}

		result.Pages++
		result.Records += len(page.Results)
		result.EndCursor = copyCursor(snapshot.LastTrackID)

		f.logger.Debug("checkpoint saved", "page", result.Pages, "records", len(page.Results), "cursor", last)

		sendProgress(ctx, prog, pageFetchedUpdate(result.Pages, PageProgress{
			Records:    len(page.Results),
			Cursor:     last,
			UploadedAt: page.Results[len(page.Results)-1].UploadedAt,
		}))
	}

	return result, nil
}

// Resume loads the stored snapshot and runs the fetcher over it.
func (f *Fetcher) Resume(ctx context.Context, prog chan<- ProgressUpdate) (*models.Snapshot, *FetchResult, error) {
	snapshot, err := f.store.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	result, err := f.Run(ctx, prog, snapshot)
	return snapshot, result, err
}

func copyCursor(id *int) *int {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
