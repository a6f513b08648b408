package tasks

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/desertthunder/uidx/internal/models"
	"github.com/desertthunder/uidx/internal/repositories"
	"github.com/desertthunder/uidx/internal/shared"
	tu "github.com/desertthunder/uidx/internal/testing"
)

func remoteTracks() []models.TrackRecord {
	return tu.Tracks(
		1, "A",
		2, "B",
		3, "A",
		4, "C",
		5, "B",
		6, "D",
		7, "A",
	)
}

func TestFetcher_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("fresh run merges every page", func(t *testing.T) {
		exchange := &tu.FakeExchange{Tracks: remoteTracks(), PageSize: 3}
		store := &tu.MemoryCheckpointer{}
		fetcher := NewFetcher(exchange, store, nil)

		snapshot := models.NewSnapshot()
		result, err := fetcher.Run(ctx, nil, snapshot)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		want := models.UIdTable{"A": {1, 3, 7}, "B": {2, 5}, "C": {4}, "D": {6}}
		if !reflect.DeepEqual(snapshot.Table, want) {
			t.Errorf("table = %v, want %v", snapshot.Table, want)
		}
		if result.Pages != 3 || result.Records != 7 {
			t.Errorf("result = %+v, want 3 pages and 7 records", result)
		}
		if result.StartCursor != nil {
			t.Errorf("expected nil start cursor, got %d", *result.StartCursor)
		}
		if *result.EndCursor != 7 {
			t.Errorf("expected end cursor 7, got %d", *result.EndCursor)
		}
		if fetcher.State() != Idle {
			t.Errorf("expected idle after run, got %s", fetcher.State())
		}
	})

	t.Run("checkpoint after every page", func(t *testing.T) {
		exchange := &tu.FakeExchange{Tracks: remoteTracks(), PageSize: 3}
		store := &tu.MemoryCheckpointer{}

		if _, err := NewFetcher(exchange, store, nil).Run(ctx, nil, models.NewSnapshot()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(store.Saved) != 3 {
			t.Fatalf("expected 3 saves, got %d", len(store.Saved))
		}
		cursors := []int{*store.Saved[0].LastTrackID, *store.Saved[1].LastTrackID, *store.Saved[2].LastTrackID}
		if !reflect.DeepEqual(cursors, []int{3, 6, 7}) {
			t.Errorf("saved cursors = %v, want [3 6 7]", cursors)
		}
		if !reflect.DeepEqual(store.Saved[0].Table, models.UIdTable{"A": {1, 3}, "B": {2}}) {
			t.Errorf("first checkpoint table = %v", store.Saved[0].Table)
		}
	})

	t.Run("cursor is the last record of the page", func(t *testing.T) {
		exchange := &tu.FakeExchange{Tracks: tu.Tracks(10, "A", 4, "B", 8, "C"), PageSize: 3}
		snapshot := models.NewSnapshot()

		if _, err := NewFetcher(exchange, &tu.MemoryCheckpointer{}, nil).Run(ctx, nil, snapshot); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if *snapshot.LastTrackID != 8 {
			t.Errorf("cursor = %d, want 8", *snapshot.LastTrackID)
		}
	})

	t.Run("appends to existing UIds in discovery order", func(t *testing.T) {
		exchange := &tu.FakeExchange{Tracks: tu.Tracks(50, "Y", 42, "X", 3, "X")}
		snapshot := &models.Snapshot{Table: models.UIdTable{"X": {10}, "Y": {60}}}
		snapshot.SetCursor(50)

		if _, err := NewFetcher(exchange, &tu.MemoryCheckpointer{}, nil).Run(ctx, nil, snapshot); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		want := models.UIdTable{"X": {10, 42, 3}, "Y": {60}}
		if !reflect.DeepEqual(snapshot.Table, want) {
			t.Errorf("table = %v, want %v", snapshot.Table, want)
		}
	})

	t.Run("empty page stops even when more is reported", func(t *testing.T) {
		exchange := &tu.FakeExchange{Tracks: remoteTracks(), PageSize: 4, ForceMore: true}
		store := &tu.MemoryCheckpointer{}

		result, err := NewFetcher(exchange, store, nil).Run(ctx, nil, models.NewSnapshot())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if exchange.ListCalls != 3 {
			t.Errorf("expected 3 list calls, got %d", exchange.ListCalls)
		}
		if result.Pages != 2 || len(store.Saved) != 2 {
			t.Errorf("expected 2 pages saved, got %d pages and %d saves", result.Pages, len(store.Saved))
		}
	})

	t.Run("no new data saves nothing", func(t *testing.T) {
		exchange := &tu.FakeExchange{Tracks: remoteTracks()}
		store := &tu.MemoryCheckpointer{}
		snapshot := &models.Snapshot{Table: models.UIdTable{"A": {7}}}
		snapshot.SetCursor(7)

		result, err := NewFetcher(exchange, store, nil).Run(ctx, nil, snapshot)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.Pages != 0 || len(store.Saved) != 0 {
			t.Errorf("expected no pages and no saves, got %+v and %d saves", result, len(store.Saved))
		}
		if *result.EndCursor != 7 {
			t.Errorf("expected end cursor to stay at 7, got %d", *result.EndCursor)
		}
	})

	t.Run("paginator failure aborts without saving", func(t *testing.T) {
		exchange := &tu.FakeExchange{Tracks: remoteTracks(), PageSize: 3, FailOnCall: 1}
		store := &tu.MemoryCheckpointer{}

		_, err := NewFetcher(exchange, store, nil).Run(ctx, nil, models.NewSnapshot())
		if !errors.Is(err, tu.ErrInjected) {
			t.Fatalf("expected injected error, got %v", err)
		}
		if len(store.Saved) != 0 {
			t.Errorf("expected no saves, got %d", len(store.Saved))
		}
	})

	t.Run("save failure aborts before the next page", func(t *testing.T) {
		exchange := &tu.FakeExchange{Tracks: remoteTracks(), PageSize: 3}
		store := &tu.MemoryCheckpointer{SaveErr: errors.New("disk full")}

		result, err := NewFetcher(exchange, store, nil).Run(ctx, nil, models.NewSnapshot())
		if err == nil || !strings.Contains(err.Error(), "disk full") {
			t.Fatalf("expected save error, got %v", err)
		}
		if exchange.ListCalls != 1 {
			t.Errorf("expected a single list call, got %d", exchange.ListCalls)
		}
		if result.Pages != 0 {
			t.Errorf("expected no completed pages, got %d", result.Pages)
		}
	})

	t.Run("rejects a run while fetching", func(t *testing.T) {
		fetcher := NewFetcher(&tu.FakeExchange{}, &tu.MemoryCheckpointer{}, nil)
		fetcher.state = Fetching

		_, err := fetcher.Run(ctx, nil, models.NewSnapshot())
		if !errors.Is(err, shared.ErrFetchInProgress) {
			t.Errorf("expected ErrFetchInProgress, got %v", err)
		}
	})

	t.Run("returns to idle after failure", func(t *testing.T) {
		exchange := &tu.FakeExchange{Tracks: remoteTracks(), FailOnCall: 1}
		fetcher := NewFetcher(exchange, &tu.MemoryCheckpointer{}, nil)

		if _, err := fetcher.Run(ctx, nil, models.NewSnapshot()); err == nil {
			t.Fatal("expected error")
		}
		if fetcher.State() != Idle {
			t.Errorf("expected idle after failure, got %s", fetcher.State())
		}
	})

	t.Run("one progress update per page", func(t *testing.T) {
		exchange := &tu.FakeExchange{Tracks: remoteTracks(), PageSize: 3}
		prog := make(chan ProgressUpdate, 10)

		if _, err := NewFetcher(exchange, &tu.MemoryCheckpointer{}, nil).Run(ctx, prog, models.NewSnapshot()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		close(prog)

		var updates []ProgressUpdate
		for u := range prog {
			updates = append(updates, u)
		}
		if len(updates) != 3 {
			t.Fatalf("expected 3 updates, got %d", len(updates))
		}

		last := updates[2]
		if last.Phase != FetchPage || last.Step != 3 {
			t.Errorf("unexpected update %+v", last)
		}
		if last.Message != "Checked until "+remoteTracks()[6].UploadedAt {
			t.Errorf("unexpected message %q", last.Message)
		}
		if data, ok := last.Data.(PageProgress); !ok || data.Cursor != 7 || data.Records != 1 {
			t.Errorf("unexpected data %+v", last.Data)
		}
	})
}

func TestFetcher_Resume(t *testing.T) {
	ctx := context.Background()

	t.Run("interrupted run resumes to the same table", func(t *testing.T) {
		for k := 1; k <= 3; k++ {
			uninterrupted := &tu.FakeExchange{Tracks: remoteTracks(), PageSize: 2}
			want, _, err := NewFetcher(uninterrupted, &tu.MemoryCheckpointer{}, nil).Resume(ctx, nil)
			if err != nil {
				t.Fatalf("uninterrupted run failed: %v", err)
			}

			store := &tu.MemoryCheckpointer{}
			crashing := &tu.FakeExchange{Tracks: remoteTracks(), PageSize: 2, FailOnCall: k + 1}
			if _, _, err := NewFetcher(crashing, store, nil).Resume(ctx, nil); !errors.Is(err, tu.ErrInjected) {
				t.Fatalf("k=%d: expected injected failure, got %v", k, err)
			}
			if len(store.Saved) != k {
				t.Fatalf("k=%d: expected %d checkpoints before the crash, got %d", k, k, len(store.Saved))
			}

			resumed := &tu.FakeExchange{Tracks: remoteTracks(), PageSize: 2}
			got, _, err := NewFetcher(resumed, store, nil).Resume(ctx, nil)
			if err != nil {
				t.Fatalf("k=%d: resumed run failed: %v", k, err)
			}

			if !reflect.DeepEqual(got.Table, want.Table) {
				t.Errorf("k=%d: resumed table = %v, want %v", k, got.Table, want.Table)
			}
			if !reflect.DeepEqual(store.Snapshot, want) {
				t.Errorf("k=%d: stored snapshot = %+v, want %+v", k, store.Snapshot, want)
			}
		}
	})

	t.Run("load failure", func(t *testing.T) {
		store := &tu.MemoryCheckpointer{LoadErr: shared.ErrMalformedSnapshot}
		_, _, err := NewFetcher(&tu.FakeExchange{}, store, nil).Resume(ctx, nil)
		if !errors.Is(err, shared.ErrMalformedSnapshot) {
			t.Errorf("expected ErrMalformedSnapshot, got %v", err)
		}
	})

	t.Run("second run leaves the snapshot file unchanged", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "uid_table.json")
		store := repositories.NewFileSnapshotRepository(path)
		exchange := &tu.FakeExchange{Tracks: remoteTracks(), PageSize: 3}

		if _, _, err := NewFetcher(exchange, store, nil).Resume(ctx, nil); err != nil {
			t.Fatalf("first run failed: %v", err)
		}
		before := tu.MustReadFile(t, path)

		if _, _, err := NewFetcher(exchange, store, nil).Resume(ctx, nil); err != nil {
			t.Fatalf("second run failed: %v", err)
		}
		if after := tu.MustReadFile(t, path); after != before {
			t.Errorf("snapshot changed:\n%s\nwas\n%s", after, before)
		}
	})
}
