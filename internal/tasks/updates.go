package tasks

import (
	"context"
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase, 0 when unknown
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchPage Phase = iota
	CheckRecords
)

func (p Phase) String() string {
	switch p {
	case FetchPage:
		return "fetch_page"
	case CheckRecords:
		return "check_records"
	default:
		return ""
	}
}

// PageProgress is the Data of a [FetchPage] update.
type PageProgress struct {
	Records    int
	Cursor     int
	UploadedAt string
}

func pageFetchedUpdate(page int, p PageProgress) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPage,
		Step:    page,
		Message: fmt.Sprintf("Checked until %s", p.UploadedAt),
		Data:    p,
	}
}

func checkRecordUpdate(step, total, trackID int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CheckRecords,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Checking records on %d...", step, total, trackID),
	}
}

// sendProgress delivers u unless prog is nil or ctx is done.
func sendProgress(ctx context.Context, prog chan<- ProgressUpdate, u ProgressUpdate) {
	if prog == nil {
		return
	}
	select {
	case prog <- u:
	case <-ctx.Done():
	}
}
