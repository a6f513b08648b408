package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/uidx/internal/models"
)

// Mode selects how duplicate groups become redirects.
type Mode int

const (
	// ModeUnfiltered redirects every non-survivor id of a group in one line.
	ModeUnfiltered Mode = iota
	// ModeFiltered redirects only ids without recorded replays, one line per id.
	ModeFiltered
)

func (m Mode) String() string {
	switch m {
	case ModeUnfiltered:
		return "unfiltered"
	case ModeFiltered:
		return "filtered"
	default:
		return ""
	}
}

// ModeFor maps the only_unfinished setting to a [Mode].
func ModeFor(onlyUnfinished bool) Mode {
	if onlyUnfinished {
		return ModeFiltered
	}
	return ModeUnfiltered
}

// RecordChecker reports whether a track has any recorded replay.
type RecordChecker interface {
	HasRecord(ctx context.Context, trackID int) (bool, error)
}

// Resolver computes redirects from a UId table.
type Resolver struct {
	records RecordChecker
}

// NewResolver creates a Resolver. records is only consulted in [ModeFiltered] and may be nil otherwise.
func NewResolver(records RecordChecker) *Resolver {
	return &Resolver{records: records}
}

// FindDuplicates returns the duplicate groups of table, ids ascending.
func (r *Resolver) FindDuplicates(table models.UIdTable) []models.DuplicateGroup {
	return table.Duplicates()
}

// Resolve returns the redirects for every duplicate group of table. The table is not modified.
//
// All replays go to the greatest track id of a group.
func (r *Resolver) Resolve(ctx context.Context, prog chan<- ProgressUpdate, table models.UIdTable, mode Mode) ([]models.Redirect, error) {
	groups := r.FindDuplicates(table)

	switch mode {
	case ModeUnfiltered:
		redirects := make([]models.Redirect, 0, len(groups))
		for _, g := range groups {
			redirects = append(redirects, models.Redirect{
				UId:  g.UId,
				From: append([]int(nil), g.Unreachable()...),
				To:   g.Survivor(),
			})
		}
		return redirects, nil

	case ModeFiltered:
		if r.records == nil {
			return nil, fmt.Errorf("filtered mode requires a record checker")
		}
		return r.resolveUnfinished(ctx, prog, groups)

	default:
		return nil, fmt.Errorf("unknown resolve mode %d", mode)
	}
}

func (r *Resolver) resolveUnfinished(ctx context.Context, prog chan<- ProgressUpdate, groups []models.DuplicateGroup) ([]models.Redirect, error) {
	total := 0
	for _, g := range groups {
		total += len(g.Unreachable())
	}

	var redirects []models.Redirect
	step := 0
	for _, g := range groups {
		survivor := g.Survivor()
		for _, id := range g.Unreachable() {
			step++
			sendProgress(ctx, prog, checkRecordUpdate(step, total, id))

			has, err := r.records.HasRecord(ctx, id)
			if err != nil {
				return redirects, fmt.Errorf("failed to check records of %d: %w", id, err)
			}
			if has {
				continue
			}
			redirects = append(redirects, models.Redirect{UId: g.UId, From: []int{id}, To: survivor})
		}
	}
	return redirects, nil
}
