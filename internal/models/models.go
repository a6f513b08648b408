// package models defines the data model for the UId reconciler
package models

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// UIdTable maps a track UId to every track id uploaded with it.
//
// Lists are never empty and keep discovery order; numeric order is only applied by [UIdTable.Duplicates].
type UIdTable map[string][]int

// Add appends trackID to the list for uid, creating the list when uid is new.
func (t UIdTable) Add(uid string, trackID int) {
	t[uid] = append(t[uid], trackID)
}

// Merge adds every record of a page in order and returns the id of the last record.
//
// ok is false when records is empty.
func (t UIdTable) Merge(records []TrackRecord) (last int, ok bool) {
	for _, r := range records {
		t.Add(r.UId, r.TrackID)
		last, ok = r.TrackID, true
	}
	return last, ok
}

// TrackCount returns the number of track ids across all UIds.
func (t UIdTable) TrackCount() int {
	n := 0
	for _, ids := range t {
		n += len(ids)
	}
	return n
}

// Clone returns a deep copy of the table.
func (t UIdTable) Clone() UIdTable {
	out := make(UIdTable, len(t))
	for uid, ids := range t {
		out[uid] = append([]int(nil), ids...)
	}
	return out
}

// Duplicates returns a group for every UId with more than one track id.
//
// Groups are ordered by their smallest track id, then by UId.
func (t UIdTable) Duplicates() []DuplicateGroup {
	var groups []DuplicateGroup
	for uid, ids := range t {
		if len(ids) < 2 {
			continue
		}
		sorted := append([]int(nil), ids...)
		sort.Ints(sorted)
		groups = append(groups, DuplicateGroup{UId: uid, TrackIDs: sorted})
	}

	sort.Slice(groups, func(i, j int) bool {
		a, b := groups[i].TrackIDs[0], groups[j].TrackIDs[0]
		if a != b {
			return a < b
		}
		return groups[i].UId < groups[j].UId
	})
	return groups
}

// Snapshot is the persisted reconciler state: the table and the last processed track id.
//
// The JSON field names match the uid_table.json files written by earlier versions.
type Snapshot struct {
	Table       UIdTable `json:"Table"`
	LastTrackID *int     `json:"LastTrackId"`
}

// NewSnapshot returns empty state with no cursor.
func NewSnapshot() *Snapshot {
	return &Snapshot{Table: UIdTable{}}
}

// SetCursor records id as the last processed track id.
func (s *Snapshot) SetCursor(id int) {
	s.LastTrackID = &id
}

// TrackRecord is one track returned by the exchange search endpoint.
type TrackRecord struct {
	TrackID    int
	UId        string
	UploadedAt string
}

// Page is one search response: the records in upload order and whether more pages follow.
type Page struct {
	More    bool
	Results []TrackRecord
}

// DuplicateGroup lists the track ids sharing one UId, sorted ascending.
type DuplicateGroup struct {
	UId      string
	TrackIDs []int
}

// Survivor returns the greatest track id; every replay of the group belongs to it.
func (g DuplicateGroup) Survivor() int {
	return g.TrackIDs[len(g.TrackIDs)-1]
}

// Unreachable returns every id except the survivor, ascending.
func (g DuplicateGroup) Unreachable() []int {
	return g.TrackIDs[:len(g.TrackIDs)-1]
}

// Redirect moves the replays of From to To.
type Redirect struct {
	UId  string `json:"uid"`
	From []int  `json:"from"`
	To   int    `json:"to"`
}

// String renders the redirect as "2, 5 -> 9".
func (r Redirect) String() string {
	from := make([]string, len(r.From))
	for i, id := range r.From {
		from[i] = fmt.Sprintf("%d", id)
	}
	return fmt.Sprintf("%s -> %d", strings.Join(from, ", "), r.To)
}

// RunStatus is the lifecycle state of a recorded run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// Run records a single reconcile invocation.
type Run struct {
	ID          string
	Command     string
	Status      RunStatus
	StartCursor *int
	EndCursor   *int
	Pages       int
	Records     int
	Error       string
	StartedAt   time.Time
	FinishedAt  *time.Time
}

// Duration returns how long the run took, or how long it has been running.
func (r *Run) Duration(now time.Time) time.Duration {
	if r.FinishedAt != nil {
		return r.FinishedAt.Sub(r.StartedAt)
	}
	return now.Sub(r.StartedAt)
}
