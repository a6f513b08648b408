// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/desertthunder/uidx/internal/models"
)

// ErrInjected is returned by fakes configured to fail.
var ErrInjected = errors.New("injected failure")

// FakeExchange is a test double for [services.TrackExchange] backed by an in-memory track list.
//
// Tracks must be in upload order. ListTracks serves PageSize tracks after the cursor, like the real search endpoint.
type FakeExchange struct {
	Tracks   []models.TrackRecord
	PageSize int
	// Recorded holds ids that have at least one replay
	Recorded map[int]bool
	// FailOnCall makes the n-th ListTracks call (1-based) fail; 0 never fails
	FailOnCall int
	// ForceMore reports More=true even on the final page
	ForceMore    bool
	HasRecordErr error
	// HasRecordFailOnCall makes the n-th HasRecord call (1-based) fail with ErrInjected; 0 never fails
	HasRecordFailOnCall int

	ListCalls      int
	HasRecordCalls []int
}

// ListTracks returns the tracks after the given id.
func (f *FakeExchange) ListTracks(ctx context.Context, after *int) (*models.Page, error) {
	f.ListCalls++
	if f.FailOnCall > 0 && f.ListCalls == f.FailOnCall {
		return nil, ErrInjected
	}

	start := 0
	if after != nil {
		idx := f.indexOf(*after)
		if idx < 0 {
			return nil, fmt.Errorf("unknown cursor %d", *after)
		}
		start = idx + 1
	}

	size := f.PageSize
	if size <= 0 {
		size = len(f.Tracks)
	}
	end := min(start+size, len(f.Tracks))

	page := &models.Page{
		More:    end < len(f.Tracks) || f.ForceMore,
		Results: append([]models.TrackRecord{}, f.Tracks[start:end]...),
	}
	return page, nil
}

// UploadDate returns the UploadedAt of a known track.
func (f *FakeExchange) UploadDate(ctx context.Context, trackID int) (string, error) {
	if idx := f.indexOf(trackID); idx >= 0 {
		return f.Tracks[idx].UploadedAt, nil
	}
	return "", fmt.Errorf("track %d not found", trackID)
}

// HasRecord reports membership in Recorded.
func (f *FakeExchange) HasRecord(ctx context.Context, trackID int) (bool, error) {
	f.HasRecordCalls = append(f.HasRecordCalls, trackID)
	if f.HasRecordErr != nil {
		return false, f.HasRecordErr
	}
	if f.HasRecordFailOnCall > 0 && len(f.HasRecordCalls) == f.HasRecordFailOnCall {
		return false, ErrInjected
	}
	return f.Recorded[trackID], nil
}

func (f *FakeExchange) Name() string { return "fake" }

func (f *FakeExchange) indexOf(trackID int) int {
	for i, t := range f.Tracks {
		if t.TrackID == trackID {
			return i
		}
	}
	return -1
}

// MemoryCheckpointer is an in-memory snapshot store that copies on save and load.
type MemoryCheckpointer struct {
	Snapshot *models.Snapshot
	LoadErr  error
	SaveErr  error
	// Saved keeps a copy of every saved snapshot
	Saved []models.Snapshot
}

func (m *MemoryCheckpointer) Load(ctx context.Context) (*models.Snapshot, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	if m.Snapshot == nil {
		return models.NewSnapshot(), nil
	}
	return CopySnapshot(m.Snapshot), nil
}

func (m *MemoryCheckpointer) Save(ctx context.Context, s *models.Snapshot) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Snapshot = CopySnapshot(s)
	m.Saved = append(m.Saved, *CopySnapshot(s))
	return nil
}

// CopySnapshot returns a deep copy of s.
func CopySnapshot(s *models.Snapshot) *models.Snapshot {
	out := &models.Snapshot{Table: s.Table.Clone()}
	if s.LastTrackID != nil {
		out.SetCursor(*s.LastTrackID)
	}
	return out
}

// Tracks builds records with ids and uids from pairs, stamping a synthetic upload date.
func Tracks(pairs ...any) []models.TrackRecord {
	var out []models.TrackRecord
	for i := 0; i+1 < len(pairs); i += 2 {
		id := pairs[i].(int)
		out = append(out, models.TrackRecord{
			TrackID:    id,
			UId:        pairs[i+1].(string),
			UploadedAt: fmt.Sprintf("2008-01-01T00:00:%02d", len(out)%60),
		})
	}
	return out
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

func MustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
}
