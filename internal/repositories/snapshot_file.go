package repositories

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/uidx/internal/models"
	"github.com/desertthunder/uidx/internal/shared"
)

// FileSnapshotRepository stores the snapshot as a single JSON document.
type FileSnapshotRepository struct {
	path string
}

// NewFileSnapshotRepository creates a repository for the document at path.
func NewFileSnapshotRepository(path string) *FileSnapshotRepository {
	return &FileSnapshotRepository{path: path}
}

func (r *FileSnapshotRepository) Location() string {
	return r.path
}

// Load reads the snapshot document. A missing file yields an empty snapshot.
//
// Both top-level fields must be present and every UId must map to at least one track id.
func (r *FileSnapshotRepository) Load(ctx context.Context) (*models.Snapshot, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return models.NewSnapshot(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	return decodeSnapshot(data)
}

func decodeSnapshot(data []byte) (*models.Snapshot, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrMalformedSnapshot, err)
	}

	rawTable, ok := doc["Table"]
	if !ok {
		return nil, fmt.Errorf("%w: missing Table", shared.ErrMalformedSnapshot)
	}
	rawCursor, ok := doc["LastTrackId"]
	if !ok {
		return nil, fmt.Errorf("%w: missing LastTrackId", shared.ErrMalformedSnapshot)
	}

	snapshot := models.NewSnapshot()
	if err := json.Unmarshal(rawTable, &snapshot.Table); err != nil {
		return nil, fmt.Errorf("%w: Table: %w", shared.ErrMalformedSnapshot, err)
	}
	if snapshot.Table == nil {
		snapshot.Table = models.UIdTable{}
	}
	if err := json.Unmarshal(rawCursor, &snapshot.LastTrackID); err != nil {
		return nil, fmt.Errorf("%w: LastTrackId: %w", shared.ErrMalformedSnapshot, err)
	}

	for uid, ids := range snapshot.Table {
		if len(ids) == 0 {
			return nil, fmt.Errorf("%w: UId %q has no track ids", shared.ErrMalformedSnapshot, uid)
		}
	}
	return snapshot, nil
}

// Save writes the whole document to a temporary file next to the target and renames it into place.
func (r *FileSnapshotRepository) Save(ctx context.Context, s *models.Snapshot) error {
	data, err := encodeSnapshot(s)
	if err != nil {
		return err
	}

	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}

// encodeSnapshot renders the document with four-space indentation, as earlier tools wrote it.
func encodeSnapshot(s *models.Snapshot) ([]byte, error) {
	doc := *s
	if doc.Table == nil {
		doc.Table = models.UIdTable{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
