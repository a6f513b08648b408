// package services defines interface TrackExchange for interacting with the track exchange HTTP API
package services

import (
	"context"

	"github.com/desertthunder/uidx/internal/models"
)

// TrackExchange defines the remote capabilities the reconciler depends on.
type TrackExchange interface {
	// ListTracks returns the next page of tracks uploaded after the track with id after.
	// A nil after starts from the oldest upload.
	ListTracks(ctx context.Context, after *int) (*models.Page, error)

	// UploadDate returns the upload timestamp of a single track.
	UploadDate(ctx context.Context, trackID int) (string, error)

	// HasRecord reports whether at least one replay has been recorded on the track.
	HasRecord(ctx context.Context, trackID int) (bool, error)

	// Name returns the name of the exchange
	Name() string
}
