// Package services defines the [TrackExchange] interface for the track exchange API and implements it over HTTP.
//
// # Endpoints
//
// Every capability is a variation of the track search endpoint (GET /api/tracks):
//   - [ExchangeService.ListTracks] : TrackId, UId and UploadedAt ordered by ascending upload date, after a cursor
//   - [ExchangeService.UploadDate] : UploadedAt of a single track
//   - [ExchangeService.HasRecord] : whether a track has at least one recorded replay (inhasrecord=1)
//
// # Decoding
//
// Responses decode into a typed shape and are validated before leaving the package.
// A body that is missing "More", "Results" or a field the call asked for fails with [shared.ErrMalformedResponse]
// instead of surfacing later as a zero value.
//
// # Error Handling
//
//   - [shared.ErrAPIRequest] : transport failure or non-2xx status
//   - [shared.ErrMalformedResponse] : undecodable or incomplete body
//   - [shared.ErrTrackNotFound] : single-track lookup returned no results
//
// Requests are paced by a [rate.Limiter] when a rate limit is configured.
// No per-request timeout is applied; callers bound requests through their context.
package services
