// Package models defines the domain types shared by the reconciler.
//
// The package contains two categories of types:
//
// 1. Persisted state
//   - [UIdTable] : UId to track ids, in discovery order
//   - [Snapshot] : the table plus the resume cursor, saved after every page
//   - [Run] : one reconcile invocation recorded in the history log
//
// 2. Transfer and derived values
//   - [TrackRecord] and [Page] : decoded track exchange search results
//   - [DuplicateGroup] : ids sharing a UId, sorted ascending
//   - [Redirect] : ids whose replays should move to the survivor id
package models
