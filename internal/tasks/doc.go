// Package tasks implements the reconcile operations: incremental fetching of the UId table and duplicate resolution.
//
// # Fetching
//
// [Fetcher] is a checkpoint/restart state machine with two states, [Idle] and [Fetching].
// [Fetcher.Run] pages through a [Paginator] starting after the snapshot cursor:
//
//  1. request a page after the current cursor
//  2. stop on an empty page, even if the exchange claims there is more
//  3. append every record's track id to its UId and move the cursor to that record
//  4. save the snapshot through the [Checkpointer] before requesting the next page
//  5. continue while the page reported more results
//
// Any paginator or checkpointer error aborts the run without further saves, so a crash loses at most the page in flight
// and the next run resumes from the last saved cursor.
//
// # Resolving
//
// [Resolver] turns duplicate groups into redirects. The survivor of a group is always its greatest track id.
// In [ModeUnfiltered] each group yields one redirect for all its other ids.
// In [ModeFiltered] each other id is checked with a [RecordChecker] and only ids without any recorded replay are redirected.
//
// # Progress Reporting
//
// Operations send [ProgressUpdate] values on an optional channel. Sends block until received or the context ends,
// so a reader sees exactly one update per page.
package tasks
