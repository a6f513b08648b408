// Package ui implements an interactive terminal browser over duplicate UId groups using bubbletea's Elm architecture.
//
// The TUI has two views:
//  1. [GroupListView] : Browse duplicate groups of the persisted UId table, filterable by UId
//  2. [GroupDetailView] : Inspect one group's track ids, its survivor and the redirect line
//
// From the detail view the unreachable ids of a group can be checked for recorded replays against the exchange,
// which shows the same redirects the filtered report would print.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, c, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
