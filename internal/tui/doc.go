// Package tui is the interactive terminal view of a monitoring session.
//
// The Model renders engine snapshots with a station selector, a cursor
// over entries and per-entry expand/collapse. It never reads engine state
// directly: every change arrives on an engine subscription channel, and
// each delivered Change carries a complete view.
package tui
