// Package realtime is the client for the low-latency gateway: it opens live
// queries that deliver full-replace snapshots of a remote collection and
// performs fast-path pushes. The gateway speaks JSON frames over a single
// websocket; the package hides framing behind the Conn interface so view
// models and tests depend only on channels.
package realtime

import "context"

// Query identifies a live collection query: where it reads from, how the
// server orders it, and optional equality filters.
type Query struct {
	Collection string         `json:"collection"`
	OrderBy    string         `json:"orderBy,omitempty"`
	Descending bool           `json:"descending,omitempty"`
	Filters    map[string]any `json:"filters,omitempty"`
}

// Record is one decoded-but-untyped document in a snapshot.
type Record struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

// Snapshot is the full, ordered materialization of a query's current result
// set. Every delivery replaces the previous one; the gateway never sends
// diffs. Duplicate deliveries of an identical snapshot are possible.
type Snapshot []Record

// CancelFunc tears down a live query. Implementations must make it
// idempotent and must close the snapshot channel after the last delivery.
type CancelFunc func()

// Conn is a connection to the realtime gateway.
type Conn interface {
	// Subscribe opens a live query. Snapshots arrive on the returned
	// channel in delivery order until the CancelFunc is called or the
	// connection closes, after which the channel is closed.
	Subscribe(ctx context.Context, q Query) (<-chan Snapshot, CancelFunc, error)

	// Push appends a record under path and returns the server-assigned key.
	// This is the fast-path write used for alert dispatch.
	Push(ctx context.Context, path string, fields map[string]any) (string, error)

	// Close tears down the connection and all live queries.
	Close() error
}
