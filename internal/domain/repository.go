package domain

import (
	"context"
	"time"
)

// Request is one HTTP call described by a link.
type Request struct {
	Method string
	URL    string
	Body   string
	// Accept is the media type derived from the requested subtype.
	Accept string
	// Rest selects the REST transport; non-REST calls deliver a binary body.
	Rest bool
}

// Response is a completed HTTP exchange.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Transport performs HTTP calls asynchronously. The callback is invoked
// exactly once, from an arbitrary goroutine.
type Transport interface {
	Send(ctx context.Context, req Request, done func(*Response, error))
}

// Invoker issues the call described by a link on behalf of an aggregator.
type Invoker interface {
	Invoke(link Link, agg Aggregator, subType string)
}

// ViewOpener is the UI collaborator that renders a completed model.
type ViewOpener interface {
	OpenListView(agg Aggregator)
	OpenObjectView(agg Aggregator)
}

// StatusObserver is notified after every LogEntry mutation.
type StatusObserver interface {
	UpdateStatus(entry *LogEntry)
}

// StatusObserverFunc adapts a function to StatusObserver.
type StatusObserverFunc func(entry *LogEntry)

func (f StatusObserverFunc) UpdateStatus(entry *LogEntry) { f(entry) }

// StatusObservers fans a status update out to every observer in order.
type StatusObservers []StatusObserver

func (o StatusObservers) UpdateStatus(entry *LogEntry) {
	for _, obs := range o {
		if obs != nil {
			obs.UpdateStatus(entry)
		}
	}
}

// Scheduler runs work on the goroutine that owns aggregator state.
type Scheduler interface {
	Post(fn func())
}

// Clock returns the current time. Tests inject a fixed one.
type Clock func() time.Time

// ArchiveRepository is the durable sink for completed log entries.
type ArchiveRepository interface {
	// WriteBatch upserts a batch of snapshots keyed by entry id.
	WriteBatch(ctx context.Context, entries []EntrySnapshot) error
}

// JournalRepository is the local append-only file log of archived
// snapshots. Writers append to an open segment; readers only ever see
// sealed segments.
type JournalRepository interface {
	ArchiveRepository

	// Write appends one snapshot to the open segment.
	Write(ctx context.Context, entry EntrySnapshot) error

	// Drain hands the snapshots of each sealed segment, oldest first, to
	// handler and removes the segment once handler succeeds. It stops at
	// the first handler error and returns the number of drained snapshots.
	Drain(ctx context.Context, handler func(batch []EntrySnapshot) error) (int, error)
}
