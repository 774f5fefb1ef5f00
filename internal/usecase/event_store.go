package usecase

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/V4T54L/restnav/internal/domain"
)

// EventStore is the append-only log of every call and view. It doubles as
// the response cache: a completed entry is replayed instead of re-fetched.
// Lookups scan from the front, so the earliest match wins.
type EventStore struct {
	mu       sync.RWMutex
	entries  []*domain.LogEntry
	observer domain.StatusObserver
	logger   *slog.Logger
	now      domain.Clock
}

// NewEventStore creates an empty store. observer is notified after every
// mutation and may be nil.
func NewEventStore(observer domain.StatusObserver, logger *slog.Logger) *EventStore {
	return &EventStore{
		observer: observer,
		logger:   logger.With("component", "event_store"),
		now:      time.Now,
	}
}

// Notify forwards an out-of-band entry change to the status observer.
func (s *EventStore) Notify(entry *domain.LogEntry) {
	if s.observer != nil && entry != nil {
		s.observer.UpdateStatus(entry)
	}
}

// Start records a new running call. A failed canonical entry for the same
// request is restarted instead of appending a second one.
func (s *EventStore) Start(rs domain.ResourceSpecification, method, body string, agg domain.Aggregator) *domain.LogEntry {
	now := s.now()

	s.mu.Lock()
	entry := s.findExactLocked(rs)
	if entry != nil && isFailed(entry.State()) && entry.Method == method && entry.Request == body {
		entry.Restart(now)
		s.logger.Debug("restarting failed entry", "url", rs.URL, "id", entry.ID)
	} else {
		entry = domain.NewLogEntry(rs.URL, method, rs.SubType, body, now)
		entry.SetRunning(now)
		s.entries = append(s.entries, entry)
	}
	entry.AddAggregator(agg)
	s.mu.Unlock()

	s.Notify(entry)
	return entry
}

func isFailed(state domain.EventState) bool {
	return state == domain.StateError || state == domain.StateUndefined
}

// Add appends a bare tracking placeholder.
func (s *EventStore) Add(rs domain.ResourceSpecification) *domain.LogEntry {
	entry := domain.NewLogEntry(rs.URL, "", rs.SubType, "", s.now())

	s.mu.Lock()
	s.entries = append(s.entries, entry)
	s.mu.Unlock()

	s.Notify(entry)
	return entry
}

// AddView records an opened view, found later by its title.
func (s *EventStore) AddView(title string, agg domain.Aggregator, panel any) *domain.LogEntry {
	entry := domain.NewViewEntry(title, agg, panel, s.now())

	s.mu.Lock()
	s.entries = append(s.entries, entry)
	s.mu.Unlock()

	s.Notify(entry)
	return entry
}

// End attaches the response to the first running entry for rs.
func (s *EventStore) End(rs domain.ResourceSpecification, response any) *domain.LogEntry {
	return s.end(rs, nil, response)
}

// EndWithBody is End for calls that share a URL but differ by request body.
func (s *EventStore) EndWithBody(rs domain.ResourceSpecification, body string, response any) *domain.LogEntry {
	return s.end(rs, &body, response)
}

// end completes the first running exact match. When only completed matches
// exist the delivery is a duplicate: the first one is marked DUPLICATE and
// returned untouched. Without any match it returns nil.
func (s *EventStore) end(rs domain.ResourceSpecification, body *string, response any) *domain.LogEntry {
	now := s.now()

	s.mu.Lock()
	var entry, done *domain.LogEntry
	for _, e := range s.entries {
		if !rs.MatchesExactly(e) || (body != nil && e.Request != *body) {
			continue
		}
		if e.IsRunning() {
			e.SetResponse(response, now)
			e.SetSuccess(now)
			entry = e
			break
		}
		if done == nil && e.HasResponse() {
			done = e
		}
	}
	if entry == nil && done != nil {
		done.SetDuplicate(now)
		entry = done
	}
	s.mu.Unlock()

	if entry == nil {
		s.logger.Debug("end without matching entry", "url", rs.URL)
		return nil
	}
	s.Notify(entry)
	return entry
}

// Fault marks the first running entry for rs as failed. A missing entry
// means the caller never started the call and is reported as an error.
func (s *EventStore) Fault(rs domain.ResourceSpecification, message string) error {
	now := s.now()

	s.mu.Lock()
	var entry *domain.LogEntry
	for _, e := range s.entries {
		if rs.MatchesExactly(e) && e.IsRunning() {
			entry = e
			break
		}
	}
	if entry != nil {
		entry.SetError(message, now)
	}
	s.mu.Unlock()

	if entry == nil {
		return fmt.Errorf("%w: %s", domain.ErrNoRunningEntry, rs.URL)
	}
	s.Notify(entry)
	return nil
}

// CloseView closes the view entry and resets its aggregator. In-flight
// requests of the view are not cancelled.
func (s *EventStore) CloseView(title string) error {
	entry := s.FindView(title)
	if entry == nil {
		return fmt.Errorf("%w: %q", domain.ErrViewNotFound, title)
	}
	entry.SetClose(s.now())
	if agg := entry.Aggregator(); agg != nil {
		agg.Reset()
	}
	s.Notify(entry)
	return nil
}

// FindBy uses equivalence matching for redundant URL shapes and exact
// matching otherwise.
func (s *EventStore) FindBy(rs domain.ResourceSpecification) *domain.LogEntry {
	if rs.IsRedundant() {
		return s.FindEquivalent(rs)
	}
	return s.FindExact(rs)
}

func (s *EventStore) FindExact(rs domain.ResourceSpecification) *domain.LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findExactLocked(rs)
}

func (s *EventStore) findExactLocked(rs domain.ResourceSpecification) *domain.LogEntry {
	for _, e := range s.entries {
		if rs.MatchesExactly(e) {
			return e
		}
	}
	return nil
}

func (s *EventStore) FindEquivalent(rs domain.ResourceSpecification) *domain.LogEntry {
	return s.findFirst(func(e *domain.LogEntry) bool { return rs.Matches(e) })
}

// FindByBody matches URL, subtype and request body exactly.
func (s *EventStore) FindByBody(rs domain.ResourceSpecification, body string) *domain.LogEntry {
	return s.findFirst(func(e *domain.LogEntry) bool {
		return rs.MatchesExactly(e) && e.Request == body
	})
}

// FindByObject returns the first entry whose payload is a domain object with
// the same instance id.
func (s *EventStore) FindByObject(obj *domain.TObject) *domain.LogEntry {
	if obj == nil || obj.InstanceID == "" {
		return nil
	}
	return s.findFirst(func(e *domain.LogEntry) bool {
		if !e.HasResponse() {
			return false
		}
		logged, ok := e.TransferObject().(*domain.TObject)
		return ok && logged.InstanceID == obj.InstanceID
	})
}

func (s *EventStore) FindByAggregator(agg domain.Aggregator) *domain.LogEntry {
	return s.findFirst(func(e *domain.LogEntry) bool { return e.HasAggregator(agg) })
}

func (s *EventStore) FindAllByAggregator(agg domain.Aggregator) []*domain.LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.LogEntry
	for _, e := range s.entries {
		if e.HasAggregator(agg) {
			out = append(out, e)
		}
	}
	return out
}

// FindView returns the open view with the given title.
func (s *EventStore) FindView(title string) *domain.LogEntry {
	return s.findFirst(func(e *domain.LogEntry) bool {
		return e.Title == title && e.State() == domain.StateView
	})
}

func (s *EventStore) FindByID(id string) *domain.LogEntry {
	return s.findFirst(func(e *domain.LogEntry) bool { return e.ID == id })
}

func (s *EventStore) findFirst(match func(e *domain.LogEntry) bool) *domain.LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if match(e) {
			return e
		}
	}
	return nil
}

// Entries returns the log in insertion order.
func (s *EventStore) Entries() []*domain.LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.LogEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *EventStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Reset clears the whole log.
func (s *EventStore) Reset() {
	s.mu.Lock()
	n := len(s.entries)
	s.entries = nil
	s.mu.Unlock()
	s.logger.Info("log cleared", "entries", n)
}
