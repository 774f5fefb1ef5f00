package domain

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventState is the lifecycle state of a LogEntry.
type EventState int

const (
	StateInitial EventState = iota
	StateRunning
	StateSuccess
	StateCached
	StateError
	StateView
	StateClosed
	StateDuplicate
	StateUndefined
)

var stateNames = [...]string{
	StateInitial:   "INITIAL",
	StateRunning:   "RUNNING",
	StateSuccess:   "SUCCESS",
	StateCached:    "CACHED",
	StateError:     "ERROR",
	StateView:      "VIEW",
	StateClosed:    "CLOSED",
	StateDuplicate: "DUPLICATE",
	StateUndefined: "UNDEFINED",
}

func (s EventState) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "UNKNOWN"
}

// ParseEventState is the inverse of String. Unknown names report false.
func ParseEventState(name string) (EventState, bool) {
	for i, n := range stateNames {
		if n == name {
			return EventState(i), true
		}
	}
	return StateInitial, false
}

// LogEntry records one issued (or replayed) call, or one opened view.
// Identity fields are immutable after construction; everything else is
// guarded by the entry's mutex.
type LogEntry struct {
	ID      string
	URL     string
	Method  string
	SubType string
	Request string
	Title   string

	mu          sync.Mutex
	state       EventState
	fault       string
	response    string
	blob        []byte
	createdAt   time.Time
	updatedAt   time.Time
	cacheHits   int
	panel       any
	obj         TransferObject
	decodeErr   error
	decoded     bool
	aggregators []Aggregator
}

// NewLogEntry creates an entry in the INITIAL state.
func NewLogEntry(url, method, subType, request string, now time.Time) *LogEntry {
	return &LogEntry{
		ID:        uuid.NewString(),
		URL:       url,
		Method:    method,
		SubType:   subType,
		Request:   request,
		state:     StateInitial,
		createdAt: now,
		updatedAt: now,
	}
}

// NewViewEntry creates an entry for an opened view.
func NewViewEntry(title string, aggregator Aggregator, panel any, now time.Time) *LogEntry {
	e := NewLogEntry("", "", "", "", now)
	e.Title = title
	e.state = StateView
	e.panel = panel
	if aggregator != nil {
		e.aggregators = []Aggregator{aggregator}
	}
	return e
}

func (e *LogEntry) State() EventState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *LogEntry) Fault() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fault
}

func (e *LogEntry) CreatedAt() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.createdAt
}

func (e *LogEntry) UpdatedAt() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.updatedAt
}

// Duration is the time between creation and the last transition.
func (e *LogEntry) Duration() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.updatedAt.Sub(e.createdAt)
}

func (e *LogEntry) CacheHits() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cacheHits
}

func (e *LogEntry) Panel() any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.panel
}

// IsView reports whether the entry represents a UI view rather than a call.
func (e *LogEntry) IsView() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.panel != nil || e.state == StateView || (e.Title != "" && e.URL == "")
}

func (e *LogEntry) IsRunning() bool {
	return e.State() == StateRunning
}

// HasResponse reports whether a string or binary response is attached.
func (e *LogEntry) HasResponse() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.response != "" || e.blob != nil
}

// IsCached reports whether the entry holds a completed response that can be
// replayed for a request of the given resource specification and method.
func (e *LogEntry) IsCached(rs ResourceSpecification, method string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.state {
	case StateSuccess, StateCached, StateDuplicate:
	default:
		return false
	}
	if e.response == "" && e.blob == nil {
		return false
	}
	return e.Method == method && e.SubType == rs.SubType
}

// Response returns the string response.
func (e *LogEntry) Response() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.response
}

// Blob returns the binary response, if any.
func (e *LogEntry) Blob() []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.blob
}

// RetrieveResponse returns the stored response for a replay and counts the hit.
func (e *LogEntry) RetrieveResponse() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cacheHits++
	return e.response
}

// TransferObject decodes the response on first access and memoises the
// result. Payloads outside the transfer-object set decode to nil.
func (e *LogEntry) TransferObject() TransferObject {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.decodeLocked()
	return e.obj
}

// DecodeErr returns the error of the last decode attempt.
func (e *LogEntry) DecodeErr() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.decodeLocked()
	return e.decodeErr
}

func (e *LogEntry) decodeLocked() {
	if e.decoded {
		return
	}
	e.decoded = true
	raw := []byte(e.response)
	if len(raw) == 0 && e.blob != nil {
		raw = e.blob
	}
	e.obj, e.decodeErr = DecodeTransferObject(e.SubType, raw)
}

// SetResponse attaches a string or []byte response. Other types are ignored.
func (e *LogEntry) SetResponse(response any, now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch r := response.(type) {
	case string:
		e.response = r
	case []byte:
		e.blob = r
	default:
		return
	}
	e.decoded = false
	e.obj = nil
	e.decodeErr = nil
	e.updatedAt = now
}

func (e *LogEntry) SetRunning(now time.Time) {
	e.transition(StateRunning, now)
}

func (e *LogEntry) SetSuccess(now time.Time) {
	e.transition(StateSuccess, now)
}

func (e *LogEntry) SetCached(now time.Time) {
	e.transition(StateCached, now)
}

func (e *LogEntry) SetClose(now time.Time) {
	e.transition(StateClosed, now)
}

func (e *LogEntry) SetDuplicate(now time.Time) {
	e.transition(StateDuplicate, now)
}

// SetError records the fault message and moves the entry to ERROR.
func (e *LogEntry) SetError(fault string, now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fault = fault
	e.state = StateError
	e.updatedAt = now
}

// SetUndefined marks an entry whose payload no aggregator could handle.
func (e *LogEntry) SetUndefined(reason string, now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fault = reason
	e.state = StateUndefined
	e.updatedAt = now
}

// Restart reuses a failed entry for a new attempt of the same request.
func (e *LogEntry) Restart(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = StateRunning
	e.fault = ""
	e.response = ""
	e.blob = nil
	e.decoded = false
	e.obj = nil
	e.decodeErr = nil
	e.createdAt = now
	e.updatedAt = now
}

func (e *LogEntry) transition(state EventState, now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = state
	e.updatedAt = now
}

// AddAggregator registers an interested aggregator once.
func (e *LogEntry) AddAggregator(agg Aggregator) {
	if agg == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, a := range e.aggregators {
		if a == agg {
			return
		}
	}
	e.aggregators = append(e.aggregators, agg)
}

// HasAggregator reports whether agg is registered on the entry.
func (e *LogEntry) HasAggregator(agg Aggregator) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, a := range e.aggregators {
		if a == agg {
			return true
		}
	}
	return false
}

// Aggregators returns a copy of the registered aggregators in insertion order.
func (e *LogEntry) Aggregators() []Aggregator {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Aggregator, len(e.aggregators))
	copy(out, e.aggregators)
	return out
}

// Aggregator returns the first registered aggregator or nil.
func (e *LogEntry) Aggregator() Aggregator {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.aggregators) == 0 {
		return nil
	}
	return e.aggregators[0]
}

// Snapshot copies the entry into its serializable form.
func (e *LogEntry) Snapshot() EntrySnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	kinds := make([]string, 0, len(e.aggregators))
	for _, a := range e.aggregators {
		kinds = append(kinds, a.Kind())
	}
	size := len(e.response)
	if e.blob != nil {
		size = len(e.blob)
	}
	return EntrySnapshot{
		ID:            e.ID,
		URL:           e.URL,
		Method:        e.Method,
		SubType:       e.SubType,
		Title:         e.Title,
		State:         e.state.String(),
		Fault:         e.fault,
		Request:       e.Request,
		ResponseBytes: size,
		CacheHits:     e.cacheHits,
		Aggregators:   kinds,
		CreatedAt:     e.createdAt,
		UpdatedAt:     e.updatedAt,
		DurationMs:    e.updatedAt.Sub(e.createdAt).Milliseconds(),
	}
}

// EntrySnapshot is the serializable view of a LogEntry used by the log
// view, the status stream and the archive.
type EntrySnapshot struct {
	ID            string    `json:"id"`
	URL           string    `json:"url,omitempty"`
	Method        string    `json:"method,omitempty"`
	SubType       string    `json:"subtype,omitempty"`
	Title         string    `json:"title,omitempty"`
	State         string    `json:"state"`
	Fault         string    `json:"fault,omitempty"`
	Request       string    `json:"request,omitempty"`
	ResponseBytes int       `json:"response_bytes"`
	CacheHits     int       `json:"cache_hits"`
	Aggregators   []string  `json:"aggregators,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	DurationMs    int64     `json:"duration_ms"`
	Redacted      bool      `json:"redacted,omitempty"`
}
