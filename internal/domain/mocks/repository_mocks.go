package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/V4T54L/restnav/internal/domain"
)

// MockArchiveRepository is a mock implementation of domain.ArchiveRepository for testing.
type MockArchiveRepository struct {
	mu         sync.Mutex
	Written    []domain.EntrySnapshot
	WriteCalls int
	WriteErr   error
}

func (m *MockArchiveRepository) WriteBatch(ctx context.Context, entries []domain.EntrySnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WriteCalls++
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.Written = append(m.Written, entries...)
	return nil
}

// InvokeCall records one Invoke.
type InvokeCall struct {
	Link    domain.Link
	Agg     domain.Aggregator
	SubType string
}

// MockInvoker records link invocations without performing them.
type MockInvoker struct {
	mu    sync.Mutex
	Calls []InvokeCall
}

func (m *MockInvoker) Invoke(link domain.Link, agg domain.Aggregator, subType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, InvokeCall{Link: link, Agg: agg, SubType: subType})
}

// Hrefs returns the invoked hrefs in call order.
func (m *MockInvoker) Hrefs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Calls))
	for i, c := range m.Calls {
		out[i] = c.Link.Href
	}
	return out
}

// MockViewOpener records opened views.
type MockViewOpener struct {
	mu          sync.Mutex
	ListViews   []domain.Aggregator
	ObjectViews []domain.Aggregator
}

func (m *MockViewOpener) OpenListView(agg domain.Aggregator) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListViews = append(m.ListViews, agg)
}

func (m *MockViewOpener) OpenObjectView(agg domain.Aggregator) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ObjectViews = append(m.ObjectViews, agg)
}

// MockStatusObserver records every status notification.
type MockStatusObserver struct {
	mu      sync.Mutex
	Updates []domain.EntrySnapshot
}

func (m *MockStatusObserver) UpdateStatus(entry *domain.LogEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Updates = append(m.Updates, entry.Snapshot())
}

func (m *MockStatusObserver) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Updates)
}

// InlineScheduler runs posted work immediately on the caller's goroutine.
type InlineScheduler struct{}

func (InlineScheduler) Post(fn func()) { fn() }

type pendingCall struct {
	req  domain.Request
	done func(*domain.Response, error)
}

// MockTransport answers requests from a canned response table keyed by URL.
// With Hold set, calls are parked until Complete or Fail releases them.
type MockTransport struct {
	mu        sync.Mutex
	Requests  []domain.Request
	Responses map[string]*domain.Response
	Errors    map[string]error
	Hold      bool
	pending   []pendingCall
}

// NewMockTransport creates a transport with empty response tables.
func NewMockTransport() *MockTransport {
	return &MockTransport{
		Responses: make(map[string]*domain.Response),
		Errors:    make(map[string]error),
	}
}

// RespondJSON registers a 200 JSON response for url.
func (m *MockTransport) RespondJSON(url, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses[url] = &domain.Response{StatusCode: 200, ContentType: "application/json", Body: []byte(body)}
}

// RespondXML registers a 200 XML response for url.
func (m *MockTransport) RespondXML(url, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses[url] = &domain.Response{StatusCode: 200, ContentType: "application/xml", Body: []byte(body)}
}

func (m *MockTransport) Send(ctx context.Context, req domain.Request, done func(*domain.Response, error)) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	if m.Hold {
		m.pending = append(m.pending, pendingCall{req: req, done: done})
		m.mu.Unlock()
		return
	}
	resp, err := m.lookup(req.URL)
	m.mu.Unlock()
	done(resp, err)
}

func (m *MockTransport) lookup(url string) (*domain.Response, error) {
	if err, ok := m.Errors[url]; ok {
		return nil, err
	}
	if resp, ok := m.Responses[url]; ok {
		return resp, nil
	}
	return nil, fmt.Errorf("no canned response for %s", url)
}

// Calls returns the number of requests sent so far.
func (m *MockTransport) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

// Pending returns the number of parked calls.
func (m *MockTransport) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Complete releases the first parked call for url with its canned outcome.
func (m *MockTransport) Complete(url string) bool {
	call, ok := m.take(url)
	if !ok {
		return false
	}
	m.mu.Lock()
	resp, err := m.lookup(url)
	m.mu.Unlock()
	call.done(resp, err)
	return true
}

// Fail releases the first parked call for url with err.
func (m *MockTransport) Fail(url string, err error) bool {
	call, ok := m.take(url)
	if !ok {
		return false
	}
	call.done(nil, err)
	return true
}

func (m *MockTransport) take(url string) (pendingCall, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range m.pending {
		if c.req.URL == url {
			m.pending = append(m.pending[:i], m.pending[i+1:]...)
			return c, true
		}
	}
	return pendingCall{}, false
}
