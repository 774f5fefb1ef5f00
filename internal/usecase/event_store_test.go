package usecase

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/V4T54L/restnav/internal/domain"
	"github.com/V4T54L/restnav/internal/domain/mocks"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// stubAggregator records the URLs it was updated with.
type stubAggregator struct {
	updates []string
	resets  int
	err     error
}

func (s *stubAggregator) Update(entry *domain.LogEntry, subType string) error {
	s.updates = append(s.updates, entry.URL)
	return s.err
}
func (s *stubAggregator) Reset()                     { s.resets++ }
func (s *stubAggregator) Kind() string               { return "StubAggregator" }
func (s *stubAggregator) Model() domain.DisplayModel { return nil }

func TestEventStore_StartEnd(t *testing.T) {
	observer := &mocks.MockStatusObserver{}
	store := NewEventStore(observer, testLogger)
	rs := domain.NewResourceSpecification("http://h/objects/Foo/1", "")

	started := store.Start(rs, domain.MethodGet, "", nil)
	if started.State() != domain.StateRunning {
		t.Fatalf("expected RUNNING, got %s", started.State())
	}

	ended := store.End(rs, `{"instanceId":"1"}`)
	if ended != started {
		t.Fatal("expected End to complete the started entry")
	}
	if ended.State() != domain.StateSuccess {
		t.Errorf("expected SUCCESS, got %s", ended.State())
	}
	if store.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", store.Len())
	}
	if observer.Count() != 2 {
		t.Errorf("expected 2 status updates, got %d", observer.Count())
	}
}

func TestEventStore_EndTwiceMarksDuplicate(t *testing.T) {
	store := NewEventStore(nil, testLogger)
	rs := domain.NewResourceSpecification("http://h/objects/Foo/1", domain.SubTypeJSON)

	store.Start(rs, domain.MethodGet, "", nil)
	first := store.End(rs, "a")
	second := store.End(rs, "b")

	if second != first {
		t.Fatal("expected the completed entry to be returned")
	}
	if second.State() != domain.StateDuplicate {
		t.Errorf("expected DUPLICATE, got %s", second.State())
	}
	if second.Response() != "a" {
		t.Errorf("expected the first response to be kept, got %q", second.Response())
	}
	if store.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", store.Len())
	}
}

func TestEventStore_EndWithoutEntry(t *testing.T) {
	store := NewEventStore(nil, testLogger)
	if e := store.End(domain.NewResourceSpecification("http://h/unknown", ""), "x"); e != nil {
		t.Errorf("expected nil, got %v", e.URL)
	}
}

func TestEventStore_Fault(t *testing.T) {
	store := NewEventStore(nil, testLogger)
	rs := domain.NewResourceSpecification("http://h/objects/Foo/1", "")

	t.Run("Without running entry", func(t *testing.T) {
		err := store.Fault(rs, "boom")
		if !errors.Is(err, domain.ErrNoRunningEntry) {
			t.Fatalf("expected ErrNoRunningEntry, got %v", err)
		}
	})

	t.Run("Running entry becomes ERROR and restarts in place", func(t *testing.T) {
		entry := store.Start(rs, domain.MethodGet, "", nil)
		if err := store.Fault(rs, "timeout"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if entry.State() != domain.StateError || entry.Fault() != "timeout" {
			t.Fatalf("expected ERROR with fault, got %s %q", entry.State(), entry.Fault())
		}

		again := store.Start(rs, domain.MethodGet, "", nil)
		if again != entry {
			t.Error("expected the failed entry to be restarted")
		}
		if again.State() != domain.StateRunning || again.Fault() != "" {
			t.Errorf("expected clean RUNNING entry, got %s %q", again.State(), again.Fault())
		}
		if store.Len() != 1 {
			t.Errorf("expected 1 entry, got %d", store.Len())
		}
	})
}

func TestEventStore_EndWithBody(t *testing.T) {
	store := NewEventStore(nil, testLogger)
	rs := domain.NewResourceSpecification("http://h/objects/Foo/1/actions/rename/invoke", "")

	first := store.Start(rs, domain.MethodPost, `{"name":"a"}`, nil)
	second := store.Start(rs, domain.MethodPost, `{"name":"b"}`, nil)
	if first == second {
		t.Fatal("expected a second entry while the first is running")
	}

	ended := store.EndWithBody(rs, `{"name":"b"}`, "ok")
	if ended != second {
		t.Fatal("expected the entry with the matching body to complete")
	}
	if first.State() != domain.StateRunning {
		t.Errorf("expected first entry still RUNNING, got %s", first.State())
	}
	if found := store.FindByBody(rs, `{"name":"a"}`); found != first {
		t.Error("expected FindByBody to return the first entry")
	}
}

func TestEventStore_FindBy(t *testing.T) {
	store := NewEventStore(nil, testLogger)
	property := domain.NewResourceSpecification("http://h/objects/Foo/1/properties/name", "")
	object := domain.NewResourceSpecification("http://h/objects/Foo/1", "")
	store.Start(property, domain.MethodGet, "", nil)
	store.Start(object, domain.MethodGet, "", nil)

	tests := []struct {
		name  string
		url   string
		found bool
	}{
		{"Equivalent property of another instance", "http://h/objects/Foo/2/properties/name", true},
		{"Different property", "http://h/objects/Foo/1/properties/title", false},
		{"Exact object", "http://h/objects/Foo/1", true},
		{"Other object is not redundant", "http://h/objects/Foo/2", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := store.FindBy(domain.NewResourceSpecification(tc.url, ""))
			if (got != nil) != tc.found {
				t.Errorf("expected found=%v, got %v", tc.found, got != nil)
			}
		})
	}

	t.Run("Subtype must match", func(t *testing.T) {
		if store.FindBy(domain.NewResourceSpecification("http://h/objects/Foo/1", domain.SubTypeXML)) != nil {
			t.Error("expected no match for xml subtype")
		}
	})
}

func TestEventStore_Views(t *testing.T) {
	store := NewEventStore(nil, testLogger)
	agg := &stubAggregator{}
	view := store.AddView("Foo 1", agg, nil)

	if store.FindView("Foo 1") != view {
		t.Fatal("expected to find the open view")
	}
	if err := store.CloseView("Foo 1"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if view.State() != domain.StateClosed {
		t.Errorf("expected CLOSED, got %s", view.State())
	}
	if agg.resets != 1 {
		t.Errorf("expected aggregator reset once, got %d", agg.resets)
	}
	if err := store.CloseView("Foo 1"); !errors.Is(err, domain.ErrViewNotFound) {
		t.Errorf("expected ErrViewNotFound for closed view, got %v", err)
	}
}

func TestEventStore_FindByAggregatorAndReset(t *testing.T) {
	store := NewEventStore(nil, testLogger)
	agg := &stubAggregator{}
	a := store.Start(domain.NewResourceSpecification("http://h/a", ""), domain.MethodGet, "", agg)
	store.Start(domain.NewResourceSpecification("http://h/b", ""), domain.MethodGet, "", nil)
	c := store.Start(domain.NewResourceSpecification("http://h/c", ""), domain.MethodGet, "", agg)

	if store.FindByAggregator(agg) != a {
		t.Error("expected first entry of aggregator")
	}
	all := store.FindAllByAggregator(agg)
	if len(all) != 2 || all[1] != c {
		t.Errorf("expected 2 entries of aggregator, got %d", len(all))
	}
	if store.FindByID(c.ID) != c {
		t.Error("expected lookup by id")
	}

	store.Reset()
	if store.Len() != 0 {
		t.Errorf("expected empty log after reset, got %d", store.Len())
	}
}
