package usecase

import (
	"errors"
	"testing"

	"github.com/V4T54L/restnav/internal/domain"
	"github.com/V4T54L/restnav/internal/domain/mocks"
)

func TestLogViewUseCase(t *testing.T) {
	store := NewEventStore(nil, testLogger)
	uc := NewLogViewUseCase(store, mocks.InlineScheduler{}, testLogger)

	ok := domain.NewResourceSpecification("http://h/ok", "")
	store.Start(ok, domain.MethodGet, "", nil)
	store.End(ok, "{}")
	store.Start(domain.NewResourceSpecification("http://h/pending", ""), domain.MethodGet, "", nil)
	agg := &stubAggregator{}
	store.AddView("Foo 1", agg, nil)

	t.Run("Entries filtered by state", func(t *testing.T) {
		all, err := uc.Entries("")
		if err != nil || len(all) != 3 {
			t.Fatalf("expected 3 entries, got %d, %v", len(all), err)
		}
		running, err := uc.Entries("RUNNING")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(running) != 1 || running[0].URL != "http://h/pending" {
			t.Errorf("expected the pending entry, got %+v", running)
		}
		if _, err := uc.Entries("BOGUS"); err == nil {
			t.Error("expected an error for an unknown state")
		}
	})

	t.Run("Entry by id", func(t *testing.T) {
		all, _ := uc.Entries("")
		got, found := uc.Entry(all[0].ID)
		if !found || got.URL != "http://h/ok" {
			t.Errorf("expected entry http://h/ok, got %+v", got)
		}
		if _, found := uc.Entry("missing"); found {
			t.Error("expected missing entry")
		}
	})

	t.Run("Track", func(t *testing.T) {
		s := uc.Track("http://h/tracked", "")
		if s.State != domain.StateInitial.String() {
			t.Errorf("expected INITIAL, got %s", s.State)
		}
		if store.Len() != 4 {
			t.Errorf("expected 4 entries, got %d", store.Len())
		}
	})

	t.Run("CloseView", func(t *testing.T) {
		if err := uc.CloseView("Nope"); !errors.Is(err, domain.ErrViewNotFound) {
			t.Errorf("expected ErrViewNotFound, got %v", err)
		}
		if err := uc.CloseView("Foo 1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if agg.resets != 1 {
			t.Errorf("expected the view aggregator to be reset, got %d", agg.resets)
		}
	})

	t.Run("Reset", func(t *testing.T) {
		uc.Reset()
		if store.Len() != 0 {
			t.Errorf("expected empty log, got %d", store.Len())
		}
	})
}
