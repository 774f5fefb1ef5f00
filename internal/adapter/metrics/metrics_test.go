package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/V4T54L/restnav/internal/domain"
)

func TestClientMetrics(t *testing.T) {
	m := NewClientMetrics(prometheus.NewRegistry())

	m.ObserveFetch(OutcomeHit)
	m.ObserveFetch(OutcomeHit)
	m.ObserveFetch(OutcomeMiss)
	if got := testutil.ToFloat64(m.FetchTotal.WithLabelValues(OutcomeHit)); got != 2 {
		t.Errorf("expected 2 hits, got %v", got)
	}

	m.RequestStarted()
	if got := testutil.ToFloat64(m.InFlight); got != 1 {
		t.Errorf("expected 1 in flight, got %v", got)
	}
	m.RequestFinished(domain.MethodGet, errors.New("boom"), time.Millisecond)
	if got := testutil.ToFloat64(m.InFlight); got != 0 {
		t.Errorf("expected 0 in flight, got %v", got)
	}

	m.ObserveArchive(3, nil)
	if got := testutil.ToFloat64(m.ArchiveWritesTotal.WithLabelValues("ok")); got != 3 {
		t.Errorf("expected 3 archived, got %v", got)
	}

	entry := domain.NewLogEntry("http://h/a", domain.MethodGet, domain.SubTypeJSON, "", time.Now())
	entry.SetRunning(time.Now())
	m.UpdateStatus(entry)
	if got := testutil.ToFloat64(m.EntriesTotal.WithLabelValues("RUNNING")); got != 1 {
		t.Errorf("expected 1 RUNNING transition, got %v", got)
	}

	m.SetStreamAvailable(false)
	if got := testutil.ToFloat64(m.StreamAvailable); got != 0 {
		t.Errorf("expected stream unavailable, got %v", got)
	}
}

func TestClientMetrics_NilReceiver(t *testing.T) {
	var m *ClientMetrics
	m.ObserveFetch(OutcomeMiss)
	m.RequestStarted()
	m.RequestFinished(domain.MethodGet, nil, time.Second)
	m.ObserveArchive(1, nil)
	m.ObservePublish("published")
	m.SetStreamAvailable(true)
	m.UpdateStatus(domain.NewLogEntry("", "", "", "", time.Now()))
}
