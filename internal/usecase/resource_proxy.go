package usecase

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/V4T54L/restnav/internal/adapter/metrics"
	"github.com/V4T54L/restnav/internal/aggregator"
	"github.com/V4T54L/restnav/internal/domain"
)

// ResourceProxy decides per link whether the log already holds the answer.
// Cached responses are replayed, equivalent in-flight calls are joined and
// everything else goes to the RequestProcessor. There is no cache besides
// the log itself.
type ResourceProxy struct {
	store     *EventStore
	processor *RequestProcessor
	handler   *DefaultResponseHandler
	views     domain.ViewOpener
	metrics   *metrics.ClientMetrics
	logger    *slog.Logger
	now       domain.Clock
}

// NewResourceProxy wires the proxy as the invoker of every aggregator it
// creates and as the fallback of the processor.
func NewResourceProxy(store *EventStore, processor *RequestProcessor, views domain.ViewOpener, m *metrics.ClientMetrics, logger *slog.Logger) *ResourceProxy {
	p := &ResourceProxy{
		store:     store,
		processor: processor,
		views:     views,
		metrics:   m,
		logger:    logger.With("component", "resource_proxy"),
		now:       time.Now,
	}
	p.handler = NewDefaultResponseHandler(p, views, logger)
	processor.fallback = p.handler.Handle
	return p
}

// Invoke is the Invoker used by aggregators: a REST fetch.
func (p *ResourceProxy) Invoke(link domain.Link, agg domain.Aggregator, subType string) {
	p.Fetch(link, agg, subType, true)
}

// Fetch resolves link for agg. A nil agg lets the default response handler
// choose one.
func (p *ResourceProxy) Fetch(link domain.Link, agg domain.Aggregator, subType string, isRest bool) {
	rs := domain.NewResourceSpecification(link.Href, subType)
	method := link.HTTPMethod()

	entry := p.store.FindBy(rs)
	switch {
	case entry != nil && entry.IsCached(rs, method) && entry.Request == link.Body():
		p.replay(entry, agg, rs.SubType)
	case entry != nil && entry.IsRunning() && entry.Method == method && entry.SubType == rs.SubType:
		entry.AddAggregator(agg)
		p.metrics.ObserveFetch(metrics.OutcomeCoalesced)
		p.logger.Debug("joined in-flight request", "url", link.Href, "entry_url", entry.URL)
		p.store.Notify(entry)
	default:
		p.metrics.ObserveFetch(metrics.OutcomeMiss)
		if isRest {
			p.processor.Process(link, agg, subType)
		} else {
			p.processor.ProcessNonREST(link, agg, subType)
		}
	}
}

func (p *ResourceProxy) replay(entry *domain.LogEntry, agg domain.Aggregator, subType string) {
	entry.AddAggregator(agg)
	entry.SetCached(p.now())
	entry.RetrieveResponse()
	p.metrics.ObserveFetch(metrics.OutcomeHit)
	p.logger.Debug("serving from log", "url", entry.URL, "hits", entry.CacheHits())

	if agg == nil {
		p.handler.Handle(entry, subType)
	} else {
		p.processor.update(agg, entry, subType)
	}
	p.store.Notify(entry)
}

// Load re-opens a logged domain object in a new ObjectAggregator without a
// network round trip. It must run on the dispatcher.
func (p *ResourceProxy) Load(obj *domain.TObject) (*aggregator.ObjectAggregator, error) {
	entry := p.store.FindByObject(obj)
	if entry == nil {
		return nil, fmt.Errorf("%w: instance %q", domain.ErrNotLogged, obj.InstanceID)
	}
	agg := aggregator.NewObjectAggregator(obj.Title, p, p.views, p.handler.logger)
	entry.AddAggregator(agg)
	if err := agg.Update(entry, entry.SubType); err != nil {
		return agg, err
	}
	return agg, nil
}

var _ domain.Invoker = (*ResourceProxy)(nil)
