package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/V4T54L/restnav/internal/adapter/metrics"
	"github.com/V4T54L/restnav/internal/domain"
)

const defaultRequestTimeout = 30 * time.Second

// RequestProcessor issues a call for a link and, once the transport
// completes, records the outcome in the store and updates every aggregator
// registered on the entry. Completions run on the scheduler.
type RequestProcessor struct {
	ctx       context.Context
	store     *EventStore
	transport domain.Transport
	scheduler domain.Scheduler
	metrics   *metrics.ClientMetrics
	tracer    trace.Tracer
	timeout   time.Duration
	logger    *slog.Logger

	// fallback receives responses that have no registered aggregator.
	fallback func(entry *domain.LogEntry, subType string)
}

// NewRequestProcessor creates a processor. Calls are bound to ctx and each
// one is cut off after timeout; a non-positive timeout uses 30s.
func NewRequestProcessor(ctx context.Context, store *EventStore, transport domain.Transport, scheduler domain.Scheduler,
	m *metrics.ClientMetrics, timeout time.Duration, logger *slog.Logger) *RequestProcessor {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &RequestProcessor{
		ctx:       ctx,
		store:     store,
		transport: transport,
		scheduler: scheduler,
		metrics:   m,
		tracer:    otel.Tracer("github.com/V4T54L/restnav/internal/usecase"),
		timeout:   timeout,
		logger:    logger.With("component", "request_processor"),
	}
}

// Process issues a REST call.
func (p *RequestProcessor) Process(link domain.Link, agg domain.Aggregator, subType string) *domain.LogEntry {
	return p.send(link, agg, subType, true)
}

// ProcessNonREST issues a call whose response is kept as a binary blob.
func (p *RequestProcessor) ProcessNonREST(link domain.Link, agg domain.Aggregator, subType string) *domain.LogEntry {
	return p.send(link, agg, subType, false)
}

func (p *RequestProcessor) send(link domain.Link, agg domain.Aggregator, subType string, rest bool) *domain.LogEntry {
	rs := domain.NewResourceSpecification(link.Href, subType)
	method := link.HTTPMethod()
	body := link.Body()

	entry := p.store.Start(rs, method, body, agg)

	req := domain.Request{
		Method: method,
		URL:    link.Href,
		Body:   body,
		Accept: acceptFor(rs.SubType),
		Rest:   rest,
	}

	ctx, cancel := context.WithTimeout(p.ctx, p.timeout)
	ctx, span := p.tracer.Start(ctx, "invoke "+method, trace.WithAttributes(
		attribute.String("http.request.method", method),
		attribute.String("url.full", link.Href),
		attribute.String("restnav.subtype", rs.SubType),
		attribute.String("restnav.entry_id", entry.ID),
	))
	started := time.Now()
	p.metrics.RequestStarted()

	p.transport.Send(ctx, req, func(resp *domain.Response, err error) {
		cancel()
		p.metrics.RequestFinished(method, err, time.Since(started))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
		}
		span.End()

		p.scheduler.Post(func() {
			p.complete(rs, body, resp, err, rest)
		})
	})
	return entry
}

func (p *RequestProcessor) complete(rs domain.ResourceSpecification, body string, resp *domain.Response, err error, rest bool) {
	if err != nil {
		p.logger.Warn("request failed", "url", rs.URL, "error", err)
		if ferr := p.store.Fault(rs, err.Error()); ferr != nil {
			p.logger.Error("failed to record fault", "url", rs.URL, "error", ferr)
		}
		return
	}

	var response any = string(resp.Body)
	if !rest {
		response = resp.Body
	}

	var entry *domain.LogEntry
	if body != "" {
		entry = p.store.EndWithBody(rs, body, response)
	} else {
		entry = p.store.End(rs, response)
	}
	if entry == nil {
		p.logger.Warn("response without matching entry", "url", rs.URL)
		return
	}
	p.Deliver(entry, rs.SubType)
}

// Deliver re-enters every aggregator registered on the entry, or the
// fallback handler when there is none.
func (p *RequestProcessor) Deliver(entry *domain.LogEntry, subType string) {
	aggs := entry.Aggregators()
	if len(aggs) == 0 {
		if p.fallback != nil {
			p.fallback(entry, subType)
		}
		return
	}
	for _, agg := range aggs {
		p.update(agg, entry, subType)
	}
}

func (p *RequestProcessor) update(agg domain.Aggregator, entry *domain.LogEntry, subType string) {
	err := agg.Update(entry, subType)
	if err == nil {
		return
	}
	p.logger.Error("aggregator update failed", "kind", agg.Kind(), "url", entry.URL, "error", err)
	if errors.Is(err, domain.ErrNoHandler) {
		p.store.Notify(entry)
	}
}

func acceptFor(subType string) string {
	if subType == domain.SubTypeXML {
		return "application/xml"
	}
	return "application/json"
}
