// Package aggregator contains the state machines that turn a stream of
// unordered LogEntry updates into complete display models. Each aggregator
// follows the chain object -> layout -> properties -> property descriptions,
// invoking the next links as responses arrive.
package aggregator

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/V4T54L/restnav/internal/domain"
)

const (
	KindObject     = "ObjectAggregator"
	KindList       = "ListAggregator"
	KindCollection = "CollectionAggregator"
)

// chain is the fetch-chain capability shared by every aggregator: link
// invocation, the no-handler signal and the handlers that are identical
// across kinds. Handlers take the owning aggregator explicitly so follow-up
// responses are routed back to it.
type chain struct {
	kind    string
	invoker domain.Invoker
	logger  *slog.Logger
	base    *slog.Logger
	now     func() time.Time
}

func newChain(kind string, invoker domain.Invoker, logger *slog.Logger) chain {
	return chain{
		kind:    kind,
		invoker: invoker,
		logger:  logger.With("component", "aggregator", "kind", kind),
		base:    logger,
		now:     time.Now,
	}
}

func (c *chain) Kind() string { return c.kind }

func (c *chain) invoke(link domain.Link, agg domain.Aggregator, subType string) {
	c.logger.Debug("invoking link", "href", link.Href, "subtype", subType)
	c.invoker.Invoke(link, agg, subType)
}

// noHandler marks the entry and stops this branch of the chain.
func (c *chain) noHandler(entry *domain.LogEntry) error {
	entry.SetUndefined("no handler found", c.now())
	err := &domain.NoHandlerError{Kind: c.kind, URL: entry.URL}
	if decodeErr := entry.DecodeErr(); decodeErr != nil {
		err.Err = decodeErr
	}
	c.logger.Error("no handler found", "url", entry.URL, "error", err)
	return err
}

// isDuplicate reports deliveries that must not re-trigger fan-out.
func (c *chain) isDuplicate(entry *domain.LogEntry) bool {
	if entry.State() != domain.StateDuplicate {
		return false
	}
	c.logger.Debug("duplicate entry ignored", "url", entry.URL)
	return true
}

// handleList invokes every member link of a non-void result. Row models
// learn how many rows to wait for.
func (c *chain) handleList(list *domain.ResultList, model domain.DisplayModel, agg domain.Aggregator) {
	if list.ResultType == domain.ResultTypeVoid {
		return
	}
	values := list.Values()
	if rows, ok := model.(domain.RowDisplayModel); ok {
		rows.ExpectRows(len(values))
	}
	for _, link := range values {
		c.invoke(link, agg, domain.SubTypeJSON)
	}
}

// invokeLayoutLink requests the layout of obj, as BS3 XML when the link
// declares that representation.
func (c *chain) invokeLayoutLink(obj *domain.TObject, agg domain.Aggregator) error {
	link, ok := obj.LayoutLink()
	if !ok {
		return fmt.Errorf("%w: instance %q", domain.ErrMissingLayoutLink, obj.InstanceID)
	}
	subType := domain.SubTypeJSON
	if link.Representation() == domain.ReprObjectLayoutBS3 {
		subType = domain.SubTypeXML
	}
	c.invoke(link, agg, subType)
	return nil
}

// mergeLayout merges the first layout delivered and fans out to its
// property links. Later deliveries are no-ops.
func (c *chain) mergeLayout(layout *domain.Layout, model domain.LayoutDisplayModel, agg domain.Aggregator) {
	if model.Layout() != nil {
		c.logger.Debug("layout already merged")
		return
	}
	model.AddLayout(layout)

	rows, isRows := model.(domain.RowDisplayModel)
	for _, pl := range model.PropertyLayoutList() {
		if isRows {
			rows.AddPlaceholderDescription(pl.ID)
		}
		switch {
		case pl.Link == nil:
			c.logger.Warn("property layout without link", "property", pl.ID)
		case !pl.Fetchable():
			// persistence-internal property, never invoked
		default:
			c.invoke(*pl.Link, agg, domain.SubTypeJSON)
		}
	}
}

// handleProperty stores a description, or stores a value and fetches its
// description.
func (c *chain) handleProperty(p *domain.Property, model domain.LayoutDisplayModel, agg domain.Aggregator) error {
	if p.IsPropertyDescription() {
		model.AddPropertyDescription(p)
		return nil
	}
	model.AddProperty(p)
	link, ok := p.DescriptionLink()
	if !ok {
		return fmt.Errorf("%w: property %q", domain.ErrMissingDescribedBy, p.ID)
	}
	c.invoke(link, agg, domain.SubTypeJSON)
	return nil
}

// handleCollection fans out to every element of the collection.
func (c *chain) handleCollection(col *domain.Collection, model domain.RowDisplayModel, agg domain.Aggregator) {
	model.ExpectRows(len(col.Value))
	for _, link := range col.Value {
		c.invoke(link, agg, domain.SubTypeJSON)
	}
}
