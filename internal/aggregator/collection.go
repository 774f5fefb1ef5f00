package aggregator

import (
	"errors"
	"log/slog"

	"github.com/V4T54L/restnav/internal/display"
	"github.com/V4T54L/restnav/internal/domain"
)

// CollectionAggregator assembles the rows of an object collection. With a
// parent it forwards every update to the parent, which decides when the
// combined view opens; without one it opens a list view itself.
type CollectionAggregator struct {
	chain
	model  *display.CollectionModel
	views  domain.ViewOpener
	parent domain.Aggregator
}

// NewCollectionAggregator creates a top-level collection aggregator.
func NewCollectionAggregator(title string, invoker domain.Invoker, views domain.ViewOpener, logger *slog.Logger) *CollectionAggregator {
	return &CollectionAggregator{
		chain: newChain(KindCollection, invoker, logger),
		model: display.NewCollectionModel(title),
		views: views,
	}
}

// NewChildCollectionAggregator creates a collection aggregator that reports
// to parent. The parent is not owned.
func NewChildCollectionAggregator(title string, parent domain.Aggregator, invoker domain.Invoker, logger *slog.Logger) *CollectionAggregator {
	return &CollectionAggregator{
		chain:  newChain(KindCollection, invoker, logger),
		model:  display.NewCollectionModel(title),
		parent: parent,
	}
}

func (a *CollectionAggregator) Model() domain.DisplayModel { return a.model }

func (a *CollectionAggregator) CollectionModel() *display.CollectionModel { return a.model }

func (a *CollectionAggregator) Parent() domain.Aggregator { return a.parent }

func (a *CollectionAggregator) Update(entry *domain.LogEntry, subType string) error {
	if a.isDuplicate(entry) {
		return nil
	}
	err := a.dispatch(entry)

	if a.parent != nil {
		return errors.Join(err, a.parent.Update(entry, subType))
	}
	if err != nil {
		return err
	}
	if a.model.CanBeDisplayed() {
		a.logger.Info("collection ready", "title", a.model.Title(), "rows", len(a.model.Rows()))
		a.views.OpenListView(a)
		a.model.SetRendered(true)
	}
	return nil
}

func (a *CollectionAggregator) dispatch(entry *domain.LogEntry) error {
	switch obj := entry.TransferObject().(type) {
	case *domain.ResultList:
		a.handleList(obj, a.model, a)
	case *domain.TObject:
		a.model.AddData(obj)
		return a.invokeLayoutLink(obj, a)
	case *domain.Layout:
		a.mergeLayout(obj, a.model, a)
	case *domain.Grid:
		a.model.SetGrid(obj)
	case *domain.Property:
		return a.handleProperty(obj, a.model, a)
	case *domain.Collection:
		a.handleCollection(obj, a.model, a)
	default:
		return a.noHandler(entry)
	}
	return nil
}

func (a *CollectionAggregator) Reset() {
	a.model.Reset()
}

var _ domain.Aggregator = (*CollectionAggregator)(nil)
