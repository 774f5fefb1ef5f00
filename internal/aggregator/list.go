package aggregator

import (
	"log/slog"

	"github.com/V4T54L/restnav/internal/display"
	"github.com/V4T54L/restnav/internal/domain"
)

// ListAggregator assembles the table for an action that returns a list of
// objects. It is always top level.
type ListAggregator struct {
	chain
	model *display.ListModel
	views domain.ViewOpener
}

func NewListAggregator(title string, invoker domain.Invoker, views domain.ViewOpener, logger *slog.Logger) *ListAggregator {
	return &ListAggregator{
		chain: newChain(KindList, invoker, logger),
		model: display.NewListModel(title),
		views: views,
	}
}

func (a *ListAggregator) Model() domain.DisplayModel { return a.model }

func (a *ListAggregator) ListModel() *display.ListModel { return a.model }

func (a *ListAggregator) Update(entry *domain.LogEntry, subType string) error {
	if a.isDuplicate(entry) {
		return nil
	}
	if err := a.dispatch(entry); err != nil {
		return err
	}
	if a.model.CanBeDisplayed() {
		a.logger.Info("list ready", "title", a.model.Title(), "rows", len(a.model.Rows()))
		a.views.OpenListView(a)
		a.model.SetRendered(true)
	}
	return nil
}

func (a *ListAggregator) dispatch(entry *domain.LogEntry) error {
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
	default:
		return a.noHandler(entry)
	}
	return nil
}

func (a *ListAggregator) Reset() {
	a.model.Reset()
}

var _ domain.Aggregator = (*ListAggregator)(nil)
