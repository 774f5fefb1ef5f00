package aggregator

import (
	"log/slog"

	"github.com/V4T54L/restnav/internal/display"
	"github.com/V4T54L/restnav/internal/domain"
)

// ObjectAggregator assembles the view of one domain object, including one
// child CollectionAggregator per collection member.
type ObjectAggregator struct {
	chain
	model    *display.ObjectModel
	views    domain.ViewOpener
	children []*CollectionAggregator
}

func NewObjectAggregator(title string, invoker domain.Invoker, views domain.ViewOpener, logger *slog.Logger) *ObjectAggregator {
	return &ObjectAggregator{
		chain: newChain(KindObject, invoker, logger),
		model: display.NewObjectModel(title),
		views: views,
	}
}

func (a *ObjectAggregator) Model() domain.DisplayModel { return a.model }

// ObjectModel exposes the concrete model to views.
func (a *ObjectAggregator) ObjectModel() *display.ObjectModel { return a.model }

// Children returns the collection aggregators spawned for the object.
func (a *ObjectAggregator) Children() []*CollectionAggregator { return a.children }

// Update handles entries the aggregator is registered on. Updates forwarded
// by children for their own entries only re-run the completion check.
func (a *ObjectAggregator) Update(entry *domain.LogEntry, subType string) error {
	if a.isDuplicate(entry) {
		return nil
	}
	if entry.HasAggregator(a) {
		if err := a.dispatch(entry); err != nil {
			return err
		}
	}
	a.checkCompletion()
	return nil
}

func (a *ObjectAggregator) dispatch(entry *domain.LogEntry) error {
	switch obj := entry.TransferObject().(type) {
	case *domain.ResultList:
		a.handleList(obj, a.model, a)
	case *domain.TObject:
		return a.handleObject(obj)
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

func (a *ObjectAggregator) handleObject(obj *domain.TObject) error {
	if a.model.Object() != nil {
		a.logger.Debug("object already loaded", "instance", obj.InstanceID)
		return nil
	}
	a.model.AddData(obj)
	for _, member := range obj.CollectionMembers() {
		details, ok := domain.FindLink(member.Links, domain.RelDetails)
		if !ok {
			a.logger.Debug("collection without details link", "collection", member.ID)
			continue
		}
		child := NewChildCollectionAggregator(member.ID, a, a.invoker, a.base)
		a.children = append(a.children, child)
		a.invoke(details, child, domain.SubTypeJSON)
	}
	return a.invokeLayoutLink(obj, a)
}

func (a *ObjectAggregator) checkCompletion() {
	if !a.model.CanBeDisplayed() {
		return
	}
	for _, child := range a.children {
		if !child.model.CanBeDisplayed() {
			return
		}
	}
	a.logger.Info("object ready", "title", a.model.Title(), "collections", len(a.children))
	a.views.OpenObjectView(a)
	a.model.SetRendered(true)
	for _, child := range a.children {
		child.model.SetRendered(true)
	}
}

// Reset clears the model and drops the children so the aggregator can be
// reused for a new chain.
func (a *ObjectAggregator) Reset() {
	a.model.Reset()
	for _, child := range a.children {
		child.Reset()
	}
	a.children = nil
}

var _ domain.Aggregator = (*ObjectAggregator)(nil)
