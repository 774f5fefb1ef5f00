package aggregator

import (
	"errors"
	"testing"

	"github.com/go-playground/assert/v2"

	"github.com/V4T54L/restnav/internal/domain"
	"github.com/V4T54L/restnav/internal/domain/mocks"
)

type recordingAggregator struct {
	updates []*domain.LogEntry
}

func (r *recordingAggregator) Update(entry *domain.LogEntry, subType string) error {
	r.updates = append(r.updates, entry)
	return nil
}
func (r *recordingAggregator) Reset() {}
func (r *recordingAggregator) Kind() string { return "recording" }
func (r *recordingAggregator) Model() domain.DisplayModel { return nil }

func TestObjectAggregator_LayoutSubtype(t *testing.T) {
	t.Run("bs3 layout is requested as xml", func(t *testing.T) {
		inv := &mocks.MockInvoker{}
		agg := NewObjectAggregator("Foo", inv, &mocks.MockViewOpener{}, testLogger)

		entry := completed(t, "http://h/objects/Foo/1", domain.SubTypeJSON, objectJSON("1", bs3LayoutType), agg)
		err := agg.Update(entry, domain.SubTypeJSON)

		assert.Equal(t, err, nil)
		assert.Equal(t, len(inv.Calls), 1)
		assert.Equal(t, inv.Calls[0].Link.Href, "http://h/objects/Foo/1/object-layout")
		assert.Equal(t, inv.Calls[0].SubType, domain.SubTypeXML)
	})

	t.Run("json layout is requested as json", func(t *testing.T) {
		inv := &mocks.MockInvoker{}
		agg := NewObjectAggregator("Foo", inv, &mocks.MockViewOpener{}, testLogger)

		entry := completed(t, "http://h/objects/Foo/1", domain.SubTypeJSON, objectJSON("1", jsonLayoutType), agg)
		assert.Equal(t, agg.Update(entry, domain.SubTypeJSON), nil)
		assert.Equal(t, inv.Calls[0].SubType, domain.SubTypeJSON)
	})

	t.Run("missing layout link", func(t *testing.T) {
		inv := &mocks.MockInvoker{}
		agg := NewObjectAggregator("Foo", inv, &mocks.MockViewOpener{}, testLogger)

		entry := completed(t, "http://h/objects/Foo/1", domain.SubTypeJSON, `{"instanceId":"1","links":[]}`, agg)
		err := agg.Update(entry, domain.SubTypeJSON)
		assert.Equal(t, errors.Is(err, domain.ErrMissingLayoutLink), true)
	})
}

func TestObjectAggregator_FullChain(t *testing.T) {
	inv := &mocks.MockInvoker{}
	views := &mocks.MockViewOpener{}
	agg := NewObjectAggregator("Foo", inv, views, testLogger)

	obj := completed(t, "http://h/objects/Foo/1", domain.SubTypeJSON, objectJSON("1", jsonLayoutType), agg)
	assert.Equal(t, agg.Update(obj, domain.SubTypeJSON), nil)

	layout := layoutJSON(map[string]string{
		"name":     "http://h/objects/Foo/1/properties/name",
		"internal": "http://h/objects/org.datanucleus.Foo/1/properties/internal",
	}, "name", "internal", "unlinked")
	layoutEntry := completed(t, "http://h/objects/Foo/1/object-layout", domain.SubTypeJSON, layout, agg)
	assert.Equal(t, agg.Update(layoutEntry, domain.SubTypeJSON), nil)
	assert.Equal(t, inv.Hrefs(), []string{
		"http://h/objects/Foo/1/object-layout",
		"http://h/objects/Foo/1/properties/name",
	})

	prop := completed(t, "http://h/objects/Foo/1/properties/name", domain.SubTypeJSON, propertyJSON("name"), agg)
	assert.Equal(t, agg.Update(prop, domain.SubTypeJSON), nil)
	assert.Equal(t, inv.Calls[2].Link.Href, "http://h/domain-types/demo.Foo/properties/name")
	assert.Equal(t, len(views.ObjectViews), 0)

	desc := completed(t, "http://h/domain-types/demo.Foo/properties/name", domain.SubTypeJSON, descriptionJSON("name", "Name"), agg)
	assert.Equal(t, agg.Update(desc, domain.SubTypeJSON), nil)
	assert.Equal(t, len(views.ObjectViews), 1)
	assert.Equal(t, agg.Model().IsRendered(), true)

	// a late duplicate delivery does not reopen the view
	assert.Equal(t, agg.Update(desc, domain.SubTypeJSON), nil)
	assert.Equal(t, len(views.ObjectViews), 1)
}

func TestObjectAggregator_CollectionChildren(t *testing.T) {
	inv := &mocks.MockInvoker{}
	views := &mocks.MockViewOpener{}
	agg := NewObjectAggregator("Foo", inv, views, testLogger)

	obj := completed(t, "http://h/objects/Foo/1", domain.SubTypeJSON, objectJSON("1", bs3LayoutType, "items"), agg)
	assert.Equal(t, agg.Update(obj, domain.SubTypeJSON), nil)
	assert.Equal(t, len(agg.Children()), 1)

	child := agg.Children()[0]
	assert.Equal(t, inv.Calls[0].Link.Href, "http://h/objects/Foo/1/collections/items")
	assert.Equal(t, inv.Calls[0].Agg == domain.Aggregator(child), true)

	grid := completed(t, "http://h/objects/Foo/1/object-layout", domain.SubTypeXML, `<bs3:grid xmlns:bs3="x"/>`, agg)
	assert.Equal(t, agg.Update(grid, domain.SubTypeXML), nil)
	assert.Equal(t, len(views.ObjectViews), 0)

	// the child's collection entry reaches the parent, which opens the view
	items := completed(t, "http://h/objects/Foo/1/collections/items", domain.SubTypeJSON, collectionJSON("items"), child)
	assert.Equal(t, child.Update(items, domain.SubTypeJSON), nil)
	assert.Equal(t, len(views.ObjectViews), 1)
	assert.Equal(t, len(views.ListViews), 0)
	assert.Equal(t, child.Model().IsRendered(), true)

	agg.Reset()
	assert.Equal(t, len(agg.Children()), 0)
	assert.Equal(t, agg.Model().IsRendered(), false)
}

func TestListAggregator_FanOut(t *testing.T) {
	inv := &mocks.MockInvoker{}
	views := &mocks.MockViewOpener{}
	agg := NewListAggregator("All Foos", inv, views, testLogger)

	hrefs := []string{"http://h/objects/Foo/1", "http://h/objects/Foo/2", "http://h/objects/Foo/3"}
	list := completed(t, "http://h/services/Foos/actions/all/invoke", domain.SubTypeJSON, listJSON(hrefs...), agg)
	assert.Equal(t, agg.Update(list, domain.SubTypeJSON), nil)
	assert.Equal(t, inv.Hrefs(), hrefs)

	for i, h := range hrefs {
		row := completed(t, h, domain.SubTypeJSON, objectJSON(string(rune('1'+i)), jsonLayoutType), agg)
		assert.Equal(t, agg.Update(row, domain.SubTypeJSON), nil)
	}
	assert.Equal(t, len(agg.ListModel().Rows()), 3)
	assert.Equal(t, len(views.ListViews), 0)

	layout := layoutJSON(map[string]string{"name": "http://h/objects/Foo/1/properties/name"}, "name")
	layoutEntry := completed(t, "http://h/objects/Foo/1/object-layout", domain.SubTypeJSON, layout, agg)
	assert.Equal(t, agg.Update(layoutEntry, domain.SubTypeJSON), nil)
	assert.Equal(t, len(views.ListViews), 1)

	desc, ok := agg.ListModel().Description("name")
	assert.Equal(t, ok, true)
	assert.Equal(t, desc, "name")
}

func TestListAggregator_LayoutMergedOnce(t *testing.T) {
	inv := &mocks.MockInvoker{}
	agg := NewListAggregator("All Foos", inv, &mocks.MockViewOpener{}, testLogger)

	layout := layoutJSON(map[string]string{
		"name":  "http://h/objects/Foo/1/properties/name",
		"notes": "http://h/objects/Foo/1/properties/notes",
	}, "name", "notes")
	first := completed(t, "http://h/objects/Foo/1/object-layout", domain.SubTypeJSON, layout, agg)
	second := completed(t, "http://h/objects/Foo/2/object-layout", domain.SubTypeJSON, layout, agg)

	assert.Equal(t, agg.Update(first, domain.SubTypeJSON), nil)
	merged := agg.ListModel().Layout()
	assert.Equal(t, agg.Update(second, domain.SubTypeJSON), nil)

	assert.Equal(t, agg.ListModel().Layout() == merged, true)
	assert.Equal(t, len(inv.Calls), 2)
}

func TestAggregators_Duplicate(t *testing.T) {
	inv := &mocks.MockInvoker{}
	agg := NewListAggregator("All Foos", inv, &mocks.MockViewOpener{}, testLogger)

	entry := completed(t, "http://h/services/Foos/actions/all/invoke", domain.SubTypeJSON, listJSON("http://h/objects/Foo/1"), agg)
	entry.SetDuplicate(entry.UpdatedAt())

	assert.Equal(t, agg.Update(entry, domain.SubTypeJSON), nil)
	assert.Equal(t, len(inv.Calls), 0)
}

func TestAggregators_NoHandler(t *testing.T) {
	inv := &mocks.MockInvoker{}

	t.Run("unknown payload", func(t *testing.T) {
		agg := NewListAggregator("All Foos", inv, &mocks.MockViewOpener{}, testLogger)
		entry := completed(t, "http://h/version", domain.SubTypeJSON, `{"specVersion":"1.0"}`, agg)

		err := agg.Update(entry, domain.SubTypeJSON)

		var nh *domain.NoHandlerError
		assert.Equal(t, errors.As(err, &nh), true)
		assert.Equal(t, nh.Kind, KindList)
		assert.Equal(t, errors.Is(err, domain.ErrNoHandler), true)
		assert.Equal(t, entry.State(), domain.StateUndefined)
	})

	t.Run("collection reaching a list aggregator", func(t *testing.T) {
		agg := NewListAggregator("All Foos", inv, &mocks.MockViewOpener{}, testLogger)
		entry := completed(t, "http://h/objects/Foo/1/collections/items", domain.SubTypeJSON, collectionJSON("items"), agg)

		err := agg.Update(entry, domain.SubTypeJSON)
		assert.Equal(t, errors.Is(err, domain.ErrNoHandler), true)
	})

	t.Run("malformed payload carries the decode error", func(t *testing.T) {
		agg := NewObjectAggregator("Foo", inv, &mocks.MockViewOpener{}, testLogger)
		entry := completed(t, "http://h/objects/Foo/1", domain.SubTypeJSON, `{"instanceId":`, agg)

		err := agg.Update(entry, domain.SubTypeJSON)
		assert.Equal(t, errors.Is(err, domain.ErrDecode), true)
		assert.Equal(t, errors.Is(err, domain.ErrNoHandler), true)
	})
}

func TestListAggregator_MissingDescribedBy(t *testing.T) {
	agg := NewListAggregator("All Foos", &mocks.MockInvoker{}, &mocks.MockViewOpener{}, testLogger)
	entry := completed(t, "http://h/objects/Foo/1/properties/name", domain.SubTypeJSON,
		`{"id":"name","memberType":"property","links":[{"rel":"self","href":"http://h/objects/Foo/1/properties/name"}]}`, agg)

	err := agg.Update(entry, domain.SubTypeJSON)
	assert.Equal(t, errors.Is(err, domain.ErrMissingDescribedBy), true)
}

func TestCollectionAggregator_ForwardsToParent(t *testing.T) {
	inv := &mocks.MockInvoker{}
	parent := &recordingAggregator{}
	child := NewChildCollectionAggregator("items", parent, inv, testLogger)

	entry := completed(t, "http://h/objects/Foo/1/collections/items", domain.SubTypeJSON,
		collectionJSON("items", "http://h/objects/Item/1", "http://h/objects/Item/2"), child)
	assert.Equal(t, child.Update(entry, domain.SubTypeJSON), nil)

	assert.Equal(t, len(parent.updates), 1)
	assert.Equal(t, parent.updates[0] == entry, true)
	assert.Equal(t, inv.Hrefs(), []string{"http://h/objects/Item/1", "http://h/objects/Item/2"})
}

func TestCollectionAggregator_TopLevel(t *testing.T) {
	views := &mocks.MockViewOpener{}
	agg := NewCollectionAggregator("items", &mocks.MockInvoker{}, views, testLogger)

	entry := completed(t, "http://h/objects/Foo/1/collections/items", domain.SubTypeJSON, collectionJSON("items"), agg)
	assert.Equal(t, agg.Update(entry, domain.SubTypeJSON), nil)
	assert.Equal(t, len(views.ListViews), 1)
	assert.Equal(t, agg.Parent() == nil, true)
}
