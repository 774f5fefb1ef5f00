package view

import (
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/go-playground/assert/v2"

	"github.com/V4T54L/restnav/internal/display"
	"github.com/V4T54L/restnav/internal/domain"
)

type modelAggregator struct {
	model domain.DisplayModel
}

func (a *modelAggregator) Update(*domain.LogEntry, string) error { return nil }
func (a *modelAggregator) Reset()                                {}
func (a *modelAggregator) Kind() string                          { return "test" }
func (a *modelAggregator) Model() domain.DisplayModel            { return a.model }

type recordedView struct {
	title string
	panel any
}

type fakeRecorder struct {
	views []recordedView
}

func (r *fakeRecorder) AddView(title string, agg domain.Aggregator, panel any) *domain.LogEntry {
	r.views = append(r.views, recordedView{title: title, panel: panel})
	return nil
}

func layoutWith(ids ...string) *domain.Layout {
	var props []domain.PropertyLayout
	for _, id := range ids {
		props = append(props, domain.PropertyLayout{ID: id})
	}
	return &domain.Layout{Rows: []domain.LayoutRow{{
		Cols: []domain.LayoutCols{{Col: domain.LayoutCol{FieldSets: []domain.FieldSet{{Properties: props}}}}},
	}}}
}

func fooObject(id, name string) *domain.TObject {
	return &domain.TObject{
		Title:      "Foo " + id,
		InstanceID: id,
		Members: map[string]domain.Member{
			"name":  {ID: "name", MemberType: "property", Value: json.RawMessage(`"` + name + `"`)},
			"owner": {ID: "owner", MemberType: "property", Value: json.RawMessage(`{"title":"Bar 7","href":"http://h/objects/Bar/7"}`)},
		},
	}
}

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestConsoleViewOpener_List(t *testing.T) {
	var out strings.Builder
	rec := &fakeRecorder{}
	v := NewConsoleViewOpener(&out, rec, testLogger)

	model := display.NewListModel("listAll")
	model.ExpectRows(2)
	model.AddData(fooObject("1", "alpha"))
	model.AddData(fooObject("2", "beta"))
	model.AddLayout(layoutWith("name", "owner"))
	model.AddPropertyDescription(&domain.Property{ID: "name", Extensions: &domain.Extensions{FriendlyName: "Name"}})
	model.AddPlaceholderDescription("owner")

	v.OpenListView(&modelAggregator{model: model})

	text := out.String()
	assert.Equal(t, strings.HasPrefix(text, "== listAll ==\n"), true)
	assert.Equal(t, strings.Contains(text, "Name"), true)
	assert.Equal(t, strings.Contains(text, "alpha"), true)
	assert.Equal(t, strings.Contains(text, "beta"), true)
	assert.Equal(t, strings.Contains(text, "Bar 7"), true)

	assert.Equal(t, len(rec.views), 1)
	assert.Equal(t, rec.views[0].title, "listAll")
	panel, ok := rec.views[0].panel.(*Panel)
	assert.Equal(t, ok, true)
	assert.Equal(t, panel.Kind, "list")
	assert.Equal(t, panel.Text, text)
}

func TestConsoleViewOpener_Object(t *testing.T) {
	var out strings.Builder
	rec := &fakeRecorder{}
	v := NewConsoleViewOpener(&out, rec, testLogger)

	model := display.NewObjectModel("Foo")
	model.AddData(fooObject("1", "alpha"))
	model.AddLayout(layoutWith("name"))
	model.AddProperty(&domain.Property{ID: "name", Value: json.RawMessage(`"alpha"`)})
	model.AddPropertyDescription(&domain.Property{ID: "name", Extensions: &domain.Extensions{FriendlyName: "Name"}})

	v.OpenObjectView(&modelAggregator{model: model})

	text := out.String()
	assert.Equal(t, strings.HasPrefix(text, "== Foo 1 ==\n"), true)
	assert.Equal(t, strings.Contains(text, "Name:"), true)
	assert.Equal(t, strings.Contains(text, "alpha"), true)
	assert.Equal(t, len(rec.views), 1)
	assert.Equal(t, rec.views[0].title, "Foo 1")
}

func TestConsoleViewOpener_WrongModel(t *testing.T) {
	var out strings.Builder
	rec := &fakeRecorder{}
	v := NewConsoleViewOpener(&out, rec, testLogger)

	v.OpenObjectView(&modelAggregator{model: display.NewListModel("listAll")})
	v.OpenListView(&modelAggregator{model: display.NewObjectModel("Foo")})

	assert.Equal(t, out.Len(), 0)
	assert.Equal(t, len(rec.views), 0)
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: ``, want: ""},
		{raw: `null`, want: ""},
		{raw: `"text"`, want: "text"},
		{raw: `42`, want: "42"},
		{raw: `{"title":"Bar 7"}`, want: "Bar 7"},
		{raw: `[1,2]`, want: "[1,2]"},
	}
	for _, tt := range tests {
		assert.Equal(t, formatValue(json.RawMessage(tt.raw)), tt.want)
	}
}
