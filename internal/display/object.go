package display

import "github.com/V4T54L/restnav/internal/domain"

// ObjectModel backs the view of a single domain object.
type ObjectModel struct {
	layoutModel
	object *domain.TObject
}

func NewObjectModel(title string) *ObjectModel {
	return &ObjectModel{layoutModel: newLayoutModel(title)}
}

// AddData keeps the first domain object delivered.
func (m *ObjectModel) AddData(obj domain.TransferObject) {
	o, ok := obj.(*domain.TObject)
	if !ok || o == nil || m.object != nil {
		return
	}
	m.object = o
}

func (m *ObjectModel) Object() *domain.TObject { return m.object }

func (m *ObjectModel) Title() string {
	if m.object != nil && m.object.Title != "" {
		return m.object.Title
	}
	return m.title
}

// CanBeDisplayed requires the object and its layout. With a JSON layout
// every fetchable property and its description must have arrived as well.
func (m *ObjectModel) CanBeDisplayed() bool {
	if m.rendered || m.object == nil {
		return false
	}
	if m.grid != nil {
		return true
	}
	if m.layout == nil {
		return false
	}
	for _, pl := range m.layout.PropertyLayouts() {
		if !pl.Fetchable() {
			continue
		}
		if _, ok := m.properties[pl.ID]; !ok {
			return false
		}
		if _, ok := m.descriptions[pl.ID]; !ok {
			return false
		}
	}
	return true
}

func (m *ObjectModel) Reset() {
	m.layoutModel.reset()
	m.object = nil
}

var _ domain.LayoutDisplayModel = (*ObjectModel)(nil)
