// Package display holds the accumulators that aggregators fill while a chain
// of fetches completes. Models are only touched from the dispatcher goroutine.
package display

import (
	"github.com/V4T54L/restnav/internal/domain"
)

// layoutModel carries the state shared by every layout-bearing model.
type layoutModel struct {
	title        string
	rendered     bool
	layout       *domain.Layout
	grid         *domain.Grid
	properties   map[string]*domain.Property
	propertyIDs  []string
	descriptions map[string]string
}

func newLayoutModel(title string) layoutModel {
	return layoutModel{
		title:        title,
		properties:   make(map[string]*domain.Property),
		descriptions: make(map[string]string),
	}
}

func (m *layoutModel) reset() {
	*m = newLayoutModel(m.title)
}

func (m *layoutModel) Title() string { return m.title }
func (m *layoutModel) IsRendered() bool { return m.rendered }
func (m *layoutModel) SetRendered(r bool) { m.rendered = r }
func (m *layoutModel) Layout() *domain.Layout { return m.layout }
func (m *layoutModel) Grid() *domain.Grid { return m.grid }
func (m *layoutModel) SetGrid(g *domain.Grid) { m.grid = g }

// AddLayout keeps the first layout; later deliveries are ignored.
func (m *layoutModel) AddLayout(l *domain.Layout) {
	if m.layout == nil {
		m.layout = l
	}
}

// PropertyLayoutList returns the property layouts of the merged layout, or of
// the grid when only a grid is present.
func (m *layoutModel) PropertyLayoutList() []domain.PropertyLayout {
	switch {
	case m.layout != nil:
		return m.layout.PropertyLayouts()
	case m.grid != nil:
		return m.grid.PropertyLayouts()
	}
	return nil
}

func (m *layoutModel) AddProperty(p *domain.Property) {
	if p == nil {
		return
	}
	if _, ok := m.properties[p.ID]; !ok {
		m.propertyIDs = append(m.propertyIDs, p.ID)
	}
	m.properties[p.ID] = p
}

func (m *layoutModel) AddPropertyDescription(p *domain.Property) {
	if p == nil {
		return
	}
	m.descriptions[p.ID] = p.FriendlyName()
}

// AddPlaceholderDescription names a column after its id until the real
// description arrives.
func (m *layoutModel) AddPlaceholderDescription(id string) {
	if _, ok := m.descriptions[id]; !ok {
		m.descriptions[id] = id
	}
}

// Properties returns the data properties in arrival order.
func (m *layoutModel) Properties() []*domain.Property {
	out := make([]*domain.Property, 0, len(m.propertyIDs))
	for _, id := range m.propertyIDs {
		out = append(out, m.properties[id])
	}
	return out
}

// Description returns the friendly name recorded for a property id.
func (m *layoutModel) Description(id string) (string, bool) {
	d, ok := m.descriptions[id]
	return d, ok
}

func (m *layoutModel) hasLayout() bool {
	return m.layout != nil || m.grid != nil
}

func (m *layoutModel) describedAll() bool {
	for _, id := range m.propertyIDs {
		if _, ok := m.descriptions[id]; !ok {
			return false
		}
	}
	return true
}
