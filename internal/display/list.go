package display

import "github.com/V4T54L/restnav/internal/domain"

// rowModel accumulates domain objects as table rows.
type rowModel struct {
	layoutModel
	rows        []*domain.TObject
	seen        map[string]bool
	expected    int
	expectedSet bool
}

func newRowModel(title string) rowModel {
	return rowModel{layoutModel: newLayoutModel(title), seen: make(map[string]bool)}
}

// AddData appends a domain object row once per instance id. Other payloads
// are ignored.
func (m *rowModel) AddData(obj domain.TransferObject) {
	o, ok := obj.(*domain.TObject)
	if !ok || o == nil {
		return
	}
	key := o.InstanceID
	if key == "" {
		key = o.Title
	}
	if m.seen[key] {
		return
	}
	m.seen[key] = true
	m.rows = append(m.rows, o)
}

// ExpectRows records how many rows the fan-out will deliver.
func (m *rowModel) ExpectRows(n int) {
	m.expected = n
	m.expectedSet = true
}

func (m *rowModel) Rows() []*domain.TObject { return m.rows }

// Columns returns the column ids in layout order with their descriptions.
func (m *rowModel) Columns() []Column {
	var cols []Column
	for _, pl := range m.PropertyLayoutList() {
		name, ok := m.Description(pl.ID)
		if !ok {
			name = pl.ID
		}
		cols = append(cols, Column{ID: pl.ID, Name: name})
	}
	return cols
}

func (m *rowModel) rowsComplete() bool {
	if m.expectedSet {
		return len(m.rows) >= m.expected
	}
	return len(m.rows) > 0
}

func (m *rowModel) empty() bool {
	return m.expectedSet && m.expected == 0
}

func (m *rowModel) reset() {
	*m = newRowModel(m.title)
}

// Column is one table column of a list view.
type Column struct {
	ID   string
	Name string
}

// ListModel backs the table opened for a list-returning action.
type ListModel struct {
	rowModel
}

func NewListModel(title string) *ListModel {
	return &ListModel{rowModel: newRowModel(title)}
}

// CanBeDisplayed is true once every expected row arrived and a layout is
// known. An expected-empty list is displayable immediately.
func (m *ListModel) CanBeDisplayed() bool {
	if m.rendered {
		return false
	}
	if m.empty() {
		return true
	}
	return m.rowsComplete() && m.hasLayout() && m.describedAll()
}

func (m *ListModel) Reset() { m.rowModel.reset() }

// CollectionModel backs the rows of one collection of a domain object.
type CollectionModel struct {
	rowModel
}

func NewCollectionModel(title string) *CollectionModel {
	return &CollectionModel{rowModel: newRowModel(title)}
}

// CanBeDisplayed is true when the collection is known to be empty, or when
// every element and a layout for the element type arrived.
func (m *CollectionModel) CanBeDisplayed() bool {
	if m.rendered {
		return false
	}
	if m.empty() {
		return true
	}
	return m.rowsComplete() && m.hasLayout() && m.describedAll()
}

func (m *CollectionModel) Reset() { m.rowModel.reset() }

var (
	_ domain.RowDisplayModel = (*ListModel)(nil)
	_ domain.RowDisplayModel = (*CollectionModel)(nil)
)
