package domain

// Aggregator accumulates the responses of one chain of related fetches into
// its display model. Update is invoked once per relevant LogEntry transition;
// deliveries arrive in any order.
type Aggregator interface {
	Update(entry *LogEntry, subType string) error
	Reset()
	Kind() string
	Model() DisplayModel
}

// DisplayModel is the accumulator owned by exactly one aggregator.
type DisplayModel interface {
	CanBeDisplayed() bool
	Reset()
	AddData(obj TransferObject)
	Title() string
	IsRendered() bool
	SetRendered(rendered bool)
}

// LayoutDisplayModel is a display model that merges a layout and the
// properties it references.
type LayoutDisplayModel interface {
	DisplayModel
	Layout() *Layout
	AddLayout(layout *Layout)
	PropertyLayoutList() []PropertyLayout
	Grid() *Grid
	SetGrid(grid *Grid)
	AddProperty(p *Property)
	AddPropertyDescription(p *Property)
}

// RowDisplayModel is a list-shaped model whose rows arrive one fetch at a time.
type RowDisplayModel interface {
	LayoutDisplayModel
	ExpectRows(n int)
	AddPlaceholderDescription(id string)
}
