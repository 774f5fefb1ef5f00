package domain

import (
	"encoding/xml"
	"strings"
)

// PropertyLayout places one property in a layout. Its link, when present,
// points at the object property to fetch.
type PropertyLayout struct {
	ID     string `json:"id" xml:"id,attr"`
	Named  string `json:"named,omitempty" xml:"named,omitempty"`
	Hidden string `json:"hidden,omitempty" xml:"hidden,attr,omitempty"`
	Link   *Link  `json:"link,omitempty" xml:"link"`
}

// CollectionLayout places a collection in a layout.
type CollectionLayout struct {
	ID    string `json:"id" xml:"id,attr"`
	Named string `json:"named,omitempty" xml:"named,omitempty"`
	Link  *Link  `json:"link,omitempty" xml:"link"`
}

// FieldSet groups property layouts.
type FieldSet struct {
	ID         string           `json:"id,omitempty" xml:"id,attr"`
	Name       string           `json:"name,omitempty" xml:"name,attr"`
	Properties []PropertyLayout `json:"property,omitempty" xml:"property"`
}

// Layout is the JSON bootstrap layout of an object.
type Layout struct {
	CSSClass string      `json:"cssClass,omitempty"`
	Rows     []LayoutRow `json:"row"`
}

type LayoutRow struct {
	ID   string       `json:"id,omitempty"`
	Cols []LayoutCols `json:"cols"`
}

type LayoutCols struct {
	Col LayoutCol `json:"col"`
}

type LayoutCol struct {
	Span        int                `json:"span,omitempty"`
	Rows        []LayoutRow        `json:"row,omitempty"`
	FieldSets   []FieldSet         `json:"fieldSet,omitempty"`
	Collections []CollectionLayout `json:"collection,omitempty"`
}

// PropertyLayouts walks the layout depth first and returns every property
// layout in document order.
func (l *Layout) PropertyLayouts() []PropertyLayout {
	var out []PropertyLayout
	var walk func(rows []LayoutRow)
	walk = func(rows []LayoutRow) {
		for _, r := range rows {
			for _, c := range r.Cols {
				for _, fs := range c.Col.FieldSets {
					out = append(out, fs.Properties...)
				}
				walk(c.Col.Rows)
			}
		}
	}
	walk(l.Rows)
	return out
}

// Grid is the legacy BS3 XML layout ("bs3:grid").
type Grid struct {
	XMLName xml.Name  `xml:"grid"`
	Rows    []GridRow `xml:"row"`
}

type GridRow struct {
	ID   string    `xml:"id,attr,omitempty"`
	Cols []GridCol `xml:"col"`
}

type GridCol struct {
	Span        int                `xml:"span,attr"`
	Rows        []GridRow          `xml:"row"`
	FieldSets   []FieldSet         `xml:"fieldSet"`
	Collections []CollectionLayout `xml:"collection"`
}

// PropertyLayouts returns every property layout of the grid in document order.
func (g *Grid) PropertyLayouts() []PropertyLayout {
	var out []PropertyLayout
	var walk func(rows []GridRow)
	walk = func(rows []GridRow) {
		for _, r := range rows {
			for _, c := range r.Cols {
				for _, fs := range c.FieldSets {
					out = append(out, fs.Properties...)
				}
				walk(c.Rows)
			}
		}
	}
	walk(g.Rows)
	return out
}

// skipMarker identifies property links into persistence-framework internals.
// Invoking them fails on the server, so they are never fetched.
const skipMarker = "datanucleus"

// Fetchable reports whether the property layout carries a link worth invoking.
func (p PropertyLayout) Fetchable() bool {
	return p.Link != nil && p.Link.Href != "" && !strings.Contains(p.Link.Href, skipMarker)
}
