package domain

import (
	"encoding/json"
	"sort"
)

// TransferObject is the closed set of payloads an aggregator can receive.
// The unexported marker keeps the set closed to this package so that type
// switches over it only need a default arm for "no handler found".
type TransferObject interface {
	transferObject()
}

// HasLinks is implemented by transfer objects that carry hypermedia controls.
type HasLinks interface {
	TransferObject
	GetLinks() []Link
}

// Result types of an action invocation.
const (
	ResultTypeList         = "list"
	ResultTypeScalarValue  = "scalarvalue"
	ResultTypeDomainObject = "domainobject"
	ResultTypeVoid         = "void"
)

// Member types of a domain object member.
const (
	MemberTypeAction     = "action"
	MemberTypeProperty   = "property"
	MemberTypeCollection = "collection"
)

// Extensions are the vendor extensions attached to most representations.
type Extensions struct {
	OID          string `json:"oid,omitempty"`
	FriendlyName string `json:"friendlyName,omitempty"`
	PluralName   string `json:"pluralName,omitempty"`
	Description  string `json:"description,omitempty"`
	ActionType   string `json:"actionType,omitempty"`
	IsService    bool   `json:"isService,omitempty"`
	IsPersistent bool   `json:"isPersistent,omitempty"`
}

// ResultList is the envelope of an action returning a list of references.
type ResultList struct {
	Links      []Link            `json:"links"`
	ResultType string            `json:"resulttype"`
	Result     *ResultListResult `json:"result,omitempty"`
}

// ResultListResult holds the member links of a ResultList.
type ResultListResult struct {
	Value      []Link      `json:"value"`
	Links      []Link      `json:"links,omitempty"`
	Extensions *Extensions `json:"extensions,omitempty"`
}

// Values returns the member links; void or empty results have none.
func (r *ResultList) Values() []Link {
	if r.ResultType == ResultTypeVoid || r.Result == nil {
		return nil
	}
	return r.Result.Value
}

// Member is a property, collection or action of a domain object.
type Member struct {
	ID             string          `json:"id"`
	MemberType     string          `json:"memberType"`
	Links          []Link          `json:"links,omitempty"`
	Value          json.RawMessage `json:"value,omitempty"`
	Format         string          `json:"format,omitempty"`
	DisabledReason string          `json:"disabledReason,omitempty"`
}

// TObject is a domain object representation.
type TObject struct {
	Links      []Link            `json:"links"`
	Extensions *Extensions       `json:"extensions,omitempty"`
	Title      string            `json:"title"`
	DomainType string            `json:"domainType"`
	InstanceID string            `json:"instanceId"`
	Members    map[string]Member `json:"members,omitempty"`
}

// LayoutLink returns the first link whose href points at a layout.
func (o *TObject) LayoutLink() (Link, bool) {
	for _, l := range o.Links {
		if l.IsLayout() {
			return l, true
		}
	}
	return Link{}, false
}

// CollectionMembers returns the collection members in a stable order.
func (o *TObject) CollectionMembers() []Member {
	var members []Member
	for _, m := range o.Members {
		if m.MemberType == MemberTypeCollection {
			members = append(members, m)
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
	return members
}

// Property is either an object property (with value) or a property
// description, depending on the representation of its self link.
type Property struct {
	ID             string          `json:"id"`
	MemberType     string          `json:"memberType"`
	Links          []Link          `json:"links"`
	Optional       *bool           `json:"optional,omitempty"`
	Title          string          `json:"title,omitempty"`
	Value          json.RawMessage `json:"value,omitempty"`
	Extensions     *Extensions     `json:"extensions,omitempty"`
	Format         string          `json:"format,omitempty"`
	DisabledReason string          `json:"disabledReason,omitempty"`
	MaxLength      int             `json:"maxLength,omitempty"`
}

// IsPropertyDescription reports whether the self link declares the
// property-description representation.
func (p *Property) IsPropertyDescription() bool {
	self, ok := FindLink(p.Links, RelSelf)
	return ok && self.Representation() == ReprPropertyDescription
}

// DescriptionLink returns the describedby link of an object property.
func (p *Property) DescriptionLink() (Link, bool) {
	return FindLink(p.Links, RelDescribedBy)
}

// FriendlyName falls back to the id when no extension names the property.
func (p *Property) FriendlyName() string {
	if p.Extensions != nil && p.Extensions.FriendlyName != "" {
		return p.Extensions.FriendlyName
	}
	return p.ID
}

// Collection is an object-collection representation.
type Collection struct {
	ID         string      `json:"id"`
	MemberType string      `json:"memberType"`
	Links      []Link      `json:"links"`
	Value      []Link      `json:"value"`
	Extensions *Extensions `json:"extensions,omitempty"`
}

func (*ResultList) transferObject() {}
func (*TObject) transferObject()    {}
func (*Layout) transferObject()     {}
func (*Grid) transferObject()       {}
func (*Property) transferObject()   {}
func (*Collection) transferObject() {}

func (r *ResultList) GetLinks() []Link { return r.Links }
func (o *TObject) GetLinks() []Link    { return o.Links }
func (p *Property) GetLinks() []Link   { return p.Links }
func (c *Collection) GetLinks() []Link { return c.Links }
