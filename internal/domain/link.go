package domain

import (
	"encoding/json"
	"strings"
)

// Subtypes of the representation requested for a resource.
const (
	SubTypeJSON = "json"
	SubTypeXML  = "xml"
)

// HTTP methods used by Restful Objects links.
const (
	MethodGet  = "GET"
	MethodPut  = "PUT"
	MethodPost = "POST"
)

// Relation is the normalized form of a link's rel attribute.
type Relation string

const (
	RelSelf         Relation = "self"
	RelDescribedBy  Relation = "describedby"
	RelUp           Relation = "up"
	RelDetails      Relation = "details"
	RelObjectLayout Relation = "object-layout"
	RelObjectIcon   Relation = "object-icon"
	RelValue        Relation = "value"
	RelInvoke       Relation = "invoke"
	RelElement      Relation = "element"
	RelUnknown      Relation = ""
)

// Representation is the profile part of a link's media type,
// e.g. "property-description" or "object-layout-bs3".
type Representation string

const (
	ReprObject              Representation = "object"
	ReprObjectLayoutBS3     Representation = "object-layout-bs3"
	ReprObjectProperty      Representation = "object-property"
	ReprPropertyDescription Representation = "property-description"
	ReprObjectCollection    Representation = "object-collection"
	ReprList                Representation = "list"
	ReprActionResult        Representation = "action-result"
	ReprUnknown             Representation = ""
)

// Link is a hypermedia control as returned by the server.
type Link struct {
	Rel       string                     `json:"rel" xml:"rel"`
	Href      string                     `json:"href" xml:"href"`
	Method    string                     `json:"method" xml:"method"`
	Type      string                     `json:"type" xml:"type"`
	Title     string                     `json:"title,omitempty" xml:"title,omitempty"`
	Arguments map[string]json.RawMessage `json:"arguments,omitempty" xml:"-"`
}

// Relation strips namespaces ("urn:org.restfulobjects:rels/") and
// parameters (";property=\"name\"") from the rel attribute.
func (l Link) Relation() Relation {
	rel := l.Rel
	if i := strings.Index(rel, ";"); i >= 0 {
		rel = rel[:i]
	}
	if i := strings.LastIndexAny(rel, "/:"); i >= 0 {
		rel = rel[i+1:]
	}
	return Relation(strings.TrimSpace(rel))
}

// Representation extracts the profile name from the link's media type,
// e.g. `application/json;profile="urn:org.restfulobjects:repr-types/object"`.
func (l Link) Representation() Representation {
	i := strings.Index(l.Type, "profile=")
	if i < 0 {
		return ReprUnknown
	}
	profile := strings.Trim(l.Type[i+len("profile="):], "\"' ")
	if j := strings.Index(profile, ";"); j >= 0 {
		profile = strings.Trim(profile[:j], "\"' ")
	}
	if j := strings.LastIndex(profile, "/"); j >= 0 {
		profile = profile[j+1:]
	}
	return Representation(profile)
}

// HTTPMethod defaults to GET when the link does not name a method.
func (l Link) HTTPMethod() string {
	if l.Method == "" {
		return MethodGet
	}
	return strings.ToUpper(l.Method)
}

// IsLayout reports whether the link points at an object layout.
func (l Link) IsLayout() bool {
	return l.Href != "" && strings.Contains(l.Href, "layout")
}

// Body renders the link arguments as a request body. GET links never carry one.
func (l Link) Body() string {
	if len(l.Arguments) == 0 || l.HTTPMethod() == MethodGet {
		return ""
	}
	b, err := json.Marshal(l.Arguments)
	if err != nil {
		return ""
	}
	return string(b)
}

// FindLink returns the first link with the given relation.
func FindLink(links []Link, rel Relation) (Link, bool) {
	for _, l := range links {
		if l.Relation() == rel {
			return l, true
		}
	}
	return Link{}, false
}
