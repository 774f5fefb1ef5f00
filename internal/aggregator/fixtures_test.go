package aggregator

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/V4T54L/restnav/internal/domain"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

const (
	jsonLayoutType = `application/json;profile=\"urn:org.restfulobjects:repr-types/object-layout\"`
	bs3LayoutType  = `application/xml;profile=\"urn:org.restfulobjects:repr-types/object-layout-bs3\"`
	descType       = `application/json;profile=\"urn:org.restfulobjects:repr-types/property-description\"`
	propType       = `application/json;profile=\"urn:org.restfulobjects:repr-types/object-property\"`
)

func objectJSON(id, layoutType string, collections ...string) string {
	var members []string
	for _, c := range collections {
		members = append(members, fmt.Sprintf(
			`"%s":{"id":"%s","memberType":"collection","links":[{"rel":"urn:org.restfulobjects:rels/details;collection=\"%s\"","href":"http://h/objects/Foo/%s/collections/%s","method":"GET"}]}`,
			c, c, c, id, c))
	}
	return fmt.Sprintf(`{"instanceId":"%s","title":"Foo %s","domainType":"demo.Foo",
"links":[{"rel":"self","href":"http://h/objects/Foo/%s","method":"GET"},
{"rel":"urn:org.restfulobjects:rels/object-layout","href":"http://h/objects/Foo/%s/object-layout","method":"GET","type":"%s"}],
"members":{%s}}`, id, id, id, id, layoutType, strings.Join(members, ","))
}

func listJSON(hrefs ...string) string {
	var values []string
	for _, h := range hrefs {
		values = append(values, fmt.Sprintf(`{"rel":"urn:org.restfulobjects:rels/element","href":"%s","method":"GET"}`, h))
	}
	return fmt.Sprintf(`{"resulttype":"list","links":[],"result":{"value":[%s]}}`, strings.Join(values, ","))
}

func layoutJSON(propertyHrefs map[string]string, order ...string) string {
	var props []string
	for _, id := range order {
		if href, ok := propertyHrefs[id]; ok {
			props = append(props, fmt.Sprintf(`{"id":"%s","link":{"rel":"urn:org.restfulobjects:rels/property","href":"%s","method":"GET","type":"%s"}}`, id, href, propType))
		} else {
			props = append(props, fmt.Sprintf(`{"id":"%s"}`, id))
		}
	}
	return fmt.Sprintf(`{"row":[{"cols":[{"col":{"span":12,"fieldSet":[{"id":"general","property":[%s]}]}}]}]}`, strings.Join(props, ","))
}

func propertyJSON(id string) string {
	return fmt.Sprintf(`{"id":"%s","memberType":"property","value":"x","links":[
{"rel":"self","href":"http://h/objects/Foo/1/properties/%s","type":"%s"},
{"rel":"urn:org.restfulobjects:rels/describedby","href":"http://h/domain-types/demo.Foo/properties/%s","method":"GET","type":"%s"}]}`, id, id, propType, id, descType)
}

func descriptionJSON(id, name string) string {
	return fmt.Sprintf(`{"id":"%s","memberType":"property","extensions":{"friendlyName":"%s"},"links":[
{"rel":"self","href":"http://h/domain-types/demo.Foo/properties/%s","type":"%s"}]}`, id, name, id, descType)
}

func collectionJSON(id string, hrefs ...string) string {
	var values []string
	for _, h := range hrefs {
		values = append(values, fmt.Sprintf(`{"rel":"urn:org.restfulobjects:rels/value","href":"%s","method":"GET"}`, h))
	}
	return fmt.Sprintf(`{"id":"%s","memberType":"collection","links":[],"value":[%s]}`, id, strings.Join(values, ","))
}

// completed builds a SUCCESS entry with the given response and registered aggregators.
func completed(t *testing.T, url, subType, body string, aggs ...domain.Aggregator) *domain.LogEntry {
	t.Helper()
	now := time.Now()
	e := domain.NewLogEntry(url, domain.MethodGet, subType, "", now)
	for _, a := range aggs {
		e.AddAggregator(a)
	}
	e.SetRunning(now)
	e.SetResponse(body, now)
	e.SetSuccess(now)
	return e
}
