package domain

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

// DecodeTransferObject classifies a raw response by its shape and decodes it.
// It returns (nil, nil) for well-formed payloads that are not part of the
// transfer-object set; those reach aggregators as "no handler found".
func DecodeTransferObject(subType string, raw []byte) (TransferObject, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}
	if subType == SubTypeXML || raw[0] == '<' {
		return decodeXML(raw)
	}
	return decodeJSON(raw)
}

func decodeJSON(raw []byte) (TransferObject, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	if rt, ok := probe["resulttype"]; ok {
		var resultType string
		if err := json.Unmarshal(rt, &resultType); err != nil {
			return nil, fmt.Errorf("%w: resulttype: %v", ErrDecode, err)
		}
		if resultType == ResultTypeDomainObject {
			if result, ok := probe["result"]; ok {
				return unmarshalInto(result, &TObject{})
			}
		}
		return unmarshalInto(raw, &ResultList{})
	}

	if mt, ok := probe["memberType"]; ok {
		var memberType string
		if err := json.Unmarshal(mt, &memberType); err != nil {
			return nil, fmt.Errorf("%w: memberType: %v", ErrDecode, err)
		}
		switch memberType {
		case MemberTypeProperty:
			return unmarshalInto(raw, &Property{})
		case MemberTypeCollection:
			return unmarshalInto(raw, &Collection{})
		}
		return nil, nil
	}

	if _, ok := probe["instanceId"]; ok {
		return unmarshalInto(raw, &TObject{})
	}
	if _, ok := probe["row"]; ok {
		return unmarshalInto(raw, &Layout{})
	}
	return nil, nil
}

func unmarshalInto[T TransferObject](raw []byte, to T) (TransferObject, error) {
	if err := json.Unmarshal(raw, to); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return to, nil
}

func decodeXML(raw []byte) (TransferObject, error) {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Local != "grid" {
			return nil, nil
		}
		grid := &Grid{}
		if err := dec.DecodeElement(grid, &start); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		return grid, nil
	}
}
