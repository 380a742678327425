package taxonomy

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"
)

// ExtractConcepts reads the top-level xs:element declarations from an
// XBRL taxonomy schema document and returns their local names. It backs
// the §4.7 "presentation linkbase missing" fallback, which needs every
// concept the package's own schema declares so the flat list can be
// built without a presentation tree to walk.
//
// Only depth-1 elements are considered: taxonomy schemas declare every
// reportable concept as a direct child of xs:schema, nested elements
// belong to complex type definitions the flat fallback has no use for.
func ExtractConcepts(data []byte) []string {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var concepts []string
	depth := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			if err != io.EOF {
				return concepts
			}
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth == 2 && t.Name.Local == "element" {
				if name := attrLocalXSD(t.Attr, "name"); name != "" {
					concepts = append(concepts, name)
				}
			}
		case xml.EndElement:
			depth--
		}
	}
	return concepts
}

func attrLocalXSD(attrs []xml.Attr, local string) string {
	for _, a := range attrs {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// ExtractSchemaLocations reads the root element's xsi:schemaLocation
// attribute (a whitespace-separated list of alternating namespace-URI,
// location-URL pairs per the XML Schema spec) and returns only the
// location URLs — the half the resolver actually fetches (§4.6).
func ExtractSchemaLocations(data []byte) []string {
	dec := xml.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	for err == nil {
		if start, ok := tok.(xml.StartElement); ok {
			raw := attrLocalXSD(start.Attr, "schemaLocation")
			return locationsFromPairs(raw)
		}
		tok, err = dec.Token()
	}
	return nil
}

func locationsFromPairs(raw string) []string {
	fields := strings.Fields(raw)
	var locations []string
	for i := 1; i < len(fields); i += 2 {
		locations = append(locations, fields[i])
	}
	return locations
}
