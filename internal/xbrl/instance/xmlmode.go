package instance

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"
	"time"

	"data-collection-system/internal/numeric"
	"data-collection-system/pkg/errors"
)

// xmlBackend extracts facts/contexts from a plain XBRL XML instance
// document (root <xbrli:xbrl>), grounded on the pack's streaming
// encoding/xml token-walk approach (RxDataLab-go-edgar's xbrl.go) but
// reconstructing namespace prefixes from the root element's xmlns:*
// declarations instead of guessing from the namespace URI string.
type xmlBackend struct{}

func (xmlBackend) CheckAvailable(data []byte) bool {
	head := data
	if len(head) > 4096 {
		head = head[:4096]
	}
	s := string(head)
	return strings.Contains(s, "<xbrli:xbrl") || strings.Contains(s, ":xbrl ") || strings.Contains(s, "<xbrl ") || strings.Contains(s, "<xbrl>")
}

// namespacesFromRoot captures every xmlns:prefix declaration on the
// document's root start element, so concept names can be rebuilt as
// "prefix:LocalName" regardless of which prefix the document bound to
// which schema (MOPS instances are not consistent about this).
func namespacesFromRoot(dec *xml.Decoder) (map[string]string, error) {
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		if start, ok := tok.(xml.StartElement); ok {
			ns := make(map[string]string)
			for _, a := range start.Attr {
				if a.Name.Space == "xmlns" {
					ns[a.Value] = a.Name.Local
				} else if a.Name.Local == "xmlns" {
					ns[a.Value] = ""
				}
			}
			return ns, nil
		}
	}
}

func (xmlBackend) ExtractFacts(data []byte) ([]Fact, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	nsToPrefix, err := namespacesFromRoot(xml.NewDecoder(bytes.NewReader(data)))
	if err != nil {
		return nil, errors.ParseErr(err, "could not read root element")
	}

	var facts []Fact
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.ParseErr(err, "instance token decode failed")
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		contextRef := attrLocalXML(start.Attr, "contextRef")
		if contextRef == "" {
			continue
		}
		unitRef := attrLocalXML(start.Attr, "unitRef")

		var raw struct {
			InnerXML []byte `xml:",innerxml"`
		}
		if err := dec.DecodeElement(&raw, &start); err != nil {
			continue
		}
		text := strings.TrimSpace(string(raw.InnerXML))

		concept := qualifiedName(start.Name, nsToPrefix)

		f := Fact{Concept: concept, ContextRef: contextRef, UnitRef: unitRef}
		if unitRef != "" {
			// Plain XML instance facts carry no scale/sign transform;
			// that is an iXBRL-only presentation convention (§4.5).
			f.Numeric = numeric.ParseString(text)
		} else {
			f.IsText = true
			f.Text = text
		}
		facts = append(facts, f)
	}
	return facts, nil
}

func (xmlBackend) ExtractContexts(data []byte) (map[string]Context, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	contexts := make(map[string]Context)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.ParseErr(err, "context decode failed")
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "context" {
			continue
		}
		id := attrLocalXML(start.Attr, "id")
		if id == "" {
			continue
		}

		var raw struct {
			Entity struct {
				Identifier string `xml:"identifier"`
			} `xml:"entity"`
			Period struct {
				Instant   string `xml:"instant"`
				StartDate string `xml:"startDate"`
				EndDate   string `xml:"endDate"`
			} `xml:"period"`
			Scenario struct {
				InnerXML []byte `xml:",innerxml"`
			} `xml:"scenario"`
			Segment struct {
				InnerXML []byte `xml:",innerxml"`
			} `xml:"entity>segment"`
		}
		if err := dec.DecodeElement(&raw, &start); err != nil {
			continue
		}

		ctx := Context{ID: id, EntityIdentifier: strings.TrimSpace(raw.Entity.Identifier)}
		switch {
		case raw.Period.Instant != "":
			ctx.Period.IsInstant = true
			ctx.Period.Instant = parseDate(raw.Period.Instant)
		default:
			ctx.Period.StartDate = parseDate(raw.Period.StartDate)
			ctx.Period.EndDate = parseDate(raw.Period.EndDate)
		}
		if len(raw.Scenario.InnerXML) > 0 {
			ctx.ScenarioXML = raw.Scenario.InnerXML
			ctx.HasScenario = true
		} else if len(raw.Segment.InnerXML) > 0 {
			ctx.ScenarioXML = raw.Segment.InnerXML
			ctx.HasScenario = true
		}
		contexts[id] = ctx
	}
	return contexts, nil
}

func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func attrLocalXML(attrs []xml.Attr, local string) string {
	for _, a := range attrs {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func qualifiedName(name xml.Name, nsToPrefix map[string]string) string {
	if name.Space == "" {
		return name.Local
	}
	if prefix, ok := nsToPrefix[name.Space]; ok && prefix != "" {
		return prefix + ":" + name.Local
	}
	return name.Local
}
