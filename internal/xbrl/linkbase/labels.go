package linkbase

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"data-collection-system/pkg/errors"
)

// ParseLabels implements parse_labels (§4.4): two maps (zh, en), language
// from xml:lang, preferred role picked per the verboseLabel < label <
// terseLabel priority. Invalid XML fails with ParseError; an empty
// linkbase yields empty maps, never an error.
func ParseLabels(data []byte) (*LabelSet, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	locs := make(map[string]string) // xlink:label -> concept local-name

	type labelArc struct {
		fromLabel string
		toLabel   string
	}
	var arcs []labelArc

	type rawLabel struct {
		label string // xlink:label on the <label> element itself
		lang  string
		role  string
		text  string
	}
	var rawLabels []rawLabel

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.ParseErr(err, "label linkbase token decode failed")
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "loc":
			label := attrLocal(start.Attr, "label")
			href := attrLocal(start.Attr, "href")
			if label != "" && href != "" {
				locs[label] = conceptFromHref(href)
			}
		case "labelArc":
			from := attrLocal(start.Attr, "from")
			to := attrLocal(start.Attr, "to")
			if from != "" && to != "" {
				arcs = append(arcs, labelArc{fromLabel: from, toLabel: to})
			}
		case "label":
			label := attrLocal(start.Attr, "label")
			lang := attrOrDefault(start.Attr, "lang", "")
			role := roleLocalName(attrLocal(start.Attr, "role"))
			var text string
			if err := dec.DecodeElement(&text, &start); err != nil {
				continue
			}
			rawLabels = append(rawLabels, rawLabel{label: label, lang: lang, role: role, text: strings.TrimSpace(text)})
		}
	}

	set := &LabelSet{Zh: map[string]string{}, En: map[string]string{}}
	bestPriorityZh := map[string]int{}
	bestPriorityEn := map[string]int{}

	resolveConcept := func(labelID string) (string, bool) {
		for _, a := range arcs {
			if a.toLabel == labelID {
				if concept, ok := locs[a.fromLabel]; ok {
					return concept, true
				}
			}
		}
		return "", false
	}

	for _, rl := range rawLabels {
		concept, ok := resolveConcept(rl.label)
		if !ok || rl.text == "" {
			continue
		}
		p := priorityOf(rl.role)
		switch {
		case strings.HasPrefix(rl.lang, "zh"):
			if p >= bestPriorityZh[concept] {
				set.Zh[concept] = rl.text
				bestPriorityZh[concept] = p
			}
		case strings.HasPrefix(rl.lang, "en"):
			if p >= bestPriorityEn[concept] {
				set.En[concept] = rl.text
				bestPriorityEn[concept] = p
			}
		}
	}

	return set, nil
}

// roleLocalName trims an xlink:role URI down to its trailing fragment,
// e.g. "http://www.xbrl.org/2003/role/terseLabel" -> "terseLabel".
func roleLocalName(role string) string {
	if idx := strings.LastIndex(role, "/"); idx >= 0 {
		return role[idx+1:]
	}
	return role
}

func attrOrDefault(attrs []xml.Attr, local, def string) string {
	if v := attrLocal(attrs, local); v != "" {
		return v
	}
	return def
}
