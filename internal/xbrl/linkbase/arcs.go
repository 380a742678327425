package linkbase

import (
	"bytes"
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"data-collection-system/pkg/errors"
)

// locRef resolves an xlink:label (as used by loc/arc elements) to the
// concept local-name carried in its xlink:href fragment.
type locRef struct {
	label   string
	concept string
}

// ParseCalculation implements parse_calculation (§4.4).
func ParseCalculation(data []byte) (ArcSet, error) {
	return parseArcs(data, "calculationArc")
}

// ParsePresentation implements parse_presentation (§4.4).
func ParsePresentation(data []byte) (ArcSet, error) {
	return parseArcs(data, "presentationArc")
}

// parseArcs walks the linkbase with a streaming token decoder, matching
// element local names regardless of namespace prefix (MOPS linkbases are
// not consistent about which prefix they bind to the xlink/link
// namespaces). loc elements resolve xlink:label -> concept local-name;
// arc elements reference from/to labels which are then resolved through
// the loc table built in the same pass.
func parseArcs(data []byte, arcLocalName string) (ArcSet, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	locs := make(map[string]string) // xlink:label -> concept local-name
	type rawArc struct {
		fromLabel, toLabel string
		weight, order      float64
	}
	var rawArcs []rawArc

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.ParseErr(err, "linkbase token decode failed")
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "loc":
			label := attrLocal(start.Attr, "label")
			href := attrLocal(start.Attr, "href")
			if label == "" || href == "" {
				continue
			}
			locs[label] = conceptFromHref(href)
		case arcLocalName:
			from := attrLocal(start.Attr, "from")
			to := attrLocal(start.Attr, "to")
			if from == "" || to == "" {
				continue
			}
			weight := 1.0
			if w := attrLocal(start.Attr, "weight"); w != "" {
				if parsed, err := strconv.ParseFloat(w, 64); err == nil {
					weight = parsed
				}
			}
			order := 1.0
			if o := attrLocal(start.Attr, "order"); o != "" {
				if parsed, err := strconv.ParseFloat(o, 64); err == nil {
					order = parsed
				}
			}
			rawArcs = append(rawArcs, rawArc{fromLabel: from, toLabel: to, weight: weight, order: order})
		}
	}

	result := make(ArcSet)
	for _, ra := range rawArcs {
		fromConcept, ok := locs[ra.fromLabel]
		if !ok {
			continue
		}
		toConcept, ok := locs[ra.toLabel]
		if !ok {
			continue
		}
		result[fromConcept] = append(result[fromConcept], Arc{
			From:   fromConcept,
			To:     toConcept,
			Weight: ra.weight,
			Order:  ra.order,
		})
	}
	for from := range result {
		sortArcs(result[from])
	}
	return result, nil
}

// attrLocal finds an attribute by local name, ignoring its namespace
// prefix — xlink:from/to/weight/order/label/href all appear this way
// across MOPS's inconsistent prefix bindings.
func attrLocal(attrs []xml.Attr, local string) string {
	for _, a := range attrs {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// conceptFromHref extracts the concept local-name from an xlink:href
// fragment, e.g. "tifrs-ci-2023-12-31.xsd#tifrs-ci_CashAndCashEquivalents"
// -> "CashAndCashEquivalents". Falls back to the full fragment when no
// underscore-separated namespace prefix is present.
func conceptFromHref(href string) string {
	frag := href
	if idx := strings.LastIndex(href, "#"); idx >= 0 {
		frag = href[idx+1:]
	}
	if idx := strings.Index(frag, "_"); idx >= 0 {
		return frag[idx+1:]
	}
	return frag
}
