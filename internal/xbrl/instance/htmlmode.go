package instance

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/net/html"

	"data-collection-system/internal/numeric"
	"data-collection-system/pkg/errors"
)

// htmlBackend extracts facts/contexts from an iXBRL HTML document by
// walking the parsed node tree for ix:nonfraction / ix:nonnumeric facts
// and xbrli:context elements, grounded on the pack's colon-qualified
// tag-name walk for inline XBRL (golang.org/x/net/html is what colly
// itself builds on, and what the pack's iXBRL parser tests exercise).
type htmlBackend struct{}

func (htmlBackend) CheckAvailable(data []byte) bool {
	head := data
	if len(head) > 4096 {
		head = head[:4096]
	}
	return bytes.Contains(bytes.ToLower(head), []byte("<html"))
}

func (htmlBackend) ExtractFacts(data []byte) ([]Fact, error) {
	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, errors.ParseErr(err, "iXBRL HTML parse failed")
	}

	var facts []Fact
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && strings.Contains(n.Data, ":") {
			local := localTagName(n.Data)
			switch local {
			case "nonfraction", "nonnumeric":
				if f, ok := factFromIXNode(n, local == "nonfraction"); ok {
					facts = append(facts, f)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return facts, nil
}

func (htmlBackend) ExtractContexts(data []byte) (map[string]Context, error) {
	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, errors.ParseErr(err, "iXBRL HTML parse failed")
	}

	contexts := make(map[string]Context)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && localTagName(n.Data) == "context" {
			if ctx, ok := contextFromNode(n); ok {
				contexts[ctx.ID] = ctx
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return contexts, nil
}

func localTagName(tag string) string {
	if idx := strings.Index(tag, ":"); idx >= 0 {
		return tag[idx+1:]
	}
	return tag
}

func attrVal(n *html.Node, local string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(localTagName(a.Key), local) {
			return a.Val
		}
	}
	return ""
}

// factFromIXNode implements the §4.5 scale/sign transform for
// ix:nonfraction facts: final_value = parsed × (sign=="-" ? -1 : 1) × 10^scale.
// ix:nonnumeric facts are preserved verbatim as text.
func factFromIXNode(n *html.Node, numericFact bool) (Fact, bool) {
	name := attrVal(n, "name")
	contextRef := attrVal(n, "contextref")
	if name == "" || contextRef == "" {
		return Fact{}, false
	}
	unitRef := attrVal(n, "unitref")
	text := strings.TrimSpace(textContent(n))

	f := Fact{Concept: name, ContextRef: contextRef, UnitRef: unitRef}
	if !numericFact {
		f.IsText = true
		f.Text = text
		return f, true
	}

	val := numeric.ParseString(text)
	if val == nil {
		return f, true
	}
	scale := 0
	if s := attrVal(n, "scale"); s != "" {
		if parsed, err := strconv.Atoi(s); err == nil {
			scale = parsed
		}
	}
	sign := attrVal(n, "sign")
	adjusted := applyScaleSign(*val, scale, sign)
	f.Numeric = &adjusted
	f.Scale = scale
	return f, true
}

func contextFromNode(n *html.Node) (Context, bool) {
	id := attrVal(n, "id")
	if id == "" {
		return Context{}, false
	}
	ctx := Context{ID: id}
	var entity, period, scenario, segment *html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch localTagName(c.Data) {
		case "entity":
			entity = c
		case "period":
			period = c
		}
	}
	if entity != nil {
		for c := entity.FirstChild; c != nil; c = c.NextSibling {
			switch localTagName(c.Data) {
			case "identifier":
				ctx.EntityIdentifier = strings.TrimSpace(textContent(c))
			case "segment":
				segment = c
			}
		}
	}
	if period != nil {
		for c := period.FirstChild; c != nil; c = c.NextSibling {
			switch localTagName(c.Data) {
			case "instant":
				ctx.Period.IsInstant = true
				ctx.Period.Instant = parseDate(textContent(c))
			case "startdate":
				ctx.Period.StartDate = parseDate(textContent(c))
			case "enddate":
				ctx.Period.EndDate = parseDate(textContent(c))
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if localTagName(c.Data) == "scenario" {
			scenario = c
		}
	}
	opaque := scenario
	if opaque == nil {
		opaque = segment
	}
	if opaque != nil {
		ctx.ScenarioXML = []byte(renderNode(opaque))
		ctx.HasScenario = true
	}
	return ctx, true
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// renderNode serializes a scenario/segment subtree back to its raw
// markup so it can be carried through opaquely (§4.5: preserved, not
// interpreted) without tracking original byte offsets.
func renderNode(n *html.Node) string {
	var buf bytes.Buffer
	html.Render(&buf, n)
	return buf.String()
}

// applyScaleSign implements final_value = parsed × (sign=="-" ? −1 : 1) × 10^scale.
func applyScaleSign(v decimal.Decimal, scale int, sign string) decimal.Decimal {
	out := v.Mul(decimal.New(1, int32(scale)))
	if sign == "-" {
		out = out.Neg()
	}
	return out
}
