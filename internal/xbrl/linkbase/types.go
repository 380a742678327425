// Package linkbase implements the three pure linkbase-parsing functions
// (C4): parse_calculation, parse_presentation, parse_labels. Arc XML is
// simple enough that encoding/xml's streaming Decoder is the idiomatic
// choice the pack itself uses for this exact job (see DESIGN.md).
package linkbase

import "sort"

// Arc is one calculation or presentation relationship edge.
type Arc struct {
	From   string
	To     string
	Weight float64
	Order  float64
}

// ArcSet maps a from_concept to its ordered child arcs.
type ArcSet map[string][]Arc

// sortArcs implements the §4.4 ordering rule: order ascending, ties
// broken by to_concept lexicographically.
func sortArcs(arcs []Arc) {
	sort.SliceStable(arcs, func(i, j int) bool {
		if arcs[i].Order != arcs[j].Order {
			return arcs[i].Order < arcs[j].Order
		}
		return arcs[i].To < arcs[j].To
	})
}

// LabelSet holds the zh/en label maps produced by parse_labels, keyed by
// concept local name. Each map already reflects the §4.4 role priority
// (verboseLabel < label < terseLabel); a higher-priority role seen later
// for the same concept overwrites a lower-priority one seen earlier.
type LabelSet struct {
	Zh map[string]string
	En map[string]string
}

// rolePriority implements "verboseLabel < label < terseLabel when
// selecting preferred". Unknown roles rank below verboseLabel.
var rolePriority = map[string]int{
	"verboseLabel": 1,
	"label":        2,
	"terseLabel":   3,
}

func priorityOf(role string) int {
	if p, ok := rolePriority[role]; ok {
		return p
	}
	return 0
}
