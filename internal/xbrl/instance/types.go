// Package instance implements the iXBRL/instance parser (C5): extraction
// of facts and contexts from either an iXBRL HTML document or a plain
// XBRL XML instance document, behind one shared interface (design note 9:
// no monkey-patching, the façade simply picks the available backend per
// document).
package instance

import (
	"time"

	"github.com/shopspring/decimal"
)

// Fact is one bound (concept, context) value extracted from the
// instance document, already scale/sign-adjusted per §4.5.
type Fact struct {
	Concept    string
	ContextRef string
	UnitRef    string
	// Numeric holds the parsed, scale/sign-adjusted value when UnitRef is
	// present; Text holds the raw string otherwise (ix:nonnumeric facts
	// and non-numeric XML instance children).
	Numeric *decimal.Decimal
	Text    string
	IsText  bool
	// Scale carries the iXBRL "scale" attribute verbatim (§4.5) for
	// numeric facts so callers can report the issuer's power-of-ten
	// multiplier (§6 unit_scale) without re-deriving it from Numeric.
	// Zero for plain XML-instance facts, which carry no scale transform.
	Scale int
}

// Period is a resolved context period: either an instant or a duration.
type Period struct {
	Instant   time.Time
	StartDate time.Time
	EndDate   time.Time
	IsInstant bool
}

// Context is one <xbrli:context> resolved into entity/period/scenario.
type Context struct {
	ID               string
	EntityIdentifier string
	Period           Period
	// ScenarioXML preserves the opaque scenario/segment bytes verbatim;
	// §4.5 requires they be carried through, not interpreted.
	ScenarioXML []byte
	HasScenario bool
}

// Document is the full extraction result of one instance document.
type Document struct {
	Facts             []Fact
	Contexts          map[string]Context
	NamespaceByPrefix map[string]string
}

// Backend is the dual-mode extraction interface from design note 9: an
// HTML/iXBRL implementation and an XML-instance implementation, selected
// by the façade on content inspection, never by monkey-patching one into
// the other.
type Backend interface {
	CheckAvailable(data []byte) bool
	ExtractFacts(data []byte) ([]Fact, error)
	ExtractContexts(data []byte) (map[string]Context, error)
}
