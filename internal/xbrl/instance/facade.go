package instance

import "data-collection-system/pkg/errors"

// Extract implements the §4.5 façade: inspect the document and dispatch
// to whichever backend claims it, rather than monkey-patching one mode's
// behavior into the other (design note 9). Facts are returned in the
// order the backend discovered them (document order per §4.5); the
// (concept, context_ref) tie-break is the caller's (C7's) job once facts
// are bound to a context.
func Extract(data []byte) (*Document, error) {
	backend := selectBackend(data)
	if backend == nil {
		return nil, errors.ParseErr(nil, "no iXBRL or XML instance root recognized")
	}

	facts, err := backend.ExtractFacts(data)
	if err != nil {
		return nil, err
	}
	contexts, err := backend.ExtractContexts(data)
	if err != nil {
		return nil, err
	}
	return &Document{Facts: facts, Contexts: contexts}, nil
}

func selectBackend(data []byte) Backend {
	html := htmlBackend{}
	xmlB := xmlBackend{}
	if html.CheckAvailable(data) {
		return html
	}
	if xmlB.CheckAvailable(data) {
		return xmlB
	}
	return nil
}
