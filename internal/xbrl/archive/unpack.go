// Package archive implements the XBRL ZIP unpacker (C3): it turns the raw
// ZIP bytes MOPS serves into a filename→bytes map plus a designated
// instance file, and classifies the auxiliary linkbase files by name.
package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"data-collection-system/pkg/errors"
)

// Package is the unpacked contents of one XBRL ZIP.
type Package struct {
	Files            map[string][]byte
	InstancePath     string
	CalculationPath  string
	PresentationPath string
	LabelPath        string
}

// instancePattern matches the iXBRL instance naming convention used by
// MOPS-issued packages (§4.3).
var instancePattern = regexp.MustCompile(`(?i)^tifrs-fr.*-ci-.*\.htm[l]?$`)

// Unpack implements §4.3 exactly: archive/zip is the idiomatic stdlib
// choice here (no example in the pack reaches for a third-party zip
// library for this job — see DESIGN.md).
func Unpack(zipBytes []byte) (*Package, error) {
	r, err := zip.NewReader(bytes.NewReader(zipBytes), int64(len(zipBytes)))
	if err != nil {
		return nil, errors.MalformedPackageError("not a valid zip: " + err.Error())
	}

	files := make(map[string][]byte, len(r.File))
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, errors.MalformedPackageError("cannot open " + f.Name + ": " + err.Error())
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, errors.MalformedPackageError("cannot read " + f.Name + ": " + err.Error())
		}
		files[f.Name] = data
	}

	pkg := &Package{Files: files}

	for name, data := range files {
		base := filepath.Base(name)
		switch {
		case strings.HasSuffix(strings.ToLower(base), "_cal.xml"):
			pkg.CalculationPath = name
		case strings.HasSuffix(strings.ToLower(base), "_pre.xml"):
			pkg.PresentationPath = name
		case strings.HasSuffix(strings.ToLower(base), "_lab.xml"):
			pkg.LabelPath = name
		default:
			_ = data
		}
	}

	pkg.InstancePath = detectInstance(files)
	if pkg.InstancePath == "" {
		return nil, errors.MalformedPackageError("no instance file located in package")
	}

	return pkg, nil
}

// detectInstance implements the §4.3 priority: iXBRL naming convention,
// then an XML file with an <xbrli:xbrl> root, then the largest .htm file.
func detectInstance(files map[string][]byte) string {
	for name := range files {
		if instancePattern.MatchString(filepath.Base(name)) {
			return name
		}
	}

	for name, data := range files {
		if strings.EqualFold(filepath.Ext(name), ".xml") && looksLikeXBRLInstance(data) {
			if isLinkbase(name) {
				continue
			}
			return name
		}
	}

	var largestName string
	var largestSize int
	for name, data := range files {
		if strings.EqualFold(filepath.Ext(name), ".htm") || strings.EqualFold(filepath.Ext(name), ".html") {
			if len(data) > largestSize {
				largestSize = len(data)
				largestName = name
			}
		}
	}
	return largestName
}

func isLinkbase(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, "_cal.xml") || strings.HasSuffix(lower, "_pre.xml") || strings.HasSuffix(lower, "_lab.xml")
}

// looksLikeXBRLInstance does a cheap substring probe for the xbrli:xbrl
// root rather than a full parse; the real parse happens in C5 once this
// file is selected as the instance.
func looksLikeXBRLInstance(data []byte) bool {
	head := data
	if len(head) > 4096 {
		head = head[:4096]
	}
	s := string(head)
	return strings.Contains(s, "xbrli:xbrl") || strings.Contains(s, ":xbrl ") || strings.Contains(s, "<xbrl ") || strings.Contains(s, "<xbrl>")
}
