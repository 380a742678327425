package archive

import (
	"archive/zip"
	"bytes"
	"testing"
)

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip writer: %v", err)
	}
	return buf.Bytes()
}

func TestUnpackLocatesIXBRLInstanceByNamingConvention(t *testing.T) {
	zipBytes := buildZip(t, map[string]string{
		"tifrs-fr1001-ci-2024q3.html": "<html><body>instance</body></html>",
		"tifrs-ci-2024_cal.xml":       "<calc/>",
		"tifrs-ci-2024_pre.xml":       "<pres/>",
		"tifrs-ci-2024_lab.xml":       "<labels/>",
		"tifrs-ci-2024.xsd":           "<schema/>",
	})

	pkg, err := Unpack(zipBytes)
	if err != nil {
		t.Fatalf("Unpack failed: %v", err)
	}
	if pkg.InstancePath != "tifrs-fr1001-ci-2024q3.html" {
		t.Fatalf("InstancePath = %q, want the iXBRL-named file", pkg.InstancePath)
	}
	if pkg.CalculationPath != "tifrs-ci-2024_cal.xml" {
		t.Fatalf("CalculationPath = %q", pkg.CalculationPath)
	}
	if pkg.PresentationPath != "tifrs-ci-2024_pre.xml" {
		t.Fatalf("PresentationPath = %q", pkg.PresentationPath)
	}
	if pkg.LabelPath != "tifrs-ci-2024_lab.xml" {
		t.Fatalf("LabelPath = %q", pkg.LabelPath)
	}
	if len(pkg.Files) != 5 {
		t.Fatalf("expected 5 files indexed, got %d", len(pkg.Files))
	}
}

func TestUnpackFallsBackToXMLInstanceRoot(t *testing.T) {
	zipBytes := buildZip(t, map[string]string{
		"instance.xml": `<xbrli:xbrl xmlns:xbrli="http://www.xbrl.org/2003/instance"></xbrli:xbrl>`,
	})
	pkg, err := Unpack(zipBytes)
	if err != nil {
		t.Fatalf("Unpack failed: %v", err)
	}
	if pkg.InstancePath != "instance.xml" {
		t.Fatalf("InstancePath = %q, want instance.xml", pkg.InstancePath)
	}
}

func TestUnpackFallsBackToLargestHTML(t *testing.T) {
	zipBytes := buildZip(t, map[string]string{
		"small.htm": "<html>x</html>",
		"big.htm":   "<html>" + string(make([]byte, 2000)) + "</html>",
	})
	pkg, err := Unpack(zipBytes)
	if err != nil {
		t.Fatalf("Unpack failed: %v", err)
	}
	if pkg.InstancePath != "big.htm" {
		t.Fatalf("InstancePath = %q, want the largest .htm file", pkg.InstancePath)
	}
}

func TestUnpackNoInstanceIsMalformed(t *testing.T) {
	zipBytes := buildZip(t, map[string]string{
		"readme.txt": "nothing useful here",
	})
	_, err := Unpack(zipBytes)
	if err == nil {
		t.Fatalf("expected MalformedPackage error when no instance is locatable")
	}
}

func TestUnpackInvalidZipIsMalformed(t *testing.T) {
	_, err := Unpack([]byte("not a zip file"))
	if err == nil {
		t.Fatalf("expected MalformedPackage error for invalid zip bytes")
	}
}
