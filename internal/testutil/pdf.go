// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// A4Width is the width in points of an A4 portrait page.
const A4Width = 595.0

// MinimalPDF builds a valid PDF with one blank page per width given.
// Pages are 842pt high. With no widths a single A4 page is produced.
func MinimalPDF(widths ...float64) []byte {
	if len(widths) == 0 {
		widths = []float64{A4Width}
	}
	var buf bytes.Buffer
	var offsets []int
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")
	obj("<< /Type /Catalog /Pages 2 0 R >>")

	kids := ""
	for i := range widths {
		kids += fmt.Sprintf("%d 0 R ", 3+i)
	}
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, len(widths)))
	for _, w := range widths {
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %g 842] /Resources << >> >>", w))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f\r\n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n\r\n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

// WritePDF writes a MinimalPDF with the given page count under root and returns its path.
func WritePDF(t testing.TB, root, rel string, pages int) string {
	t.Helper()
	widths := make([]float64, pages)
	for i := range widths {
		widths[i] = A4Width
	}
	return WriteFile(t, root, rel, MinimalPDF(widths...))
}

// WriteFile writes data to root/rel, creating parent directories.
func WriteFile(t testing.TB, root, rel string, data []byte) string {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}
