package pdfdoc

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Segment locates one appended part inside the final document.
type Segment struct {
	Label     string
	StartPage int // 1-based
	Pages     int
}

// Document is an append-only sequence of PDF parts merged on write.
// Parts keep their page order; nothing is reordered or deduplicated.
type Document struct {
	parts    [][]byte
	segments []Segment
	pages    int
}

// NewDocument returns an empty Document.
func NewDocument() *Document {
	return &Document{}
}

// Append adds a whole PDF after the current last page.
func (d *Document) Append(label string, data []byte) (Segment, error) {
	n, err := CountBytes(data)
	if err != nil {
		return Segment{}, fmt.Errorf("append %s: %w", label, err)
	}
	seg := Segment{Label: label, StartPage: d.pages + 1, Pages: n}
	d.parts = append(d.parts, data)
	d.segments = append(d.segments, seg)
	d.pages += n
	return seg, nil
}

// AppendAll appends parts as one unit: either every part is added or none is.
func (d *Document) AppendAll(parts []Part) ([]Segment, error) {
	counts := make([]int, len(parts))
	for i, p := range parts {
		n, err := CountBytes(p.Data)
		if err != nil {
			return nil, fmt.Errorf("append %s: %w", p.Label, err)
		}
		counts[i] = n
	}
	segs := make([]Segment, len(parts))
	for i, p := range parts {
		segs[i] = Segment{Label: p.Label, StartPage: d.pages + 1, Pages: counts[i]}
		d.parts = append(d.parts, p.Data)
		d.segments = append(d.segments, segs[i])
		d.pages += counts[i]
	}
	return segs, nil
}

// Part is a labelled PDF waiting to be appended.
type Part struct {
	Label string
	Data  []byte
}

// PageCount returns the total number of pages appended so far.
func (d *Document) PageCount() int { return d.pages }

// Segments returns the appended parts in order.
func (d *Document) Segments() []Segment {
	out := make([]Segment, len(d.segments))
	copy(out, d.segments)
	return out
}

// Len returns the number of appended parts.
func (d *Document) Len() int { return len(d.parts) }

// WriteTo merges every part in order and writes the result to w.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	if len(d.parts) == 0 {
		return 0, fmt.Errorf("merge: document is empty")
	}
	rsc := make([]io.ReadSeeker, len(d.parts))
	for i, p := range d.parts {
		rsc[i] = bytes.NewReader(p)
	}
	cw := &countingWriter{w: w}
	if err := api.MergeRaw(rsc, cw, false, newConfig()); err != nil {
		return cw.n, fmt.Errorf("merge %d parts: %w", len(d.parts), err)
	}
	return cw.n, nil
}

// Bytes merges the document in memory.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
