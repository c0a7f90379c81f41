package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/Lllllllleong/dossiertechnique/internal/render"
)

// FakePrinter satisfies render.Printer without a browser. Each print returns
// a MinimalPDF whose pages all have the width chosen by Width, so tests can
// tell generated pages apart from source pages after a merge.
type FakePrinter struct {
	// Pages decides the page count of a print. Nil means one page.
	Pages func(html string) int
	// Width of the printed pages. Zero means 300.
	Width float64
	// Err, when set, fails every print whose HTML contains ErrOn (or all prints if ErrOn is empty).
	Err   error
	ErrOn string

	mu    sync.Mutex
	calls []string
}

func (p *FakePrinter) PrintPDF(_ context.Context, html string, _ render.PageOptions) ([]byte, error) {
	p.mu.Lock()
	p.calls = append(p.calls, html)
	p.mu.Unlock()

	if p.Err != nil && (p.ErrOn == "" || strings.Contains(html, p.ErrOn)) {
		return nil, p.Err
	}
	n := 1
	if p.Pages != nil {
		n = p.Pages(html)
	}
	w := p.Width
	if w == 0 {
		w = 300
	}
	widths := make([]float64, n)
	for i := range widths {
		widths[i] = w
	}
	return MinimalPDF(widths...), nil
}

// Calls returns the HTML of every print, in call order.
func (p *FakePrinter) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.calls))
	copy(out, p.calls)
	return out
}
