package services

// FicheEstimate is the precomputed page count of one fiche's source PDF.
// Estimated is set when resolution or counting failed and a single page was assumed.
type FicheEstimate struct {
	FicheID     string
	Path        string
	DisplayName string
	Pages       int
	Estimated   bool
}

// LayoutOptions gives the page counts placed before the first fiche.
type LayoutOptions struct {
	CoverPages int
	TOCPages   int
}

// FicheLayout is the position of one fiche in the final document.
// StartPage is the number printed in the table of contents; the fiche cover is
// physical page StartPage+1.
type FicheLayout struct {
	FicheEstimate
	Position  int // 1-based
	StartPage int
}

// ComputePageLayout places every fiche after the cover and TOC pages. Each fiche
// occupies its own cover page plus its source pages. The input is not modified.
func ComputePageLayout(fiches []FicheEstimate, opts LayoutOptions) []FicheLayout {
	out := make([]FicheLayout, len(fiches))
	offset := opts.CoverPages + opts.TOCPages
	for i, f := range fiches {
		pages := f.Pages
		if pages < 1 {
			pages = 1
		}
		out[i] = FicheLayout{FicheEstimate: f, Position: i + 1, StartPage: offset}
		out[i].Pages = pages
		offset += 1 + pages
	}
	return out
}

// TotalPages returns the page count the layout predicts for the whole dossier.
func TotalPages(layout []FicheLayout, opts LayoutOptions) int {
	total := opts.CoverPages + opts.TOCPages
	for _, f := range layout {
		total += 1 + f.Pages
	}
	return total
}
