// Package render prints HTML templates to PDF pages.
package render

type PaperSize struct {
	Name   string
	Width  float64 // in inches
	Height float64 // in inches
}

var A4 = PaperSize{Name: "A4", Width: 8.27, Height: 11.69} // 210mm x 297mm

const mmPerInch = 25.4

// PageOptions is fixed for every dossier page: A4, portrait, 10mm margins.
type PageOptions struct {
	Paper     PaperSize
	Landscape bool
	MarginMM  float64
}

func DefaultPageOptions() PageOptions {
	return PageOptions{Paper: A4, MarginMM: 10}
}

// Size returns width and height in inches, honouring orientation.
func (o PageOptions) Size() (float64, float64) {
	if o.Landscape {
		return o.Paper.Height, o.Paper.Width
	}
	return o.Paper.Width, o.Paper.Height
}

// MarginInches returns the margin applied on all four sides.
func (o PageOptions) MarginInches() float64 {
	return o.MarginMM / mmPerInch
}
