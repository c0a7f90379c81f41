package render

import (
	"bytes"
	"context"
	"fmt"
)

// Renderer executes a template and prints the result.
type Renderer struct {
	templates *TemplateStore
	printer   Printer
	opts      PageOptions
}

func NewRenderer(templates *TemplateStore, printer Printer) *Renderer {
	return &Renderer{templates: templates, printer: printer, opts: DefaultPageOptions()}
}

// Render produces the PDF of template key applied to data. The result may span several pages.
func (r *Renderer) Render(ctx context.Context, key string, data any) ([]byte, error) {
	t, ok := r.templates.Get(key)
	if !ok {
		return nil, fmt.Errorf("render %s: template not found", key)
	}
	var html bytes.Buffer
	if err := t.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("render %s: execute: %w", key, err)
	}
	pdf, err := r.printer.PrintPDF(ctx, html.String(), r.opts)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", key, err)
	}
	return pdf, nil
}

func (r *Renderer) DossierCover(ctx context.Context, data DossierCoverData) ([]byte, error) {
	return r.Render(ctx, DossierCoverTemplate, data)
}

func (r *Renderer) FicheCover(ctx context.Context, data FicheCoverData) ([]byte, error) {
	return r.Render(ctx, FicheCoverTemplate, data)
}

func (r *Renderer) TableOfContents(ctx context.Context, data TOCData) ([]byte, error) {
	return r.Render(ctx, TOCTemplate, data)
}
