package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Lllllllleong/dossiertechnique/internal/models"
	"github.com/Lllllllleong/dossiertechnique/internal/pdfdoc"
	"github.com/Lllllllleong/dossiertechnique/internal/render"
	"github.com/Lllllllleong/dossiertechnique/internal/resolver"
)

// CoverRenderer renders the generated pages of a dossier.
type CoverRenderer interface {
	DossierCover(ctx context.Context, data render.DossierCoverData) ([]byte, error)
	FicheCover(ctx context.Context, data render.FicheCoverData) ([]byte, error)
	TableOfContents(ctx context.Context, data render.TOCData) ([]byte, error)
}

// SousTraitantSource looks subcontractors up by identifier.
type SousTraitantSource interface {
	GetSousTraitant(ctx context.Context, id string) (*models.SousTraitant, error)
}

// AssemblerConfig tunes an Assembler.
type AssemblerConfig struct {
	// PrecomputeConcurrency bounds parallel resolution and counting during the TOC pass.
	PrecomputeConcurrency int
	// FormOverlay stamps reference and status onto each fiche cover.
	FormOverlay bool
}

// Assembler builds the dossier PDF: dossier cover, optional table of contents,
// then each fiche cover followed by the fiche's source pages.
type Assembler struct {
	resolver      *resolver.Resolver
	renderer      CoverRenderer
	sousTraitants SousTraitantSource
	cfg           AssemblerConfig
}

func NewAssembler(r *resolver.Resolver, renderer CoverRenderer, sousTraitants SousTraitantSource, cfg AssemblerConfig) *Assembler {
	if cfg.PrecomputeConcurrency < 1 {
		cfg.PrecomputeConcurrency = 1
	}
	return &Assembler{resolver: r, renderer: renderer, sousTraitants: sousTraitants, cfg: cfg}
}

// AssemblyInput is everything one assembly needs besides the filesystem.
type AssemblyInput struct {
	Request     *models.DossierRequest
	Chantier    *models.Chantier
	Settings    *models.CompanySettings
	User        *models.User
	Plan        *VersionPlan
	GeneratedAt time.Time
}

// AssembledFiche is the accounting line of one merged fiche.
type AssembledFiche struct {
	FicheID     string
	Path        string
	DisplayName string
	Position    int
	CoverPages  int
	Pages       int
	StartPage   int // physical page of the fiche cover
}

// AssembledDossier is the result of a successful assembly.
type AssembledDossier struct {
	Data      []byte
	Filename  string
	PageCount int
	Fiches    []AssembledFiche
	// Layout is the precomputed table of contents, nil when no TOC was requested.
	Layout []FicheLayout
}

// Assemble runs the whole pipeline. Per-fiche failures are collected and
// returned together as FicheErrors; any of them discards the document.
func (a *Assembler) Assemble(ctx context.Context, logCtx *slog.Logger, in AssemblyInput) (*AssembledDossier, error) {
	req := in.Request
	company := a.company(logCtx, in.Settings)
	doc := pdfdoc.NewDocument()

	logCtx.Info("Rendering dossier cover.", "ficheCount", len(req.FicheIDs))
	cover, err := a.renderer.DossierCover(ctx, a.dossierCoverData(in, company))
	if err != nil {
		return nil, fmt.Errorf("failed to render dossier cover: %w", err)
	}
	coverSeg, err := doc.Append("dossier-cover", cover)
	if err != nil {
		return nil, fmt.Errorf("dossier cover: %w", err)
	}

	var layout []FicheLayout
	if req.Options.IncludeTableOfContents {
		layout, err = a.appendTableOfContents(ctx, logCtx, doc, in, coverSeg.Pages)
		if err != nil {
			return nil, err
		}
	}

	var (
		ficheErrs FicheErrors
		fiches    = make([]AssembledFiche, 0, len(req.FicheIDs))
	)
	for i, ficheID := range req.FicheIDs {
		position := i + 1
		content, ferr := a.loadFiche(ficheID, req.ChantierID)
		if ferr != nil {
			logCtx.Warn("Fiche failed.", "ficheId", ficheID, "kind", ferr.Kind, "error", ferr.Err)
			ficheErrs = append(ficheErrs, ferr)
			continue
		}
		if len(ficheErrs) > 0 {
			// the dossier is already lost, keep validating the remaining fiches only
			continue
		}

		coverPDF, err := a.ficheCover(ctx, logCtx, in, company, ficheID, position, content)
		if err != nil {
			return nil, err
		}
		segs, err := doc.AppendAll([]pdfdoc.Part{
			{Label: "fiche-cover:" + ficheID, Data: coverPDF},
			{Label: "fiche:" + ficheID, Data: content.data},
		})
		if err != nil {
			return nil, fmt.Errorf("fiche %s: %w", ficheID, err)
		}
		fiches = append(fiches, AssembledFiche{
			FicheID:     ficheID,
			Path:        content.path,
			DisplayName: content.displayName,
			Position:    position,
			CoverPages:  segs[0].Pages,
			Pages:       segs[1].Pages,
			StartPage:   segs[0].StartPage,
		})
	}
	if len(ficheErrs) > 0 {
		return nil, ficheErrs
	}

	if layout != nil {
		reconcile(logCtx, layout, fiches)
	}

	data, err := doc.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to write merged dossier: %w", err)
	}
	logCtx.Info("Dossier assembled.", "pageCount", doc.PageCount(), "bytes", len(data))

	return &AssembledDossier{
		Data:      data,
		Filename:  OutputFilename(in.GeneratedAt, in.Plan.Version, in.Plan.Transition == TransitionReversion),
		PageCount: doc.PageCount(),
		Fiches:    fiches,
		Layout:    layout,
	}, nil
}

// appendTableOfContents precomputes the layout, renders the TOC and appends it.
// A TOC longer than one page shifts every fiche, so it is rendered a second
// time with the real page count.
func (a *Assembler) appendTableOfContents(ctx context.Context, logCtx *slog.Logger, doc *pdfdoc.Document, in AssemblyInput, coverPages int) ([]FicheLayout, error) {
	estimates, err := a.precompute(ctx, logCtx, in.Request)
	if err != nil {
		return nil, err
	}

	opts := LayoutOptions{CoverPages: coverPages, TOCPages: 1}
	layout := ComputePageLayout(estimates, opts)
	toc, tocPages, err := a.renderTOC(ctx, in, layout)
	if err != nil {
		return nil, err
	}
	if tocPages != opts.TOCPages {
		logCtx.Info("Table of contents spans several pages, recomputing layout.", "tocPages", tocPages)
		opts.TOCPages = tocPages
		layout = ComputePageLayout(estimates, opts)
		var again int
		toc, again, err = a.renderTOC(ctx, in, layout)
		if err != nil {
			return nil, err
		}
		if again != tocPages {
			logCtx.Warn("Table of contents page count did not converge.", "first", tocPages, "second", again)
		}
	}

	if _, err := doc.Append("toc", toc); err != nil {
		return nil, fmt.Errorf("table of contents: %w", err)
	}
	logCtx.Info("Table of contents rendered.", "tocPages", opts.TOCPages, "predictedPages", TotalPages(layout, opts))
	return layout, nil
}

func (a *Assembler) renderTOC(ctx context.Context, in AssemblyInput, layout []FicheLayout) ([]byte, int, error) {
	data := render.TOCData{ChantierName: in.Chantier.Nom, Entries: make([]render.TOCEntry, len(layout))}
	for i, f := range layout {
		data.Entries[i] = render.TOCEntry{
			Position:    f.Position,
			DisplayName: f.DisplayName,
			Reference:   strings.TrimSpace(in.Request.References[f.FicheID]),
			StartPage:   f.StartPage,
		}
	}
	toc, err := a.renderer.TableOfContents(ctx, data)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to render table of contents: %w", err)
	}
	n, err := pdfdoc.CountBytes(toc)
	if err != nil {
		return nil, 0, fmt.Errorf("table of contents: %w", err)
	}
	return toc, n, nil
}

// precompute resolves and counts every fiche in parallel. Failures are not
// fatal here: the fiche is estimated at one page and the merge pass reports it.
func (a *Assembler) precompute(ctx context.Context, logCtx *slog.Logger, req *models.DossierRequest) ([]FicheEstimate, error) {
	estimates := make([]FicheEstimate, len(req.FicheIDs))
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(a.cfg.PrecomputeConcurrency)

	for i, ficheID := range req.FicheIDs {
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			est := FicheEstimate{FicheID: ficheID, DisplayName: DisplayName(ficheID), Pages: 1, Estimated: true}
			path, err := a.resolver.Resolve(ficheID, req.ChantierID)
			if err != nil {
				logCtx.Warn("Fiche not resolved during precomputation, assuming one page.", "ficheId", ficheID, "error", err)
				estimates[i] = est
				return nil
			}
			est.Path, est.DisplayName = path, DisplayName(path)
			n, err := pdfdoc.CountFile(path)
			if err != nil {
				logCtx.Warn("Fiche not counted during precomputation, assuming one page.", "ficheId", ficheID, "error", err)
				estimates[i] = est
				return nil
			}
			est.Pages, est.Estimated = n, false
			estimates[i] = est
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return estimates, nil
}

type ficheContent struct {
	path        string
	displayName string
	data        []byte
}

// loadFiche is the authoritative resolution and load of one fiche.
func (a *Assembler) loadFiche(ficheID, chantierID string) (*ficheContent, *FicheError) {
	path, err := a.resolver.Resolve(ficheID, chantierID)
	if err != nil {
		return nil, &FicheError{FicheID: ficheID, Kind: FicheNotFound, Err: err}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &FicheError{FicheID: ficheID, Path: path, Kind: FicheLoadFailure, Err: err}
	}
	if _, err := pdfdoc.CountBytes(data); err != nil {
		return nil, &FicheError{FicheID: ficheID, Path: path, Kind: FicheLoadFailure, Err: err}
	}
	return &ficheContent{path: path, displayName: DisplayName(path), data: data}, nil
}

func (a *Assembler) ficheCover(ctx context.Context, logCtx *slog.Logger, in AssemblyInput, company render.Party, ficheID string, position int, content *ficheContent) ([]byte, error) {
	req := in.Request
	data := render.FicheCoverData{
		ChantierName: in.Chantier.Nom,
		Company:      company,
		Position:     position,
		DisplayName:  content.displayName,
		Reference:    strings.TrimSpace(req.References[ficheID]),
		Status:       string(req.StatusOf(ficheID)),
		SousTraitant: a.sousTraitant(ctx, logCtx, strings.TrimSpace(req.SousTraitants[ficheID])),
		Remarques:    strings.TrimSpace(req.Remarques[ficheID]),
		GeneratedAt:  in.GeneratedAt,
	}
	cover, err := a.renderer.FicheCover(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("failed to render cover of fiche %s: %w", ficheID, err)
	}
	if a.cfg.FormOverlay {
		cover = a.overlay(logCtx, cover, data)
	}
	return cover, nil
}

// overlay stamps the cover. The stamped version is only kept if its page count is unchanged.
func (a *Assembler) overlay(logCtx *slog.Logger, cover []byte, data render.FicheCoverData) []byte {
	lines := []string{"Statut : " + render.StatusLabel(data.Status)}
	if data.Reference != "" {
		lines = append([]string{"Réf. : " + data.Reference}, lines...)
	}
	stamped, err := pdfdoc.StampText(cover, strings.Join(lines, "\n"))
	if err != nil {
		logRecoverable(logCtx, &RecoverableError{Op: "stamp fiche cover", Err: err})
		return cover
	}
	before, err1 := pdfdoc.CountBytes(cover)
	after, err2 := pdfdoc.CountBytes(stamped)
	if err := errors.Join(err1, err2); err != nil || before != after {
		logRecoverable(logCtx, &RecoverableError{Op: "stamp fiche cover", Err: fmt.Errorf("page count changed from %d to %d: %v", before, after, err)})
		return cover
	}
	return stamped
}

func (a *Assembler) sousTraitant(ctx context.Context, logCtx *slog.Logger, id string) *render.Party {
	if id == "" {
		return nil
	}
	st, err := a.sousTraitants.GetSousTraitant(ctx, id)
	if err != nil {
		logRecoverable(logCtx, &RecoverableError{Op: "load sous-traitant " + id, Err: err})
		return nil
	}
	party := &render.Party{Name: st.Nom}
	logo, rerr := loadLogo(a.resolver.Root(), st.LogoRef)
	if rerr != nil {
		logRecoverable(logCtx, rerr)
	}
	party.Logo = logo
	return party
}

func (a *Assembler) company(logCtx *slog.Logger, s *models.CompanySettings) render.Party {
	p := render.Party{
		Name:    s.Nom,
		Address: addressLines(s.Adresse, s.CodePostal, s.Ville),
		Phone:   s.Telephone,
		Email:   s.Email,
	}
	logo, rerr := loadLogo(a.resolver.Root(), s.LogoRef)
	if rerr != nil {
		logRecoverable(logCtx, rerr)
	}
	p.Logo = logo
	return p
}

func (a *Assembler) dossierCoverData(in AssemblyInput, company render.Party) render.DossierCoverData {
	c := in.Chantier
	data := render.DossierCoverData{
		ChantierName:       c.Nom,
		ChantierAddress:    addressLines(c.Adresse, c.CodePostal, c.Ville),
		Description:        c.Description,
		ClientName:         c.ClientNom,
		MaitreOuvrage:      c.MaitreOuvrage,
		BureauArchitecture: c.BureauArchitecture,
		Company:            company,
		Version:            in.Plan.Version,
		GeneratedAt:        in.GeneratedAt,
		FicheCount:         len(in.Request.FicheIDs),
		StatusCounts:       statusCounts(in.Request),
	}
	if in.User != nil {
		data.GeneratedBy = in.User.Name
	}
	return data
}

// statusOrder is the order statuses are listed on the dossier cover.
var statusOrder = map[models.FicheStatus]int{
	models.FicheStatusValidated:   0,
	models.FicheStatusNewProposal: 1,
	models.FicheStatusDraft:       2,
	models.FicheStatusRejected:    3,
}

func statusCounts(req *models.DossierRequest) []render.StatusCount {
	counts := map[models.FicheStatus]int{}
	for _, id := range req.FicheIDs {
		counts[req.StatusOf(id)]++
	}
	out := make([]render.StatusCount, 0, len(counts))
	for s, n := range counts {
		out = append(out, render.StatusCount{Status: string(s), Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		oi, ok := statusOrder[models.FicheStatus(out[i].Status)]
		if !ok {
			oi = len(statusOrder)
		}
		oj, ok := statusOrder[models.FicheStatus(out[j].Status)]
		if !ok {
			oj = len(statusOrder)
		}
		if oi != oj {
			return oi < oj
		}
		return out[i].Status < out[j].Status
	})
	return out
}

func addressLines(street, postalCode, city string) []string {
	var lines []string
	if s := strings.TrimSpace(street); s != "" {
		lines = append(lines, s)
	}
	if s := strings.TrimSpace(postalCode + " " + city); s != "" {
		lines = append(lines, s)
	}
	return lines
}

// reconcile warns when the printed TOC no longer matches the merged document,
// e.g. a fiche cover spanning two pages or an estimate that turned out wrong.
func reconcile(logCtx *slog.Logger, layout []FicheLayout, fiches []AssembledFiche) {
	var off []string
	for i, f := range fiches {
		if i >= len(layout) {
			break
		}
		if printed := layout[i].StartPage; printed+1 != f.StartPage {
			off = append(off, fmt.Sprintf("%s (printed %d, actual %d)", f.FicheID, printed, f.StartPage-1))
		}
	}
	if len(off) > 0 {
		logCtx.Warn("Table of contents page numbers differ from the merged document.", "fiches", off)
	}
}
