package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/storage"

	"github.com/Lllllllleong/dossiertechnique/internal/config"
	"github.com/Lllllllleong/dossiertechnique/internal/docstore"
	"github.com/Lllllllleong/dossiertechnique/internal/gcp"
	"github.com/Lllllllleong/dossiertechnique/internal/locks"
	"github.com/Lllllllleong/dossiertechnique/internal/models"
	"github.com/Lllllllleong/dossiertechnique/internal/render"
	"github.com/Lllllllleong/dossiertechnique/internal/resolver"
	"github.com/Lllllllleong/dossiertechnique/internal/store"
)

// WorkflowTrigger starts the post-generation workflow.
type WorkflowTrigger interface {
	Trigger(ctx context.Context, payload any) (string, error)
}

// GeneratorDeps are the collaborators of a DossierGenerator.
type GeneratorDeps struct {
	Repo      store.Repository
	Resolver  *resolver.Resolver
	Renderer  CoverRenderer
	Writer    docstore.Writer
	Locker    locks.Locker
	Workflow  WorkflowTrigger // optional
	Assembler AssemblerConfig
	Now       func() time.Time
}

// DossierGenerator runs a complete generation: lookups, lock, versioning plan,
// assembly, file write, metadata commit and workflow hand-off.
type DossierGenerator struct {
	repo      store.Repository
	assembler *Assembler
	versions  *VersionManager
	writer    docstore.Writer
	locker    locks.Locker
	workflow  WorkflowTrigger
	now       func() time.Time
	closers   []io.Closer
}

// GenerateResult is returned to the caller of a successful generation.
type GenerateResult struct {
	Data       []byte
	Filename   string
	PageCount  int
	Transition Transition
	Dossier    *models.DossierRecord
	Fiches     []models.FicheRecord
	Document   *models.DocumentRecord
}

func NewDossierGeneratorWith(deps GeneratorDeps) *DossierGenerator {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &DossierGenerator{
		repo:      deps.Repo,
		assembler: NewAssembler(deps.Resolver, deps.Renderer, deps.Repo, deps.Assembler),
		versions:  NewVersionManager(deps.Repo),
		writer:    deps.Writer,
		locker:    deps.Locker,
		workflow:  deps.Workflow,
		now:       now,
	}
}

// NewDossierGenerator builds the production stack described by cfg.
func NewDossierGenerator(ctx context.Context, cfg *config.Config) (*DossierGenerator, error) {
	var closers []io.Closer
	fail := func(err error) (*DossierGenerator, error) {
		for _, c := range closers {
			_ = c.Close()
		}
		return nil, err
	}

	var repo store.Repository
	switch cfg.DossierStore {
	case config.StoreSQLite:
		s, err := store.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return fail(fmt.Errorf("failed to open sqlite store: %w", err))
		}
		repo = s
	default:
		client, err := gcp.NewFirestoreClient(ctx, cfg.ProjectID)
		if err != nil {
			return fail(err)
		}
		repo = store.NewFirestoreStore(client)
	}
	closers = append(closers, repo)

	templates, err := render.DefaultTemplates()
	if err != nil {
		return fail(fmt.Errorf("failed to load templates: %w", err))
	}
	printer := render.NewRodPrinter(cfg.ChromeURL)
	closers = append(closers, printer)

	var writer docstore.Writer = docstore.NewLocalWriter(cfg.DocumentRoot)
	if cfg.OutputBucket != "" {
		storageClient, err := storage.NewClient(ctx)
		if err != nil {
			return fail(fmt.Errorf("failed to create Storage client: %w", err))
		}
		closers = append(closers, storageClient)
		writer = &docstore.MirroredWriter{Primary: writer, Mirror: gcp.NewBucket(storageClient, cfg.OutputBucket)}
	}

	var locker locks.Locker = locks.NewMemoryLocker()
	if cfg.LockBackend == config.LockRedis {
		rl := locks.NewRedisLocker(cfg.RedisAddr, cfg.LockTTL)
		closers = append(closers, rl)
		locker = rl
	}

	var workflow WorkflowTrigger
	if cfg.WorkflowID != "" {
		wt, err := gcp.NewWorkflowTrigger(ctx, cfg.ProjectID, cfg.WorkflowLocation, cfg.WorkflowID)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, wt)
		workflow = wt
	}

	g := NewDossierGeneratorWith(GeneratorDeps{
		Repo:     repo,
		Resolver: resolver.New(cfg.DocumentRoot, cfg.Layout),
		Renderer: render.NewRenderer(templates, printer),
		Writer:   writer,
		Locker:   locker,
		Workflow: workflow,
		Assembler: AssemblerConfig{
			PrecomputeConcurrency: cfg.PrecomputeConcurrency,
			FormOverlay:           cfg.EnableFormOverlay,
		},
	})
	g.closers = closers
	slog.Info("Dossier generator initialized.", "store", cfg.DossierStore, "locks", cfg.LockBackend,
		"mirror", cfg.OutputBucket != "", "workflow", cfg.WorkflowID)
	return g, nil
}

// Close releases every client opened by NewDossierGenerator.
func (g *DossierGenerator) Close() error {
	var errs []error
	for _, c := range g.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// Generate produces, stores and records a dossier for req on behalf of userID.
func (g *DossierGenerator) Generate(ctx context.Context, userID string, req *models.DossierRequest) (*GenerateResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	logCtx := slog.With("chantierId", req.ChantierID, "userId", userID, "requestedDossierId", req.DossierID)
	logCtx.Info("Processing dossier generation request.", "ficheCount", len(req.FicheIDs),
		"includeTableOfContents", req.Options.IncludeTableOfContents)

	chantier, err := g.repo.GetChantier(ctx, req.ChantierID)
	if err != nil {
		return nil, lookupError(err, "chantier", req.ChantierID)
	}
	settings, err := g.repo.GetSettings(ctx)
	if err != nil {
		return nil, lookupError(err, "company settings", "")
	}
	user, err := g.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, lookupError(err, "user", userID)
	}

	release, err := g.locker.TryLock(ctx, "chantier:"+req.ChantierID)
	if err != nil {
		logCtx.Warn("Generation already running for chantier.", "error", err)
		return nil, err
	}
	defer release()

	plan, err := g.versions.Plan(ctx, logCtx, req)
	if err != nil {
		return nil, err
	}
	logCtx = logCtx.With("transition", plan.Transition, "version", plan.Version)

	generatedAt := g.now()
	dossier, err := g.assembler.Assemble(ctx, logCtx, AssemblyInput{
		Request:     req,
		Chantier:    chantier,
		Settings:    settings,
		User:        user,
		Plan:        plan,
		GeneratedAt: generatedAt,
	})
	if err != nil {
		if fe, ok := AsFicheErrors(err); ok {
			logCtx.Warn("Dossier rejected, fiches failed.", "failedFiches", fe.FicheIDs())
		} else {
			logCtx.Error("Dossier assembly failed.", "error", err)
		}
		return nil, err
	}

	ref, err := g.writer.Write(ctx, req.ChantierID, dossier.Filename, dossier.Data)
	if err != nil {
		logCtx.Error("Failed to write dossier file.", "error", err)
		return nil, fmt.Errorf("failed to write dossier: %w", err)
	}
	logCtx = logCtx.With("fichierRef", ref)

	committed, err := g.versions.Commit(ctx, plan, CommitInput{
		Request:     req,
		UserID:      userID,
		FichierRef:  ref,
		Filename:    dossier.Filename,
		Size:        int64(len(dossier.Data)),
		GeneratedAt: generatedAt,
	})
	if err != nil {
		var pe *PersistenceError
		if errors.As(err, &pe) && pe.RecordSaved {
			// the saved record points at the file, keep it
			logCtx.Error("Dossier saved but its document record failed, keeping written file.", "error", err)
			return nil, err
		}
		logCtx.Error("Failed to persist dossier metadata, removing written file.", "error", err)
		if rmErr := g.writer.Remove(context.WithoutCancel(ctx), ref); rmErr != nil {
			logCtx.Error("CRITICAL: Failed to remove dossier file after a persistence error.", "removeError", rmErr)
		}
		return nil, err
	}
	logCtx = logCtx.With("dossierId", committed.Dossier.ID)
	logCtx.Info("Dossier generated.", "pageCount", dossier.PageCount, "bytes", len(dossier.Data))

	g.handOff(ctx, logCtx, committed, dossier)

	return &GenerateResult{
		Data:       dossier.Data,
		Filename:   dossier.Filename,
		PageCount:  dossier.PageCount,
		Transition: plan.Transition,
		Dossier:    committed.Dossier,
		Fiches:     committed.Fiches,
		Document:   committed.Document,
	}, nil
}

// handOff triggers the downstream workflow. It is best effort.
func (g *DossierGenerator) handOff(ctx context.Context, logCtx *slog.Logger, c *CommitResult, d *AssembledDossier) {
	if g.workflow == nil {
		return
	}
	exec, err := g.workflow.Trigger(ctx, models.DossierGeneratedPayload{
		DossierID:  c.Dossier.ID,
		ChantierID: c.Dossier.ChantierID,
		Version:    c.Dossier.Version,
		FichierRef: c.Dossier.FichierRef,
		DocumentID: c.Document.ID,
		PageCount:  d.PageCount,
	})
	if err != nil {
		logRecoverable(logCtx, &RecoverableError{Op: "trigger workflow", Err: err})
		return
	}
	logCtx.Info("Hand-off to workflow complete.", "execution", exec)
}

// GetDossier returns a dossier record with its fiche rows.
func (g *DossierGenerator) GetDossier(ctx context.Context, id string) (*models.DossierDetailsResponse, error) {
	d, err := g.repo.GetDossier(ctx, id)
	if err != nil {
		return nil, lookupError(err, "dossier", id)
	}
	fiches, err := g.repo.ListFiches(ctx, id)
	if err != nil {
		return nil, err
	}
	if fiches == nil {
		fiches = []models.FicheRecord{}
	}
	return &models.DossierDetailsResponse{Dossier: d, Fiches: fiches}, nil
}

func lookupError(err error, kind, id string) error {
	if errors.Is(err, store.ErrNotFound) {
		return &NotFoundError{Kind: kind, ID: id}
	}
	return fmt.Errorf("failed to load %s: %w", kind, err)
}

func validateRequest(req *models.DossierRequest) error {
	if req == nil {
		return &ValidationError{Msg: "request is empty"}
	}
	if strings.TrimSpace(req.ChantierID) == "" {
		return &ValidationError{Msg: "chantier id is required"}
	}
	if len(req.FicheIDs) == 0 {
		return &ValidationError{Msg: "at least one fiche is required"}
	}
	seen := make(map[string]bool, len(req.FicheIDs))
	for i, id := range req.FicheIDs {
		if strings.TrimSpace(id) == "" {
			return &ValidationError{Msg: fmt.Sprintf("fiche %d has an empty identifier", i+1)}
		}
		if seen[id] {
			return &ValidationError{Msg: fmt.Sprintf("fiche %s is listed twice", id)}
		}
		seen[id] = true
	}
	for id, s := range req.Statuts {
		switch s {
		case "", models.FicheStatusDraft, models.FicheStatusNewProposal, models.FicheStatusValidated, models.FicheStatusRejected:
		default:
			return &ValidationError{Msg: fmt.Sprintf("fiche %s has an unknown status %q", id, s)}
		}
	}
	return nil
}
