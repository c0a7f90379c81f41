package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Lllllllleong/dossiertechnique/internal/models"
	"github.com/Lllllllleong/dossiertechnique/internal/store"
)

// Transition is the versioning decision taken for one generation.
type Transition string

const (
	// TransitionReversion bumps the version of an explicitly named dossier.
	TransitionReversion Transition = "REVERSION"
	// TransitionDraftReuse finishes a placeholder draft of the chantier at version 1.
	TransitionDraftReuse Transition = "DRAFT_REUSE"
	// TransitionCreate creates a new draft dossier at version 1.
	TransitionCreate Transition = "CREATE"
)

// VersionPlan is decided before assembly and applied by Commit after it.
type VersionPlan struct {
	Transition Transition
	Version    int
	// Existing is the record being updated, nil for TransitionCreate.
	Existing *models.DossierRecord
}

// CommitInput describes the artifact a plan is committed with.
type CommitInput struct {
	Request     *models.DossierRequest
	UserID      string
	FichierRef  string
	Filename    string
	Size        int64
	GeneratedAt time.Time
}

// CommitResult holds the records written by Commit.
type CommitResult struct {
	Dossier  *models.DossierRecord
	Fiches   []models.FicheRecord
	Document *models.DocumentRecord
}

// VersionManager owns the dossier versioning state machine.
type VersionManager struct {
	repo store.Repository
}

func NewVersionManager(repo store.Repository) *VersionManager {
	return &VersionManager{repo: repo}
}

// Plan picks the transition. An explicit dossier id that no longer exists, or
// that belongs to another chantier, is treated as absent.
func (m *VersionManager) Plan(ctx context.Context, logCtx *slog.Logger, req *models.DossierRequest) (*VersionPlan, error) {
	if id := strings.TrimSpace(req.DossierID); id != "" {
		existing, err := m.repo.GetDossier(ctx, id)
		switch {
		case err == nil && existing.ChantierID == req.ChantierID:
			return &VersionPlan{Transition: TransitionReversion, Version: existing.Version + 1, Existing: existing}, nil
		case err == nil:
			logCtx.Warn("Requested dossier belongs to another chantier, planning without it.",
				"requestedDossierId", id, "dossierChantierId", existing.ChantierID)
		case errors.Is(err, store.ErrNotFound):
			logCtx.Warn("Requested dossier does not exist, planning without it.", "requestedDossierId", id)
		default:
			return nil, fmt.Errorf("failed to load dossier %s: %w", id, err)
		}
	}

	draft, err := m.repo.FindPendingDraft(ctx, req.ChantierID)
	switch {
	case err == nil:
		return &VersionPlan{Transition: TransitionDraftReuse, Version: 1, Existing: draft}, nil
	case errors.Is(err, store.ErrNotFound):
		return &VersionPlan{Transition: TransitionCreate, Version: 1}, nil
	default:
		return nil, fmt.Errorf("failed to look up draft dossier: %w", err)
	}
}

// Commit persists the plan: the dossier record and its fiche rows in one
// transaction, then the document index row. Failures are PersistenceErrors.
func (m *VersionManager) Commit(ctx context.Context, plan *VersionPlan, in CommitInput) (*CommitResult, error) {
	req := in.Request
	now := in.GeneratedAt

	var rec models.DossierRecord
	switch plan.Transition {
	case TransitionReversion:
		rec = *plan.Existing
		rec.Version = plan.Version
		rec.FichierRef = in.FichierRef
		rec.Taille = in.Size
		rec.DateModification = now
		rec.TableMatieres = req.Options.IncludeTableOfContents
	case TransitionDraftReuse:
		rec = *plan.Existing
		rec.Version = 1
		rec.FichierRef = in.FichierRef
		rec.Taille = in.Size
		rec.DateGeneration = now
		rec.DateModification = now
		rec.TableMatieres = req.Options.IncludeTableOfContents
		if rec.CreePar == "" {
			rec.CreePar = in.UserID
		}
	case TransitionCreate:
		rec = models.DossierRecord{
			ChantierID:       req.ChantierID,
			Version:          1,
			Status:           models.DossierStatusDraft,
			FichierRef:       in.FichierRef,
			Taille:           in.Size,
			DateGeneration:   now,
			DateModification: now,
			TableMatieres:    req.Options.IncludeTableOfContents,
			CreePar:          in.UserID,
		}
	default:
		return nil, fmt.Errorf("unknown transition %q", plan.Transition)
	}

	fiches := FicheRecords(req)
	if err := m.repo.SaveDossier(ctx, &rec, fiches); err != nil {
		return nil, &PersistenceError{Op: "dossier", Err: err}
	}

	doc := &models.DocumentRecord{
		ChantierID: req.ChantierID,
		Nom:        in.Filename,
		Type:       models.DocumentTypeDossierTechnique,
		Chemin:     in.FichierRef,
		Taille:     in.Size,
		MimeType:   "application/pdf",
		DossierID:  rec.ID,
		CreePar:    in.UserID,
		CreatedAt:  now,
	}
	if err := m.repo.CreateDocument(ctx, doc); err != nil {
		return nil, &PersistenceError{Op: "document record", Err: err, RecordSaved: true}
	}
	return &CommitResult{Dossier: &rec, Fiches: fiches, Document: doc}, nil
}

// FicheRecords builds the replacement fiche rows of a request, in request order.
func FicheRecords(req *models.DossierRequest) []models.FicheRecord {
	out := make([]models.FicheRecord, len(req.FicheIDs))
	for i, id := range req.FicheIDs {
		out[i] = models.FicheRecord{
			FicheID:        id,
			Reference:      strings.TrimSpace(req.References[id]),
			Version:        1,
			Statut:         req.StatusOf(id),
			Ordre:          i + 1,
			SousTraitantID: strings.TrimSpace(req.SousTraitants[id]),
			Remarques:      strings.TrimSpace(req.Remarques[id]),
		}
	}
	return out
}
