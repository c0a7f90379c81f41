// Package store persists dossier metadata and reads the records a dossier is built from.
package store

import (
	"context"
	"errors"

	"github.com/Lllllllleong/dossiertechnique/internal/models"
)

// ErrNotFound is returned when a looked-up record does not exist.
var ErrNotFound = errors.New("record not found")

// Repository is the persistence contract of dossier generation.
type Repository interface {
	GetChantier(ctx context.Context, id string) (*models.Chantier, error)
	GetSettings(ctx context.Context) (*models.CompanySettings, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetSousTraitant(ctx context.Context, id string) (*models.SousTraitant, error)

	GetDossier(ctx context.Context, id string) (*models.DossierRecord, error)
	// FindPendingDraft returns a DRAFT dossier of the chantier that has no file yet.
	FindPendingDraft(ctx context.Context, chantierID string) (*models.DossierRecord, error)
	// SaveDossier creates the dossier when d.ID is empty (and sets it), updates it
	// otherwise, and replaces all its fiche rows with fiches in one transaction.
	SaveDossier(ctx context.Context, d *models.DossierRecord, fiches []models.FicheRecord) error
	// ListFiches returns the fiche rows of a dossier ordered by Ordre.
	ListFiches(ctx context.Context, dossierID string) ([]models.FicheRecord, error)
	// CreateDocument inserts a document index row and sets doc.ID.
	CreateDocument(ctx context.Context, doc *models.DocumentRecord) error

	Close() error
}
