package models

import "time"

// FicheStatus is the review state of a technical sheet inside a dossier.
type FicheStatus string

const (
	FicheStatusDraft       FicheStatus = "DRAFT"
	FicheStatusNewProposal FicheStatus = "NEW_PROPOSAL"
	FicheStatusValidated   FicheStatus = "VALIDATED"
	FicheStatusRejected    FicheStatus = "REJECTED"
)

// DossierStatus is the lifecycle state of a DossierRecord.
type DossierStatus string

const (
	DossierStatusDraft DossierStatus = "DRAFT"
	DossierStatusFinal DossierStatus = "FINAL"
)

// DossierOptions carries the rendering switches of a generation request.
type DossierOptions struct {
	IncludeTableOfContents bool `json:"includeTableOfContents"`
}

// DossierRequest is the request-scoped description of a dossier to assemble.
// Per-fiche maps are keyed by fiche identifier; missing keys mean "not provided".
type DossierRequest struct {
	ChantierID    string                 `json:"chantierId"`
	FicheIDs      []string               `json:"ficheIds"`
	References    map[string]string      `json:"references,omitempty"`
	Statuts       map[string]FicheStatus `json:"statuts,omitempty"`
	SousTraitants map[string]string      `json:"sousTraitants,omitempty"`
	Remarques     map[string]string      `json:"remarques,omitempty"`
	Options       DossierOptions         `json:"options"`
	DossierID     string                 `json:"dossierId,omitempty"`
}

// StatusOf returns the requested status of a fiche, DRAFT when none was given.
func (r *DossierRequest) StatusOf(ficheID string) FicheStatus {
	if s, ok := r.Statuts[ficheID]; ok && s != "" {
		return s
	}
	return FicheStatusDraft
}

// DossierRecord is the persisted metadata of one generated dossier.
type DossierRecord struct {
	ID               string        `firestore:"-" json:"id"`
	ChantierID       string        `firestore:"chantierId" json:"chantierId"`
	Version          int           `firestore:"version" json:"version"`
	Status           DossierStatus `firestore:"status" json:"status"`
	FichierRef       string        `firestore:"fichierRef" json:"fichierRef"`
	Taille           int64         `firestore:"taille" json:"taille"`
	DateGeneration   time.Time     `firestore:"dateGeneration" json:"dateGeneration"`
	DateModification time.Time     `firestore:"dateModification" json:"dateModification"`
	TableMatieres    bool          `firestore:"tableMatieres" json:"tableMatieres"`
	CreePar          string        `firestore:"creePar" json:"creePar"`
}

// IsPendingDraft reports whether the record is a placeholder draft waiting for its first file.
func (d *DossierRecord) IsPendingDraft() bool {
	return d.Status == DossierStatusDraft && d.FichierRef == ""
}

// FicheRecord is one fiche line of a dossier version. Rows are replaced wholesale on regeneration.
type FicheRecord struct {
	ID             string      `firestore:"-" json:"id"`
	DossierID      string      `firestore:"dossierId" json:"dossierId"`
	FicheID        string      `firestore:"ficheId" json:"ficheId"`
	Reference      string      `firestore:"reference" json:"reference"`
	Version        int         `firestore:"version" json:"version"`
	Statut         FicheStatus `firestore:"statut" json:"statut"`
	Ordre          int         `firestore:"ordre" json:"ordre"`
	SousTraitantID string      `firestore:"sousTraitantId,omitempty" json:"sousTraitantId,omitempty"`
	Remarques      string      `firestore:"remarques,omitempty" json:"remarques,omitempty"`
}

// DocumentRecord registers a generated artifact in the cross-cutting document index.
type DocumentRecord struct {
	ID         string    `firestore:"-" json:"id"`
	ChantierID string    `firestore:"chantierId" json:"chantierId"`
	Nom        string    `firestore:"nom" json:"nom"`
	Type       string    `firestore:"type" json:"type"`
	Chemin     string    `firestore:"chemin" json:"chemin"`
	Taille     int64     `firestore:"taille" json:"taille"`
	MimeType   string    `firestore:"mimeType" json:"mimeType"`
	DossierID  string    `firestore:"dossierId" json:"dossierId"`
	CreePar    string    `firestore:"creePar" json:"creePar"`
	CreatedAt  time.Time `firestore:"createdAt" json:"createdAt"`
}

// DocumentTypeDossierTechnique is the document-index type of generated dossiers.
const DocumentTypeDossierTechnique = "DOSSIER_TECHNIQUE"
