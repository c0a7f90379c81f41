package models

// These structs define the JSON payloads exchanged with the HTTP function,
// the CloudEvent regeneration trigger and the downstream Cloud Workflow.

// GenerateDossierPayload is the body of a dossier generation request.
// The chantier identifier comes from the URL path.
type GenerateDossierPayload struct {
	FicheIDs      []string               `json:"ficheIds"`
	References    map[string]string      `json:"references,omitempty"`
	Statuts       map[string]FicheStatus `json:"statuts,omitempty"`
	SousTraitants map[string]string      `json:"sousTraitants,omitempty"`
	Remarques     map[string]string      `json:"remarques,omitempty"`
	Options       DossierOptions         `json:"options"`
	DossierID     string                 `json:"dossierId,omitempty"`
}

// ToRequest binds the payload to a chantier.
func (p *GenerateDossierPayload) ToRequest(chantierID string) *DossierRequest {
	return &DossierRequest{
		ChantierID:    chantierID,
		FicheIDs:      p.FicheIDs,
		References:    p.References,
		Statuts:       p.Statuts,
		SousTraitants: p.SousTraitants,
		Remarques:     p.Remarques,
		Options:       p.Options,
		DossierID:     p.DossierID,
	}
}

// ErrorResponse is the JSON error body. Details lists every failing fiche on a 400.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// DossierDetailsResponse is returned by the dossier read endpoint.
type DossierDetailsResponse struct {
	Dossier *DossierRecord `json:"dossier"`
	Fiches  []FicheRecord  `json:"fiches"`
}

// RegenerateDossierEvent is the data of a CloudEvent asking for a dossier regeneration.
type RegenerateDossierEvent struct {
	UserID  string         `json:"userId"`
	Request DossierRequest `json:"request"`
}

// DossierGeneratedPayload is the argument handed to the post-generation workflow.
type DossierGeneratedPayload struct {
	DossierID  string `json:"dossierId"`
	ChantierID string `json:"chantierId"`
	Version    int    `json:"version"`
	FichierRef string `json:"fichierRef"`
	DocumentID string `json:"documentId"`
	PageCount  int    `json:"pageCount"`
}
