package models

// Chantier is the construction site a dossier belongs to.
type Chantier struct {
	ID                 string `firestore:"-" json:"id"`
	Nom                string `firestore:"nom" json:"nom"`
	Adresse            string `firestore:"adresse" json:"adresse"`
	CodePostal         string `firestore:"codePostal" json:"codePostal"`
	Ville              string `firestore:"ville" json:"ville"`
	Description        string `firestore:"description,omitempty" json:"description,omitempty"`
	ClientNom          string `firestore:"clientNom" json:"clientNom"`
	MaitreOuvrage      string `firestore:"maitreOuvrage,omitempty" json:"maitreOuvrage,omitempty"`
	BureauArchitecture string `firestore:"bureauArchitecture,omitempty" json:"bureauArchitecture,omitempty"`
}

// CompanySettings holds the company identity printed on covers.
type CompanySettings struct {
	Nom        string `firestore:"nom" json:"nom"`
	Adresse    string `firestore:"adresse" json:"adresse"`
	CodePostal string `firestore:"codePostal" json:"codePostal"`
	Ville      string `firestore:"ville" json:"ville"`
	Telephone  string `firestore:"telephone,omitempty" json:"telephone,omitempty"`
	Email      string `firestore:"email,omitempty" json:"email,omitempty"`
	LogoRef    string `firestore:"logo,omitempty" json:"logo,omitempty"`
}

// SousTraitant is a subcontractor attached to a fiche.
type SousTraitant struct {
	ID      string `firestore:"-" json:"id"`
	Nom     string `firestore:"nom" json:"nom"`
	LogoRef string `firestore:"logo,omitempty" json:"logo,omitempty"`
}

// User is the authenticated operator generating the dossier.
type User struct {
	ID    string `firestore:"-" json:"id"`
	Name  string `firestore:"name" json:"name"`
	Email string `firestore:"email" json:"email"`
}
