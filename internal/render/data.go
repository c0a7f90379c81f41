package render

import (
	"html/template"
	"time"
)

// Party is a company shown on a cover: name, address lines and an optional logo.
type Party struct {
	Name    string
	Address []string
	Phone   string
	Email   string
	Logo    template.URL // data: URI, empty when there is no logo
}

// StatusCount is one line of the status summary printed on the dossier cover.
type StatusCount struct {
	Status string
	Count  int
}

type DossierCoverData struct {
	ChantierName       string
	ChantierAddress    []string
	Description        string
	ClientName         string
	MaitreOuvrage      string
	BureauArchitecture string
	Company            Party
	Version            int
	GeneratedAt        time.Time
	GeneratedBy        string
	FicheCount         int
	StatusCounts       []StatusCount
}

type FicheCoverData struct {
	ChantierName string
	Company      Party
	Position     int // 1-based within the dossier
	DisplayName  string
	Reference    string
	Status       string
	SousTraitant *Party
	Remarques    string
	GeneratedAt  time.Time
}

type TOCEntry struct {
	Position    int
	DisplayName string
	Reference   string
	StartPage   int
}

type TOCData struct {
	ChantierName string
	Entries      []TOCEntry
}
