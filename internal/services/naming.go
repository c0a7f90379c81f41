package services

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DisplayName derives the printed name of a fiche from its file name:
// extension dropped, underscores and hyphens turned into spaces, title-cased.
// A Caser is stateful, so each call builds its own.
func DisplayName(path string) string {
	name := filepath.Base(path)
	if ext := filepath.Ext(name); strings.EqualFold(ext, ".pdf") {
		name = strings.TrimSuffix(name, ext)
	}
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	name = strings.Join(strings.Fields(name), " ")
	return cases.Title(language.French).String(name)
}

// OutputFilename returns dossier-technique-<YYYY-MM-DD>.pdf, with a -v<version>
// suffix when an existing dossier is re-versioned.
func OutputFilename(at time.Time, version int, reversion bool) string {
	if reversion {
		return fmt.Sprintf("dossier-technique-%s-v%d.pdf", at.Format(time.DateOnly), version)
	}
	return fmt.Sprintf("dossier-technique-%s.pdf", at.Format(time.DateOnly))
}
