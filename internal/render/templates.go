package render

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"path"
	"strings"
	"time"
	"unicode/utf8"
)

const FileSuffix = ".gohtml"

// Template keys of the embedded set.
const (
	DossierCoverTemplate = "dossier_cover"
	FicheCoverTemplate   = "fiche_cover"
	TOCTemplate          = "toc"
)

//go:embed templates/*.gohtml
var embedded embed.FS

// TemplateStore holds one parsed template per .gohtml file, keyed by its
// slash path relative to the store root without the suffix.
type TemplateStore struct {
	templates map[string]*template.Template
}

func NewTemplateStore() *TemplateStore {
	return &TemplateStore{templates: make(map[string]*template.Template)}
}

// DefaultTemplates returns the store of the embedded dossier templates.
func DefaultTemplates() (*TemplateStore, error) {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		return nil, err
	}
	s := NewTemplateStore()
	if err := s.Load(sub); err != nil {
		return nil, err
	}
	return s, nil
}

// Load parses every template file of fsys. Hidden files and directories are skipped.
func (s *TemplateStore) Load(fsys fs.FS) error {
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p != "." && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(p, FileSuffix) {
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		if !utf8.Valid(data) {
			return fmt.Errorf("file %s is not valid UTF-8", p)
		}
		key := strings.TrimSuffix(path.Clean(p), FileSuffix)
		if _, exists := s.templates[key]; exists {
			return fmt.Errorf("duplicate template key detected: %s", key)
		}
		t, err := template.New(key).Funcs(funcs).Parse(string(data))
		if err != nil {
			return fmt.Errorf("parse error in %s: %w", p, err)
		}
		s.templates[key] = t
		return nil
	})
	if err != nil {
		return err
	}
	slog.Debug("Loaded templates.", "count", len(s.templates))
	return nil
}

func (s *TemplateStore) Get(key string) (*template.Template, bool) {
	t, ok := s.templates[key]
	return t, ok
}

var funcs = template.FuncMap{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("02/01/2006")
	},
	"statusLabel": StatusLabel,
	"add":         func(a, b int) int { return a + b },
}

// StatusLabel returns the French label printed for a fiche status.
func StatusLabel(status string) string {
	switch status {
	case "NEW_PROPOSAL":
		return "Nouvelle proposition"
	case "VALIDATED":
		return "Validée"
	case "REJECTED":
		return "Refusée"
	default:
		return "Brouillon"
	}
}
