package resolver

import (
	"fmt"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// Layout describes where technical sheets live under the document root.
//
//	<root>/<DefaultTree>                       shared default tree
//	<root>/<DefaultTree>/<SitesDir>/<chantier> per-chantier custom tree
//	<root>/<LegacyFolders[i]>                  flat category folders of older layouts
type Layout struct {
	DefaultTree   string   `yaml:"default_tree"`
	SitesDir      string   `yaml:"sites_dir"`
	KnownRoots    []string `yaml:"known_roots"`
	LegacyFolders []string `yaml:"legacy_folders"`
}

// DefaultLayout returns the layout used when no layout file is configured.
func DefaultLayout() Layout {
	return Layout{
		DefaultTree: "fiches-techniques",
		SitesDir:    "chantiers",
		KnownRoots:  []string{"fiches-techniques", "uploads"},
		LegacyFolders: []string{
			"uploads/fiches-techniques",
			"fiches",
			"plomberie",
			"electricite",
			"chauffage",
			"ventilation",
		},
	}
}

// LoadLayout reads a YAML layout file. Keys absent from the file keep their defaults.
func LoadLayout(file string) (Layout, error) {
	l := DefaultLayout()
	data, err := os.ReadFile(file)
	if err != nil {
		return Layout{}, fmt.Errorf("read layout %s: %w", file, err)
	}
	if err := yaml.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("parse layout %s: %w", file, err)
	}
	return l, l.Validate()
}

// Validate checks that every directory of the layout is a clean relative path.
func (l Layout) Validate() error {
	if l.DefaultTree == "" {
		return fmt.Errorf("default_tree is required")
	}
	if l.SitesDir == "" {
		return fmt.Errorf("sites_dir is required")
	}
	dirs := append([]string{l.DefaultTree, l.SitesDir}, l.KnownRoots...)
	dirs = append(dirs, l.LegacyFolders...)
	for _, d := range dirs {
		if !isCleanRelative(d) {
			return fmt.Errorf("layout directory %q must be a relative path inside the document root", d)
		}
	}
	return nil
}

func isCleanRelative(p string) bool {
	if p == "" || strings.HasPrefix(p, "/") || strings.Contains(p, `\`) {
		return false
	}
	c := path.Clean(p)
	return c == p && c != "." && c != ".." && !strings.HasPrefix(c, "../")
}
