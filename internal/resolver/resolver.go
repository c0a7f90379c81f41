// Package resolver locates technical sheet PDFs inside the document tree.
//
// A chantier either owns a custom tree or uses the shared default tree, and the
// two are never mixed: a chantier with a custom tree is served from it alone,
// and a chantier without one never receives a file from another chantier's tree.
package resolver

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrNotFound is matched by every resolution failure.
var ErrNotFound = errors.New("fiche not found")

// NotFoundError is the typed outcome of a failed resolution.
type NotFoundError struct {
	FicheID    string
	ChantierID string
	Reason     string
}

func (e *NotFoundError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("fiche %q not found", e.FicheID)
	}
	return fmt.Sprintf("fiche %q not found: %s", e.FicheID, e.Reason)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// Resolver resolves fiche identifiers against one document root. It only reads
// the filesystem and holds no mutable state, so it is safe for concurrent use.
type Resolver struct {
	root       string
	layout     Layout
	strategies []strategy
}

// New returns a Resolver rooted at root.
func New(root string, layout Layout) *Resolver {
	return &Resolver{
		root:   filepath.Clean(root),
		layout: layout,
		strategies: []strategy{
			directPath,
			customTree,
			defaultTree,
			legacyFolders,
		},
	}
}

// Root returns the document root.
func (r *Resolver) Root() string { return r.root }

// DefaultTree returns the absolute path of the shared default tree.
func (r *Resolver) DefaultTree() string {
	return filepath.Join(r.root, filepath.FromSlash(r.layout.DefaultTree))
}

// SitesRoot returns the directory holding every per-chantier custom tree.
func (r *Resolver) SitesRoot() string {
	return filepath.Join(r.DefaultTree(), filepath.FromSlash(r.layout.SitesDir))
}

// CustomTree returns the custom tree of a chantier and whether it exists.
func (r *Resolver) CustomTree(chantierID string) (string, bool) {
	if !isPlainName(chantierID) {
		return "", false
	}
	dir := filepath.Join(r.SitesRoot(), chantierID)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", false
	}
	return dir, true
}

// Resolve returns the absolute path of the PDF for ficheID. chantierID may be empty.
// The first strategy to produce a hit wins; a rejection ends resolution.
func (r *Resolver) Resolve(ficheID, chantierID string) (string, error) {
	ficheID = strings.TrimSpace(ficheID)
	if ficheID == "" {
		return "", &NotFoundError{FicheID: ficheID, ChantierID: chantierID, Reason: "empty identifier"}
	}
	q := query{r: r, ficheID: ficheID, chantierID: chantierID}
	q.customRoot, q.hasCustom = r.CustomTree(chantierID)

	for _, s := range r.strategies {
		p, res := s(q)
		switch res {
		case hit:
			return p, nil
		case reject:
			return "", &NotFoundError{FicheID: ficheID, ChantierID: chantierID, Reason: p}
		}
	}
	reason := "not found in default tree"
	if q.hasCustom {
		reason = "not found in chantier tree"
	}
	return "", &NotFoundError{FicheID: ficheID, ChantierID: chantierID, Reason: reason}
}

type result int

const (
	pass result = iota
	hit
	reject // path carries the reason
)

type query struct {
	r          *Resolver
	ficheID    string
	chantierID string
	customRoot string
	hasCustom  bool
}

type strategy func(q query) (string, result)

// directPath handles identifiers that are already paths under a known root segment.
func directPath(q query) (string, result) {
	rel := strings.TrimPrefix(filepath.ToSlash(q.ficheID), "/")
	first, _, _ := strings.Cut(rel, "/")
	if !q.r.isKnownRoot(first) {
		return "", pass
	}
	rel = path.Clean(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "escapes the document root", reject
	}
	p := filepath.Join(q.r.root, filepath.FromSlash(rel))
	if !isFile(p) {
		return "", pass
	}
	if q.hasCustom {
		if !within(q.customRoot, p) {
			return "path is outside the chantier tree", reject
		}
		return p, hit
	}
	if within(q.r.SitesRoot(), p) {
		return "path belongs to a chantier tree", reject
	}
	return p, hit
}

// customTree searches only the chantier's own tree, and is final when that tree exists.
func customTree(q query) (string, result) {
	if !q.hasCustom {
		return "", pass
	}
	if p, ok := searchTree(q.customRoot, candidateNames(q.ficheID), ""); ok {
		return p, hit
	}
	return "not found in chantier tree", reject
}

// defaultTree searches the shared tree, skipping the per-chantier subtree.
func defaultTree(q query) (string, result) {
	if q.hasCustom {
		return "", pass
	}
	if p, ok := searchTree(q.r.DefaultTree(), candidateNames(q.ficheID), q.r.SitesRoot()); ok {
		return p, hit
	}
	return "", pass
}

// legacyFolders checks the flat category folders of older layouts.
func legacyFolders(q query) (string, result) {
	if q.hasCustom {
		return "", pass
	}
	names := candidateNames(q.ficheID)
	for _, dir := range q.r.layout.LegacyFolders {
		abs := filepath.Join(q.r.root, filepath.FromSlash(dir))
		if within(q.r.SitesRoot(), abs) {
			continue
		}
		if p, ok := directMatch(abs, names); ok {
			return p, hit
		}
	}
	return "", pass
}

func (r *Resolver) isKnownRoot(segment string) bool {
	if segment == "" {
		return false
	}
	for _, k := range r.layout.KnownRoots {
		if first, _, _ := strings.Cut(k, "/"); first == segment {
			return true
		}
	}
	return false
}

// candidateNames returns the file names a fiche identifier may be stored under.
func candidateNames(ficheID string) []string {
	name := path.Base(filepath.ToSlash(ficheID))
	if name == "." || name == "/" || name == ".." {
		return nil
	}
	if strings.HasSuffix(strings.ToLower(name), ".pdf") {
		return []string{name}
	}
	return []string{name, name + ".pdf"}
}

func directMatch(dir string, names []string) (string, bool) {
	for _, n := range names {
		p := filepath.Join(dir, n)
		if isFile(p) {
			return p, true
		}
	}
	return "", false
}

// searchTree looks for names directly under root, then depth-first in lexical
// order through its subdirectories. skip, when set, is never descended into.
func searchTree(root string, names []string, skip string) (string, bool) {
	if len(names) == 0 {
		return "", false
	}
	if p, ok := directMatch(root, names); ok {
		return p, true
	}
	var found string
	_ = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// unreadable directories are skipped, resolution stays read-only
			return nil
		}
		if d.IsDir() {
			if p != root && (strings.HasPrefix(d.Name(), ".") || (skip != "" && p == skip)) {
				return fs.SkipDir
			}
			return nil
		}
		if filepath.Dir(p) == root {
			return nil
		}
		for _, n := range names {
			if d.Name() == n && isFile(p) {
				found = p
				return fs.SkipAll
			}
		}
		return nil
	})
	return found, found != ""
}

func isFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

// within reports whether p is dir itself or lies below it.
func within(dir, p string) bool {
	rel, err := filepath.Rel(dir, p)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func isPlainName(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`)
}
