package resolver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, root string, rel string) string {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte("%PDF-1.4"), 0o644))
	return p
}

func newTree(t *testing.T) (string, *Resolver) {
	t.Helper()
	root := t.TempDir()
	return root, New(root, DefaultLayout())
}

func TestResolveDefaultTree(t *testing.T) {
	root, r := newTree(t)
	top := touch(t, root, "fiches-techniques/robinet.pdf")
	nested := touch(t, root, "fiches-techniques/plomberie/vanne.pdf")

	p, err := r.Resolve("robinet", "")
	assert.NoError(t, err)
	assert.Equal(t, top, p)

	p, err = r.Resolve("vanne.pdf", "C1")
	assert.NoError(t, err)
	assert.Equal(t, nested, p)
}

func TestResolvePrefersCustomTree(t *testing.T) {
	root, r := newTree(t)
	touch(t, root, "fiches-techniques/robinet.pdf")
	custom := touch(t, root, "fiches-techniques/chantiers/C1/sanitaire/robinet.pdf")

	p, err := r.Resolve("robinet", "C1")
	assert.NoError(t, err)
	assert.Equal(t, custom, p)
}

func TestResolveCustomTreeIsExclusive(t *testing.T) {
	root, r := newTree(t)
	touch(t, root, "fiches-techniques/chaudiere.pdf")
	touch(t, root, "plomberie/chaudiere.pdf")
	touch(t, root, "fiches-techniques/chantiers/C1/autre.pdf")

	_, err := r.Resolve("chaudiere", "C1")
	assert.ErrorIs(t, err, ErrNotFound)

	var nf *NotFoundError
	if assert.ErrorAs(t, err, &nf) {
		assert.Equal(t, "C1", nf.ChantierID)
	}
}

func TestResolveNeverLeaksOtherChantier(t *testing.T) {
	root, r := newTree(t)
	touch(t, root, "fiches-techniques/chantiers/C2/secret.pdf")

	_, err := r.Resolve("secret", "")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = r.Resolve("secret", "C3")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = r.Resolve("fiches-techniques/chantiers/C2/secret.pdf", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolveDirectPath(t *testing.T) {
	root, r := newTree(t)
	shared := touch(t, root, "fiches-techniques/elec/tableau.pdf")
	custom := touch(t, root, "fiches-techniques/chantiers/C1/tableau.pdf")

	p, err := r.Resolve("fiches-techniques/elec/tableau.pdf", "")
	assert.NoError(t, err)
	assert.Equal(t, shared, p)

	p, err = r.Resolve("/fiches-techniques/chantiers/C1/tableau.pdf", "C1")
	assert.NoError(t, err)
	assert.Equal(t, custom, p)

	// shared path requested for a chantier owning a custom tree
	_, err = r.Resolve("fiches-techniques/elec/tableau.pdf", "C1")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = r.Resolve("fiches-techniques/../../etc/passwd", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolveMissingDirectPathFallsThrough(t *testing.T) {
	root, r := newTree(t)
	moved := touch(t, root, "fiches-techniques/nouveau/radiateur.pdf")

	p, err := r.Resolve("fiches-techniques/ancien/radiateur.pdf", "")
	assert.NoError(t, err)
	assert.Equal(t, moved, p)
}

func TestResolveLegacyFolders(t *testing.T) {
	root, r := newTree(t)
	legacy := touch(t, root, "chauffage/pompe.pdf")

	p, err := r.Resolve("pompe", "C9")
	assert.NoError(t, err)
	assert.Equal(t, legacy, p)

	// legacy folders are matched directly, never searched recursively
	touch(t, root, "chauffage/sous/dossier/filtre.pdf")
	_, err = r.Resolve("filtre", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolveIsIdempotent(t *testing.T) {
	root, r := newTree(t)
	touch(t, root, "fiches-techniques/b/joint.pdf")
	touch(t, root, "fiches-techniques/a/joint.pdf")

	first, err := r.Resolve("joint", "")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		p, err := r.Resolve("joint", "")
		assert.NoError(t, err)
		assert.Equal(t, first, p)
	}
	assert.Equal(t, filepath.Join(root, "fiches-techniques", "a", "joint.pdf"), first)
}

func TestResolveEmptyIdentifier(t *testing.T) {
	_, r := newTree(t)
	_, err := r.Resolve("  ", "C1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCustomTreeRejectsTraversal(t *testing.T) {
	root, r := newTree(t)
	touch(t, root, "fiches-techniques/chantiers/C1/x.pdf")

	_, ok := r.CustomTree("../chantiers/C1")
	assert.False(t, ok)
	dir, ok := r.CustomTree("C1")
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(root, "fiches-techniques", "chantiers", "C1"), dir)
}

func TestLoadLayout(t *testing.T) {
	file := filepath.Join(t.TempDir(), "layout.yaml")
	require.NoError(t, os.WriteFile(file, []byte("legacy_folders:\n  - archives\n"), 0o644))

	l, err := LoadLayout(file)
	require.NoError(t, err)
	assert.Equal(t, "fiches-techniques", l.DefaultTree)
	assert.Equal(t, []string{"archives"}, l.LegacyFolders)

	require.NoError(t, os.WriteFile(file, []byte("sites_dir: ../escape\n"), 0o644))
	_, err = LoadLayout(file)
	assert.Error(t, err)
}
