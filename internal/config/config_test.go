package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Setenv("DOCUMENT_ROOT", "/srv/documents")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DOSSIER_STORE", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/dossiers.db")
	for _, k := range []string{"PROJECT_ID", "OUTPUT_BUCKET", "WORKFLOW_ID", "LOCK_BACKEND", "LAYOUT_FILE",
		"PRECOMPUTE_CONCURRENCY", "ENABLE_FORM_OVERLAY", "LOCK_TTL"} {
		t.Setenv(k, "") // restores the original value on cleanup
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/srv/documents", cfg.DocumentRoot)
	assert.Equal(t, StoreSQLite, cfg.DossierStore)
	assert.Equal(t, LockMemory, cfg.LockBackend)
	assert.Equal(t, 4, cfg.PrecomputeConcurrency)
	assert.False(t, cfg.EnableFormOverlay)
	assert.Equal(t, "fiches-techniques", cfg.Layout.DefaultTree)
}

func TestLoadLayoutFile(t *testing.T) {
	setBaseEnv(t)
	file := filepath.Join(t.TempDir(), "layout.yaml")
	require.NoError(t, os.WriteFile(file, []byte("default_tree: fiches\n"), 0o644))
	t.Setenv("LAYOUT_FILE", file)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "fiches", cfg.Layout.DefaultTree)
	assert.Equal(t, "chantiers", cfg.Layout.SitesDir)
}

func TestLoadRejectsBadValues(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("PRECOMPUTE_CONCURRENCY", "many")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("DOCUMENT_ROOT", "")
	t.Setenv("LOCK_BACKEND", "redis")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DOCUMENT_ROOT")
	assert.Contains(t, err.Error(), "REDIS_ADDR")

	t.Setenv("DOCUMENT_ROOT", "/srv")
	t.Setenv("LOCK_BACKEND", "memory")
	t.Setenv("DOSSIER_STORE", "firestore")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PROJECT_ID")
}
