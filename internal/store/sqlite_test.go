package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/dossiertechnique/internal/models"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestReferenceRecords(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutChantier(ctx, &models.Chantier{ID: "C1", Nom: "Les Tilleuls", Ville: "Lyon"}))
	require.NoError(t, s.PutSettings(ctx, &models.CompanySettings{Nom: "BatiPro", LogoRef: "logos/batipro.png"}))
	require.NoError(t, s.PutUser(ctx, &models.User{ID: "u1", Name: "Camille Roux"}))
	require.NoError(t, s.PutSousTraitant(ctx, &models.SousTraitant{ID: "st1", Nom: "Plomberie Martin"}))

	c, err := s.GetChantier(ctx, "C1")
	require.NoError(t, err)
	assert.Equal(t, "Les Tilleuls", c.Nom)
	assert.Equal(t, "C1", c.ID)

	cs, err := s.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "logos/batipro.png", cs.LogoRef)

	u, err := s.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Camille Roux", u.Name)

	st, err := s.GetSousTraitant(ctx, "st1")
	require.NoError(t, err)
	assert.Equal(t, "Plomberie Martin", st.Nom)

	_, err = s.GetChantier(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetUser(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSettingsMissing(t *testing.T) {
	_, err := testStore(t).GetSettings(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveDossierReplacesFiches(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

	d := &models.DossierRecord{
		ChantierID: "C1", Version: 1, Status: models.DossierStatusDraft,
		FichierRef: "chantiers/C1/documents/a.pdf", Taille: 42,
		DateGeneration: now, DateModification: now, TableMatieres: true, CreePar: "u1",
	}
	require.NoError(t, s.SaveDossier(ctx, d, []models.FicheRecord{
		{FicheID: "A", Version: 1, Statut: models.FicheStatusDraft, Ordre: 1},
		{FicheID: "B", Version: 1, Statut: models.FicheStatusValidated, Ordre: 2},
	}))
	require.NotEmpty(t, d.ID)

	got, err := s.GetDossier(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, *d, *got)

	d.Version = 2
	require.NoError(t, s.SaveDossier(ctx, d, []models.FicheRecord{
		{FicheID: "C", Version: 1, Statut: models.FicheStatusDraft, Ordre: 1},
	}))

	fiches, err := s.ListFiches(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, fiches, 1)
	assert.Equal(t, "C", fiches[0].FicheID)
	assert.Equal(t, d.ID, fiches[0].DossierID)

	got, err = s.GetDossier(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Version)
}

func TestFindPendingDraft(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := s.FindPendingDraft(ctx, "C1")
	assert.ErrorIs(t, err, ErrNotFound)

	finished := &models.DossierRecord{ChantierID: "C1", Version: 1, Status: models.DossierStatusDraft,
		FichierRef: "x.pdf", DateGeneration: now, DateModification: now}
	require.NoError(t, s.SaveDossier(ctx, finished, nil))
	other := &models.DossierRecord{ChantierID: "C2", Version: 0, Status: models.DossierStatusDraft,
		DateGeneration: now, DateModification: now}
	require.NoError(t, s.SaveDossier(ctx, other, nil))

	_, err = s.FindPendingDraft(ctx, "C1")
	assert.ErrorIs(t, err, ErrNotFound)

	pending := &models.DossierRecord{ChantierID: "C1", Status: models.DossierStatusDraft,
		DateGeneration: now, DateModification: now}
	require.NoError(t, s.SaveDossier(ctx, pending, nil))

	got, err := s.FindPendingDraft(ctx, "C1")
	require.NoError(t, err)
	assert.Equal(t, pending.ID, got.ID)
}

func TestCreateDocument(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	doc := &models.DocumentRecord{ChantierID: "C1", Nom: "dossier.pdf", Type: models.DocumentTypeDossierTechnique,
		Chemin: "chantiers/C1/documents/dossier.pdf", Taille: 10, MimeType: "application/pdf",
		DossierID: "d1", CreatedAt: time.Now()}
	require.NoError(t, s.CreateDocument(ctx, doc))
	assert.NotEmpty(t, doc.ID)

	var n int
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM documents WHERE dossier_id = 'd1'`).Scan(&n))
	assert.Equal(t, 1, n)
}
