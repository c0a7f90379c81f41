package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/dossiertechnique/internal/models"
	"github.com/Lllllllleong/dossiertechnique/internal/store"
)

func memStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func planAndCommit(t *testing.T, m *VersionManager, req *models.DossierRequest) (*VersionPlan, *CommitResult) {
	t.Helper()
	ctx := context.Background()
	plan, err := m.Plan(ctx, slog.Default(), req)
	require.NoError(t, err)
	res, err := m.Commit(ctx, plan, CommitInput{
		Request:     req,
		UserID:      "u1",
		FichierRef:  "chantiers/S/documents/" + OutputFilename(testNow, plan.Version, plan.Transition == TransitionReversion),
		Filename:    OutputFilename(testNow, plan.Version, plan.Transition == TransitionReversion),
		Size:        1234,
		GeneratedAt: testNow,
	})
	require.NoError(t, err)
	return plan, res
}

func ficheIDs(fiches []models.FicheRecord) []string {
	out := make([]string, len(fiches))
	for i, f := range fiches {
		out[i] = f.FicheID
	}
	return out
}

func TestFreshCreation(t *testing.T) {
	s := memStore(t)
	m := NewVersionManager(s)

	plan, res := planAndCommit(t, m, &models.DossierRequest{ChantierID: "S", FicheIDs: []string{"A", "B"}})

	assert.Equal(t, TransitionCreate, plan.Transition)
	assert.Equal(t, 1, res.Dossier.Version)
	assert.Equal(t, models.DossierStatusDraft, res.Dossier.Status)
	assert.NotEmpty(t, res.Dossier.FichierRef)

	fiches, err := s.ListFiches(context.Background(), res.Dossier.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, ficheIDs(fiches))
	assert.Equal(t, []int{1, 2}, []int{fiches[0].Ordre, fiches[1].Ordre})
	assert.Equal(t, 1, fiches[0].Version)

	assert.Equal(t, res.Dossier.ID, res.Document.DossierID)
	assert.Equal(t, models.DocumentTypeDossierTechnique, res.Document.Type)
	assert.Equal(t, "dossier-technique-2026-03-09.pdf", res.Document.Nom)
}

func TestDraftReuse(t *testing.T) {
	s := memStore(t)
	ctx := context.Background()
	created := testNow.Add(-48 * time.Hour)
	draft := &models.DossierRecord{ChantierID: "S", Status: models.DossierStatusDraft,
		DateGeneration: created, DateModification: created, CreePar: "planner"}
	require.NoError(t, s.SaveDossier(ctx, draft, []models.FicheRecord{{FicheID: "OLD", Version: 1, Statut: models.FicheStatusDraft, Ordre: 1}}))

	plan, res := planAndCommit(t, NewVersionManager(s), &models.DossierRequest{ChantierID: "S", FicheIDs: []string{"A"}})

	assert.Equal(t, TransitionDraftReuse, plan.Transition)
	assert.Equal(t, draft.ID, res.Dossier.ID)
	assert.Equal(t, 1, res.Dossier.Version)
	assert.Equal(t, "planner", res.Dossier.CreePar)

	got, err := s.GetDossier(ctx, draft.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, got.FichierRef)
	assert.Equal(t, int64(1234), got.Taille)

	fiches, err := s.ListFiches(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, ficheIDs(fiches))

	// the draft is no longer pending
	_, err = s.FindPendingDraft(ctx, "S")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestExplicitReversion(t *testing.T) {
	s := memStore(t)
	ctx := context.Background()
	created := testNow.Add(-72 * time.Hour)
	existing := &models.DossierRecord{ChantierID: "S", Version: 2, Status: models.DossierStatusFinal,
		FichierRef: "chantiers/S/documents/old.pdf", DateGeneration: created, DateModification: created}
	require.NoError(t, s.SaveDossier(ctx, existing, []models.FicheRecord{
		{FicheID: "A", Version: 1, Statut: models.FicheStatusDraft, Ordre: 1},
		{FicheID: "B", Version: 1, Statut: models.FicheStatusDraft, Ordre: 2},
	}))

	req := &models.DossierRequest{ChantierID: "S", FicheIDs: []string{"C", "A"}, DossierID: existing.ID,
		Statuts: map[string]models.FicheStatus{"A": models.FicheStatusValidated}}
	plan, res := planAndCommit(t, NewVersionManager(s), req)

	assert.Equal(t, TransitionReversion, plan.Transition)
	assert.Equal(t, existing.ID, res.Dossier.ID)
	assert.Equal(t, 3, res.Dossier.Version)
	assert.Equal(t, models.DossierStatusFinal, res.Dossier.Status)
	assert.Equal(t, "chantiers/S/documents/dossier-technique-2026-03-09-v3.pdf", res.Dossier.FichierRef)
	assert.True(t, res.Dossier.DateGeneration.Equal(created))
	assert.True(t, res.Dossier.DateModification.Equal(testNow))

	fiches, err := s.ListFiches(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "A"}, ficheIDs(fiches))
	assert.Equal(t, models.FicheStatusValidated, fiches[1].Statut)
	assert.Equal(t, models.FicheStatusDraft, fiches[0].Statut)
}

func TestUnknownExplicitDossierFallsBack(t *testing.T) {
	s := memStore(t)
	plan, err := NewVersionManager(s).Plan(context.Background(), slog.Default(),
		&models.DossierRequest{ChantierID: "S", FicheIDs: []string{"A"}, DossierID: "gone"})
	require.NoError(t, err)
	assert.Equal(t, TransitionCreate, plan.Transition)
	assert.Equal(t, 1, plan.Version)
}

func TestFicheRecords(t *testing.T) {
	recs := FicheRecords(&models.DossierRequest{
		FicheIDs:      []string{"x", "y"},
		References:    map[string]string{"x": " R1 "},
		SousTraitants: map[string]string{"y": "  "},
		Remarques:     map[string]string{"y": "note"},
	})
	assert.Equal(t, "R1", recs[0].Reference)
	assert.Equal(t, "", recs[1].SousTraitantID)
	assert.Equal(t, "note", recs[1].Remarques)
	assert.Equal(t, 2, recs[1].Ordre)
	assert.Equal(t, models.FicheStatusDraft, recs[1].Statut)
}

func TestDossierOfAnotherChantierIsNotReversioned(t *testing.T) {
	s := memStore(t)
	ctx := context.Background()
	other := &models.DossierRecord{ChantierID: "OTHER", Version: 2, Status: models.DossierStatusFinal,
		FichierRef: "chantiers/OTHER/documents/dossier-technique-2026-03-01-v2.pdf", DateGeneration: testNow, DateModification: testNow}
	require.NoError(t, s.SaveDossier(ctx, other, []models.FicheRecord{{FicheID: "Z", Version: 1, Statut: models.FicheStatusDraft, Ordre: 1}}))

	plan, res := planAndCommit(t, NewVersionManager(s), &models.DossierRequest{ChantierID: "S", FicheIDs: []string{"A"}, DossierID: other.ID})

	assert.Equal(t, TransitionCreate, plan.Transition)
	assert.Nil(t, plan.Existing)
	assert.NotEqual(t, other.ID, res.Dossier.ID)
	assert.Equal(t, "S", res.Dossier.ChantierID)

	got, err := s.GetDossier(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Version)
	assert.Equal(t, other.FichierRef, got.FichierRef)
	fiches, err := s.ListFiches(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Z"}, ficheIDs(fiches))
}
