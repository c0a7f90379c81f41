package store

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Lllllllleong/dossiertechnique/internal/models"
)

// Firestore collection layout.
const (
	chantiersCollection     = "chantiers"
	settingsCollection      = "settings"
	companySettingsDoc      = "company"
	usersCollection         = "users"
	sousTraitantsCollection = "sousTraitants"
	dossiersCollection      = "dossiersTechniques"
	fichesSubcollection     = "fiches"
	documentsCollection     = "documents"
)

// FirestoreStore implements Repository on Cloud Firestore.
type FirestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

// get reads one document into dst, mapping a missing document to ErrNotFound.
func (s *FirestoreStore) get(ctx context.Context, ref *firestore.DocumentRef, dst any) error {
	snap, err := ref.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("%s/%s: %w", ref.Parent.ID, ref.ID, ErrNotFound)
		}
		return fmt.Errorf("failed to get %s/%s: %w", ref.Parent.ID, ref.ID, err)
	}
	if err := snap.DataTo(dst); err != nil {
		return fmt.Errorf("failed to decode %s/%s: %w", ref.Parent.ID, ref.ID, err)
	}
	return nil
}

func (s *FirestoreStore) GetChantier(ctx context.Context, id string) (*models.Chantier, error) {
	var c models.Chantier
	if err := s.get(ctx, s.client.Collection(chantiersCollection).Doc(id), &c); err != nil {
		return nil, err
	}
	c.ID = id
	return &c, nil
}

func (s *FirestoreStore) GetSettings(ctx context.Context) (*models.CompanySettings, error) {
	var cs models.CompanySettings
	if err := s.get(ctx, s.client.Collection(settingsCollection).Doc(companySettingsDoc), &cs); err != nil {
		return nil, err
	}
	return &cs, nil
}

func (s *FirestoreStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.get(ctx, s.client.Collection(usersCollection).Doc(id), &u); err != nil {
		return nil, err
	}
	u.ID = id
	return &u, nil
}

func (s *FirestoreStore) GetSousTraitant(ctx context.Context, id string) (*models.SousTraitant, error) {
	var st models.SousTraitant
	if err := s.get(ctx, s.client.Collection(sousTraitantsCollection).Doc(id), &st); err != nil {
		return nil, err
	}
	st.ID = id
	return &st, nil
}

func (s *FirestoreStore) GetDossier(ctx context.Context, id string) (*models.DossierRecord, error) {
	var d models.DossierRecord
	if err := s.get(ctx, s.client.Collection(dossiersCollection).Doc(id), &d); err != nil {
		return nil, err
	}
	d.ID = id
	return &d, nil
}

func (s *FirestoreStore) FindPendingDraft(ctx context.Context, chantierID string) (*models.DossierRecord, error) {
	docs, err := s.client.Collection(dossiersCollection).
		Where("chantierId", "==", chantierID).
		Where("status", "==", string(models.DossierStatusDraft)).
		Where("fichierRef", "==", "").
		Limit(1).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to query draft dossiers: %w", err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("draft dossier for chantier %s: %w", chantierID, ErrNotFound)
	}
	var d models.DossierRecord
	if err := docs[0].DataTo(&d); err != nil {
		return nil, fmt.Errorf("failed to decode dossier %s: %w", docs[0].Ref.ID, err)
	}
	d.ID = docs[0].Ref.ID
	return &d, nil
}

func (s *FirestoreStore) SaveDossier(ctx context.Context, d *models.DossierRecord, fiches []models.FicheRecord) error {
	col := s.client.Collection(dossiersCollection)
	ref := col.NewDoc()
	if d.ID != "" {
		ref = col.Doc(d.ID)
	}
	fichesCol := ref.Collection(fichesSubcollection)

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		// Firestore transactions require every read before the first write.
		existing, err := tx.Documents(fichesCol).GetAll()
		if err != nil {
			return fmt.Errorf("failed to read existing fiches: %w", err)
		}
		if err := tx.Set(ref, d); err != nil {
			return err
		}
		for _, snap := range existing {
			if err := tx.Delete(snap.Ref); err != nil {
				return err
			}
		}
		for i := range fiches {
			fiches[i].DossierID = ref.ID
			if err := tx.Create(fichesCol.NewDoc(), fiches[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save dossier %s: %w", ref.ID, err)
	}
	d.ID = ref.ID
	return nil
}

func (s *FirestoreStore) ListFiches(ctx context.Context, dossierID string) ([]models.FicheRecord, error) {
	iter := s.client.Collection(dossiersCollection).Doc(dossierID).
		Collection(fichesSubcollection).OrderBy("ordre", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var out []models.FicheRecord
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list fiches of %s: %w", dossierID, err)
		}
		var f models.FicheRecord
		if err := snap.DataTo(&f); err != nil {
			return nil, fmt.Errorf("failed to decode fiche %s: %w", snap.Ref.ID, err)
		}
		f.ID = snap.Ref.ID
		out = append(out, f)
	}
	return out, nil
}

func (s *FirestoreStore) CreateDocument(ctx context.Context, doc *models.DocumentRecord) error {
	ref := s.client.Collection(documentsCollection).NewDoc()
	if _, err := ref.Create(ctx, doc); err != nil {
		return fmt.Errorf("failed to create document record: %w", err)
	}
	doc.ID = ref.ID
	return nil
}
