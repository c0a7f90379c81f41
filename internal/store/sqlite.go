package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/Lllllllleong/dossiertechnique/internal/models"
)

// SQLiteStore implements Repository on a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and applies Schema.
// ":memory:" opens a private in-memory database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: mkdir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	if path == ":memory:" {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range append(pragmas, Schema) {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: exec %.40q: %w", p, err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) DB() *sql.DB { return s.db }

func (s *SQLiteStore) Close() error { return s.db.Close() }

func notFound(err error, what, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return fmt.Errorf("failed to get %s %s: %w", what, id, err)
}

func (s *SQLiteStore) GetChantier(ctx context.Context, id string) (*models.Chantier, error) {
	c := models.Chantier{ID: id}
	err := s.db.QueryRowContext(ctx, `SELECT nom, adresse, code_postal, ville, description,
		client_nom, maitre_ouvrage, bureau_architecture FROM chantiers WHERE id = ?`, id).
		Scan(&c.Nom, &c.Adresse, &c.CodePostal, &c.Ville, &c.Description,
			&c.ClientNom, &c.MaitreOuvrage, &c.BureauArchitecture)
	if err != nil {
		return nil, notFound(err, "chantier", id)
	}
	return &c, nil
}

func (s *SQLiteStore) GetSettings(ctx context.Context) (*models.CompanySettings, error) {
	var cs models.CompanySettings
	err := s.db.QueryRowContext(ctx, `SELECT nom, adresse, code_postal, ville, telephone, email, logo
		FROM company_settings WHERE id = 'company'`).
		Scan(&cs.Nom, &cs.Adresse, &cs.CodePostal, &cs.Ville, &cs.Telephone, &cs.Email, &cs.LogoRef)
	if err != nil {
		return nil, notFound(err, "settings", "company")
	}
	return &cs, nil
}

func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	u := models.User{ID: id}
	err := s.db.QueryRowContext(ctx, `SELECT name, email FROM users WHERE id = ?`, id).Scan(&u.Name, &u.Email)
	if err != nil {
		return nil, notFound(err, "user", id)
	}
	return &u, nil
}

func (s *SQLiteStore) GetSousTraitant(ctx context.Context, id string) (*models.SousTraitant, error) {
	st := models.SousTraitant{ID: id}
	err := s.db.QueryRowContext(ctx, `SELECT nom, logo FROM sous_traitants WHERE id = ?`, id).Scan(&st.Nom, &st.LogoRef)
	if err != nil {
		return nil, notFound(err, "sous-traitant", id)
	}
	return &st, nil
}

const dossierColumns = `id, chantier_id, version, status, fichier_ref, taille,
	date_generation, date_modification, table_matieres, cree_par`

func scanDossier(row interface{ Scan(...any) error }) (*models.DossierRecord, error) {
	var (
		d        models.DossierRecord
		gen, mod int64
	)
	if err := row.Scan(&d.ID, &d.ChantierID, &d.Version, &d.Status, &d.FichierRef, &d.Taille,
		&gen, &mod, &d.TableMatieres, &d.CreePar); err != nil {
		return nil, err
	}
	d.DateGeneration = time.UnixMilli(gen).UTC()
	d.DateModification = time.UnixMilli(mod).UTC()
	return &d, nil
}

func (s *SQLiteStore) GetDossier(ctx context.Context, id string) (*models.DossierRecord, error) {
	d, err := scanDossier(s.db.QueryRowContext(ctx, `SELECT `+dossierColumns+` FROM dossiers WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, "dossier", id)
	}
	return d, nil
}

func (s *SQLiteStore) FindPendingDraft(ctx context.Context, chantierID string) (*models.DossierRecord, error) {
	d, err := scanDossier(s.db.QueryRowContext(ctx, `SELECT `+dossierColumns+` FROM dossiers
		WHERE chantier_id = ? AND status = ? AND fichier_ref = ''
		ORDER BY date_modification DESC LIMIT 1`, chantierID, models.DossierStatusDraft))
	if err != nil {
		return nil, notFound(err, "draft dossier for chantier", chantierID)
	}
	return d, nil
}

func (s *SQLiteStore) SaveDossier(ctx context.Context, d *models.DossierRecord, fiches []models.FicheRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	id := d.ID
	if id == "" {
		id = uuid.NewString()
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO dossiers (`+dossierColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			chantier_id = excluded.chantier_id,
			version = excluded.version,
			status = excluded.status,
			fichier_ref = excluded.fichier_ref,
			taille = excluded.taille,
			date_generation = excluded.date_generation,
			date_modification = excluded.date_modification,
			table_matieres = excluded.table_matieres,
			cree_par = excluded.cree_par`,
		id, d.ChantierID, d.Version, d.Status, d.FichierRef, d.Taille,
		d.DateGeneration.UnixMilli(), d.DateModification.UnixMilli(), d.TableMatieres, d.CreePar)
	if err != nil {
		return fmt.Errorf("failed to save dossier %s: %w", id, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM dossier_fiches WHERE dossier_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete fiches of %s: %w", id, err)
	}
	for i := range fiches {
		f := &fiches[i]
		f.DossierID = id
		f.ID = uuid.NewString()
		_, err := tx.ExecContext(ctx, `INSERT INTO dossier_fiches
			(id, dossier_id, fiche_id, reference, version, statut, ordre, sous_traitant_id, remarques)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			f.ID, f.DossierID, f.FicheID, f.Reference, f.Version, f.Statut, f.Ordre, f.SousTraitantID, f.Remarques)
		if err != nil {
			return fmt.Errorf("failed to insert fiche %s: %w", f.FicheID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	d.ID = id
	return nil
}

func (s *SQLiteStore) ListFiches(ctx context.Context, dossierID string) ([]models.FicheRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, dossier_id, fiche_id, reference, version, statut,
		ordre, sous_traitant_id, remarques FROM dossier_fiches WHERE dossier_id = ? ORDER BY ordre`, dossierID)
	if err != nil {
		return nil, fmt.Errorf("failed to list fiches of %s: %w", dossierID, err)
	}
	defer rows.Close()

	var out []models.FicheRecord
	for rows.Next() {
		var f models.FicheRecord
		if err := rows.Scan(&f.ID, &f.DossierID, &f.FicheID, &f.Reference, &f.Version, &f.Statut,
			&f.Ordre, &f.SousTraitantID, &f.Remarques); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CreateDocument(ctx context.Context, doc *models.DocumentRecord) error {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `INSERT INTO documents
		(id, chantier_id, nom, type, chemin, taille, mime_type, dossier_id, cree_par, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, doc.ChantierID, doc.Nom, doc.Type, doc.Chemin, doc.Taille, doc.MimeType,
		doc.DossierID, doc.CreePar, doc.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to create document record: %w", err)
	}
	doc.ID = id
	return nil
}

// The Put methods seed reference data. They back local runs and tests; in
// production those records belong to the surrounding application.

func (s *SQLiteStore) PutChantier(ctx context.Context, c *models.Chantier) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO chantiers
		(id, nom, adresse, code_postal, ville, description, client_nom, maitre_ouvrage, bureau_architecture)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Nom, c.Adresse, c.CodePostal, c.Ville, c.Description, c.ClientNom, c.MaitreOuvrage, c.BureauArchitecture)
	return err
}

func (s *SQLiteStore) PutSettings(ctx context.Context, cs *models.CompanySettings) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO company_settings
		(id, nom, adresse, code_postal, ville, telephone, email, logo)
		VALUES ('company', ?, ?, ?, ?, ?, ?, ?)`,
		cs.Nom, cs.Adresse, cs.CodePostal, cs.Ville, cs.Telephone, cs.Email, cs.LogoRef)
	return err
}

func (s *SQLiteStore) PutUser(ctx context.Context, u *models.User) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO users (id, name, email) VALUES (?, ?, ?)`,
		u.ID, u.Name, u.Email)
	return err
}

func (s *SQLiteStore) PutSousTraitant(ctx context.Context, st *models.SousTraitant) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO sous_traitants (id, nom, logo) VALUES (?, ?, ?)`,
		st.ID, st.Nom, st.LogoRef)
	return err
}
