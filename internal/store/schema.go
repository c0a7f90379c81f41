package store

// Schema contains the DDL of the SQLite store.
const Schema = `
CREATE TABLE IF NOT EXISTS chantiers (
    id                  TEXT PRIMARY KEY,
    nom                 TEXT NOT NULL,
    adresse             TEXT NOT NULL DEFAULT '',
    code_postal         TEXT NOT NULL DEFAULT '',
    ville               TEXT NOT NULL DEFAULT '',
    description         TEXT NOT NULL DEFAULT '',
    client_nom          TEXT NOT NULL DEFAULT '',
    maitre_ouvrage      TEXT NOT NULL DEFAULT '',
    bureau_architecture TEXT NOT NULL DEFAULT ''
);

-- single row keyed 'company'
CREATE TABLE IF NOT EXISTS company_settings (
    id          TEXT PRIMARY KEY,
    nom         TEXT NOT NULL,
    adresse     TEXT NOT NULL DEFAULT '',
    code_postal TEXT NOT NULL DEFAULT '',
    ville       TEXT NOT NULL DEFAULT '',
    telephone   TEXT NOT NULL DEFAULT '',
    email       TEXT NOT NULL DEFAULT '',
    logo        TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS users (
    id    TEXT PRIMARY KEY,
    name  TEXT NOT NULL,
    email TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS sous_traitants (
    id   TEXT PRIMARY KEY,
    nom  TEXT NOT NULL,
    logo TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS dossiers (
    id                TEXT PRIMARY KEY,
    chantier_id       TEXT NOT NULL,
    version           INTEGER NOT NULL,
    status            TEXT NOT NULL,
    fichier_ref       TEXT NOT NULL DEFAULT '',
    taille            INTEGER NOT NULL DEFAULT 0,
    date_generation   INTEGER NOT NULL,
    date_modification INTEGER NOT NULL,
    table_matieres    INTEGER NOT NULL DEFAULT 0,
    cree_par          TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_dossiers_chantier ON dossiers(chantier_id, status);

CREATE TABLE IF NOT EXISTS dossier_fiches (
    id               TEXT PRIMARY KEY,
    dossier_id       TEXT NOT NULL REFERENCES dossiers(id) ON DELETE CASCADE,
    fiche_id         TEXT NOT NULL,
    reference        TEXT NOT NULL DEFAULT '',
    version          INTEGER NOT NULL,
    statut           TEXT NOT NULL,
    ordre            INTEGER NOT NULL,
    sous_traitant_id TEXT NOT NULL DEFAULT '',
    remarques        TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_dossier_fiches_dossier ON dossier_fiches(dossier_id, ordre);

CREATE TABLE IF NOT EXISTS documents (
    id          TEXT PRIMARY KEY,
    chantier_id TEXT NOT NULL,
    nom         TEXT NOT NULL,
    type        TEXT NOT NULL,
    chemin      TEXT NOT NULL,
    taille      INTEGER NOT NULL,
    mime_type   TEXT NOT NULL,
    dossier_id  TEXT NOT NULL DEFAULT '',
    cree_par    TEXT NOT NULL DEFAULT '',
    created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_chantier ON documents(chantier_id);
`
