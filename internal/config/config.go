// Package config gathers the service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Lllllllleong/dossiertechnique/internal/gcp"
	"github.com/Lllllllleong/dossiertechnique/internal/resolver"
)

const (
	StoreFirestore = "firestore"
	StoreSQLite    = "sqlite"

	LockMemory = "memory"
	LockRedis  = "redis"
)

type Config struct {
	ProjectID    string
	DocumentRoot string
	Layout       resolver.Layout

	DossierStore string
	SQLitePath   string

	OutputBucket     string
	WorkflowID       string
	WorkflowLocation string

	LockBackend string
	RedisAddr   string
	LockTTL     time.Duration

	JWTSecret string
	ChromeURL string

	PrecomputeConcurrency int
	EnableFormOverlay     bool
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		ProjectID:        gcp.GetEnv("PROJECT_ID", ""),
		DocumentRoot:     gcp.GetEnv("DOCUMENT_ROOT", ""),
		DossierStore:     gcp.GetEnv("DOSSIER_STORE", StoreFirestore),
		SQLitePath:       gcp.GetEnv("SQLITE_PATH", "data/dossiers.db"),
		OutputBucket:     gcp.GetEnv("OUTPUT_BUCKET", ""),
		WorkflowID:       gcp.GetEnv("WORKFLOW_ID", ""),
		WorkflowLocation: gcp.GetEnv("WORKFLOW_LOCATION", "europe-west1"),
		LockBackend:      gcp.GetEnv("LOCK_BACKEND", LockMemory),
		RedisAddr:        gcp.GetEnv("REDIS_ADDR", ""),
		JWTSecret:        gcp.GetEnv("JWT_SECRET", ""),
		ChromeURL:        gcp.GetEnv("CHROME_URL", ""),
		Layout:           resolver.DefaultLayout(),
	}

	var err error
	if cfg.PrecomputeConcurrency, err = strconv.Atoi(gcp.GetEnv("PRECOMPUTE_CONCURRENCY", "4")); err != nil {
		return nil, fmt.Errorf("PRECOMPUTE_CONCURRENCY: %w", err)
	}
	if cfg.EnableFormOverlay, err = strconv.ParseBool(gcp.GetEnv("ENABLE_FORM_OVERLAY", "false")); err != nil {
		return nil, fmt.Errorf("ENABLE_FORM_OVERLAY: %w", err)
	}
	if cfg.LockTTL, err = time.ParseDuration(gcp.GetEnv("LOCK_TTL", "10m")); err != nil {
		return nil, fmt.Errorf("LOCK_TTL: %w", err)
	}
	if file := gcp.GetEnv("LAYOUT_FILE", ""); file != "" {
		if cfg.Layout, err = resolver.LoadLayout(file); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errs []error
	if c.DocumentRoot == "" {
		errs = append(errs, errors.New("DOCUMENT_ROOT environment variable must be set"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET environment variable must be set"))
	}
	switch c.DossierStore {
	case StoreFirestore:
		if c.ProjectID == "" {
			errs = append(errs, errors.New("PROJECT_ID environment variable must be set for the firestore store"))
		}
	case StoreSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH must be set for the sqlite store"))
		}
	default:
		errs = append(errs, fmt.Errorf("DOSSIER_STORE must be %q or %q, got %q", StoreFirestore, StoreSQLite, c.DossierStore))
	}
	switch c.LockBackend {
	case LockMemory:
	case LockRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR must be set for the redis lock backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("LOCK_BACKEND must be %q or %q, got %q", LockMemory, LockRedis, c.LockBackend))
	}
	if (c.OutputBucket != "" || c.WorkflowID != "") && c.ProjectID == "" {
		errs = append(errs, errors.New("PROJECT_ID must be set when OUTPUT_BUCKET or WORKFLOW_ID is used"))
	}
	if c.PrecomputeConcurrency < 1 {
		errs = append(errs, errors.New("PRECOMPUTE_CONCURRENCY must be at least 1"))
	}
	if err := c.Layout.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("layout: %w", err))
	}
	return errors.Join(errs...)
}
