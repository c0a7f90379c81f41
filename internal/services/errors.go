package services

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// NotFoundError reports a missing chantier, settings or user record.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Kind)
	}
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// FicheErrorKind classifies a per-fiche failure of the merge pass.
type FicheErrorKind string

const (
	FicheNotFound    FicheErrorKind = "NOT_FOUND"
	FicheLoadFailure FicheErrorKind = "LOAD_FAILURE"
)

// FicheError is the failure of one fiche. It never stops the merge loop by itself.
type FicheError struct {
	FicheID string
	Path    string // empty when the fiche was not resolved
	Kind    FicheErrorKind
	Err     error
}

func (e *FicheError) Error() string {
	switch e.Kind {
	case FicheNotFound:
		return fmt.Sprintf("fiche %s: file not found", e.FicheID)
	default:
		return fmt.Sprintf("fiche %s (%s): cannot load PDF: %v", e.FicheID, e.Path, e.Err)
	}
}

func (e *FicheError) Unwrap() error { return e.Err }

// FicheErrors collects every fiche failure of one assembly. Any entry fails the whole dossier.
type FicheErrors []*FicheError

func (e FicheErrors) Error() string {
	return fmt.Sprintf("%d fiche(s) could not be processed: %s", len(e), strings.Join(e.Details(), "; "))
}

// Details returns one line per failing fiche, in request order.
func (e FicheErrors) Details() []string {
	out := make([]string, len(e))
	for i, fe := range e {
		out[i] = fe.Error()
	}
	return out
}

// FicheIDs returns the identifiers of the failing fiches.
func (e FicheErrors) FicheIDs() []string {
	out := make([]string, len(e))
	for i, fe := range e {
		out[i] = fe.FicheID
	}
	return out
}

// ValidationError reports a malformed request.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// RecoverableError is a best-effort failure. It is logged, never returned to callers.
type RecoverableError struct {
	Op  string
	Err error
}

func (e *RecoverableError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *RecoverableError) Unwrap() error { return e.Err }

func logRecoverable(logCtx *slog.Logger, err *RecoverableError) {
	logCtx.Warn("Recoverable failure, continuing.", "op", err.Op, "error", err.Err)
}

// PersistenceError reports a metadata write that failed after a successful merge.
// RecordSaved is set when the dossier record already references the written file.
type PersistenceError struct {
	Op          string
	Err         error
	RecordSaved bool
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("failed to persist %s: %v", e.Op, e.Err) }

func (e *PersistenceError) Unwrap() error { return e.Err }

// AsFicheErrors extracts collected fiche failures from err.
func AsFicheErrors(err error) (FicheErrors, bool) {
	var fe FicheErrors
	ok := errors.As(err, &fe)
	return fe, ok
}
