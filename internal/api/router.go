package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Lllllllleong/dossiertechnique/internal/locks"
	"github.com/Lllllllleong/dossiertechnique/internal/models"
	"github.com/Lllllllleong/dossiertechnique/internal/services"
)

// Generator is the part of services.DossierGenerator the HTTP layer needs.
type Generator interface {
	Generate(ctx context.Context, userID string, req *models.DossierRequest) (*services.GenerateResult, error)
	GetDossier(ctx context.Context, id string) (*models.DossierDetailsResponse, error)
}

// NewRouter mounts the dossier endpoints. Everything under /api requires a bearer token.
func NewRouter(gen Generator, secret []byte) http.Handler {
	h := &handler{gen: gen}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/api", func(r chi.Router) {
		r.Use(RequireUser(secret))
		r.Post("/chantiers/{chantierID}/dossiers-techniques", h.generate)
		r.Get("/dossiers-techniques/{dossierID}", h.getDossier)
	})
	return r
}

type handler struct {
	gen Generator
}

func (h *handler) generate(w http.ResponseWriter, r *http.Request) {
	chantierID := chi.URLParam(r, "chantierID")
	var payload models.GenerateDossierPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		slog.Warn("Could not decode request body.", "error", err, "chantierId", chantierID)
		writeError(w, http.StatusBadRequest, "could not parse JSON", nil)
		return
	}

	res, err := h.gen.Generate(r.Context(), UserID(r.Context()), payload.ToRequest(chantierID))
	if err != nil {
		// Already logged with context by the generator.
		writeServiceError(w, err)
		return
	}
	writePDF(w, res.Filename, res.Data, map[string]string{
		"X-Dossier-Id":      res.Dossier.ID,
		"X-Dossier-Version": strconv.Itoa(res.Dossier.Version),
		"X-Page-Count":      strconv.Itoa(res.PageCount),
	})
}

func (h *handler) getDossier(w http.ResponseWriter, r *http.Request) {
	details, err := h.gen.GetDossier(r.Context(), chi.URLParam(r, "dossierID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

// writeServiceError maps generator errors onto status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	var (
		validation *services.ValidationError
		notFound   *services.NotFoundError
		persist    *services.PersistenceError
	)
	if fe, ok := services.AsFicheErrors(err); ok {
		writeError(w, http.StatusBadRequest, "some fiches could not be loaded", fe.Details())
		return
	}
	switch {
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, validation.Error(), nil)
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, notFound.Error(), nil)
	case errors.Is(err, locks.ErrLocked):
		writeError(w, http.StatusConflict, "a dossier is already being generated for this chantier", nil)
	case errors.As(err, &persist):
		slog.Error("Dossier metadata could not be saved.", "error", err)
		writeError(w, http.StatusInternalServerError, "dossier could not be saved", nil)
	default:
		slog.Error("Dossier request failed.", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error", nil)
	}
}
