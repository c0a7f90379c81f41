package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Lllllllleong/dossiertechnique/internal/models"
)

// writePDF sends an inline PDF. Headers are frozen once the status is written.
func writePDF(w http.ResponseWriter, filename string, data []byte, meta map[string]string) {
	h := w.Header()
	h.Set("Content-Type", "application/pdf")
	h.Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))
	h.Set("Content-Length", strconv.Itoa(len(data)))
	for k, v := range meta {
		h.Set(k, v)
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		slog.Error("Failed to write PDF response.", "error", err, "filename", filename)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to write response.", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string, details []string) {
	writeJSON(w, status, models.ErrorResponse{Error: msg, Details: details})
}
