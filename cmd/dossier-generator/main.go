package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/Lllllllleong/dossiertechnique/internal/api"
	"github.com/Lllllllleong/dossiertechnique/internal/config"
	"github.com/Lllllllleong/dossiertechnique/internal/services"
)

var (
	router  http.Handler
	once    sync.Once
	initErr error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.HTTP("GenerateDossier", handleGenerateDossier)
}

func main() {}

// handleGenerateDossier serves the dossier API through the chi router.
func handleGenerateDossier(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		cfg, err := config.Load()
		if err != nil {
			initErr = err
			return
		}
		gen, err := services.NewDossierGenerator(context.Background(), cfg)
		if err != nil {
			initErr = err
			return
		}
		router = api.NewRouter(gen, []byte(cfg.JWTSecret))
	})
	if initErr != nil {
		slog.Error("Critical: Dossier generator initialization failed", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}
	router.ServeHTTP(w, r)
}
