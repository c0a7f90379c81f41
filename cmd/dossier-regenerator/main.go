package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/Lllllllleong/dossiertechnique/internal/config"
	"github.com/Lllllllleong/dossiertechnique/internal/models"
	"github.com/Lllllllleong/dossiertechnique/internal/services"
)

var (
	generator *services.DossierGenerator
	once      sync.Once
	initErr   error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.CloudEvent("RegenerateDossier", regenerateDossier)
}

func main() {}

// regenerateDossier rebuilds a dossier from a RegenerateDossierEvent.
func regenerateDossier(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		cfg, err := config.Load()
		if err != nil {
			initErr = err
			return
		}
		generator, initErr = services.NewDossierGenerator(context.Background(), cfg)
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	var event models.RegenerateDossierEvent
	if err := json.Unmarshal(e.Data(), &event); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "eventId", e.ID())
		return fmt.Errorf("json.Unmarshal: %w", err)
	}
	if event.UserID == "" {
		slog.Error("Regeneration event has no user.", "eventId", e.ID(), "chantierId", event.Request.ChantierID)
		return fmt.Errorf("event %s: userId is required", e.ID())
	}

	res, err := generator.Generate(ctx, event.UserID, &event.Request)
	if err != nil {
		// Logged with context by the generator.
		return err
	}
	slog.Info("Dossier regenerated from event.", "eventId", e.ID(), "dossierId", res.Dossier.ID,
		"version", res.Dossier.Version, "fichierRef", res.Dossier.FichierRef)
	return nil
}
