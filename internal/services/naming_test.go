package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDisplayName(t *testing.T) {
	cases := map[string]string{
		"/docs/fiches-techniques/robinet_thermostatique.pdf": "Robinet Thermostatique",
		"chauffe-eau-electrique.PDF":                         "Chauffe Eau Electrique",
		"vanne__3-voies":                                     "Vanne 3 Voies",
		"DALLE_béton.pdf":                                    "Dalle Béton",
	}
	for in, want := range cases {
		assert.Equal(t, want, DisplayName(in), in)
	}
}

func TestOutputFilename(t *testing.T) {
	at := time.Date(2026, 3, 9, 17, 45, 0, 0, time.UTC)
	assert.Equal(t, "dossier-technique-2026-03-09.pdf", OutputFilename(at, 1, false))
	assert.Equal(t, "dossier-technique-2026-03-09-v3.pdf", OutputFilename(at, 3, true))
}
