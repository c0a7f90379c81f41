// Package pdfdoc wraps pdfcpu for the few operations dossier assembly needs:
// counting pages, concatenating documents and stamping a text overlay.
package pdfdoc

import (
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var disableConfigDir sync.Once

// newConfig returns a relaxed pdfcpu configuration. Supplier sheets are often
// not strictly conformant, so validation must not reject them.
func newConfig() *model.Configuration {
	disableConfigDir.Do(api.DisableConfigDir)
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}
