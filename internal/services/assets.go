package services

import (
	"encoding/base64"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// maxLogoSize caps logos embedded into cover HTML.
const maxLogoSize = 2 << 20

// loadLogo reads a logo stored under the document root and returns it as a data URI.
// An empty ref yields no logo and no error.
func loadLogo(root, ref string) (template.URL, *RecoverableError) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", nil
	}
	p := filepath.Join(root, filepath.FromSlash(path.Clean("/"+ref)))
	info, err := os.Stat(p)
	if err != nil {
		return "", &RecoverableError{Op: "load logo " + ref, Err: err}
	}
	if info.Size() > maxLogoSize {
		return "", &RecoverableError{Op: "load logo " + ref, Err: fmt.Errorf("logo is %d bytes, limit is %d", info.Size(), maxLogoSize)}
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return "", &RecoverableError{Op: "load logo " + ref, Err: err}
	}
	mime := http.DetectContentType(data)
	if strings.HasSuffix(strings.ToLower(p), ".svg") {
		mime = "image/svg+xml"
	}
	if !strings.HasPrefix(mime, "image/") {
		return "", &RecoverableError{Op: "load logo " + ref, Err: fmt.Errorf("unsupported content type %s", mime)}
	}
	return template.URL("data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)), nil
}
