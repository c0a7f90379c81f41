// Package docstore writes generated dossiers under the chantier's document directory.
package docstore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Writer stores generated files. A ref is the slash path of the file relative
// to the document root, e.g. "chantiers/C1/documents/dossier-technique-2026-03-09.pdf".
type Writer interface {
	Write(ctx context.Context, chantierID, filename string, data []byte) (ref string, err error)
	Remove(ctx context.Context, ref string) error
}

// Ref returns the reference of filename in the chantier's document directory.
func Ref(chantierID, filename string) string {
	return path.Join("chantiers", chantierID, "documents", filename)
}

// LocalWriter writes to the local document root.
type LocalWriter struct {
	Root string
}

func NewLocalWriter(root string) *LocalWriter {
	return &LocalWriter{Root: root}
}

func (w *LocalWriter) Write(_ context.Context, chantierID, filename string, data []byte) (string, error) {
	if err := checkName(chantierID); err != nil {
		return "", err
	}
	if err := checkName(filename); err != nil {
		return "", err
	}
	ref := Ref(chantierID, filename)
	dest := filepath.Join(w.Root, filepath.FromSlash(ref))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("failed to create document directory: %w", err)
	}

	// temp file + rename so readers never see a partial dossier
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filename+".*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write %s: %w", ref, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", ref, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", fmt.Errorf("failed to move %s into place: %w", ref, err)
	}
	return ref, nil
}

func (w *LocalWriter) Remove(_ context.Context, ref string) error {
	p := filepath.Join(w.Root, filepath.FromSlash(path.Clean("/" + ref)))
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", ref, err)
	}
	return nil
}

func checkName(s string) error {
	if s == "" || s == "." || s == ".." || strings.ContainsAny(s, `/\`) {
		return fmt.Errorf("invalid path element %q", s)
	}
	return nil
}

// ObjectStore is the remote side of a MirroredWriter.
type ObjectStore interface {
	Upload(ctx context.Context, object string, data []byte) error
	Delete(ctx context.Context, object string) error
}

// MirroredWriter writes through Primary and copies the file to Mirror under the same ref.
// Mirror failures are logged and never fail the write.
type MirroredWriter struct {
	Primary Writer
	Mirror  ObjectStore
}

func (w *MirroredWriter) Write(ctx context.Context, chantierID, filename string, data []byte) (string, error) {
	ref, err := w.Primary.Write(ctx, chantierID, filename, data)
	if err != nil {
		return "", err
	}
	if err := w.Mirror.Upload(ctx, ref, data); err != nil {
		slog.Warn("Failed to mirror dossier to object storage.", "ref", ref, "error", err)
	}
	return ref, nil
}

func (w *MirroredWriter) Remove(ctx context.Context, ref string) error {
	if err := w.Mirror.Delete(ctx, ref); err != nil {
		slog.Warn("Failed to delete mirrored dossier.", "ref", ref, "error", err)
	}
	return w.Primary.Remove(ctx, ref)
}
