package pdfdoc

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// CountFile returns the number of pages of the PDF at path.
func CountFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	n, err := count(f)
	if err != nil {
		return 0, fmt.Errorf("count pages of %s: %w", path, err)
	}
	return n, nil
}

// CountBytes returns the number of pages of an in-memory PDF.
func CountBytes(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("count pages: empty document")
	}
	n, err := count(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("count pages: %w", err)
	}
	return n, nil
}

func count(rs io.ReadSeeker) (int, error) {
	n, err := api.PageCount(rs, newConfig())
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, fmt.Errorf("document has no pages")
	}
	return n, nil
}
