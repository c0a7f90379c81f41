package pdfdoc

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// stampDesc anchors small black text in the bottom-left corner, clear of the 10mm margin.
const stampDesc = "font:Helvetica, points:8, fillc:#000000, pos:bl, off:30 14, scale:1 abs, rot:0, op:0.85"

// StampText writes text onto the first page of data and returns the new document.
// Lines are separated by "\n".
func StampText(data []byte, text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return data, nil
	}
	wm, err := pdfcpu.ParseTextWatermarkDetails(text, stampDesc, true, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("parse stamp: %w", err)
	}
	var out bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(data), &out, []string{"1"}, wm, newConfig()); err != nil {
		return nil, fmt.Errorf("stamp first page: %w", err)
	}
	return out.Bytes(), nil
}
