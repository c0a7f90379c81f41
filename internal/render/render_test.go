package render

import (
	"context"
	"errors"
	"html/template"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePrinter struct {
	html string
	opts PageOptions
	err  error
}

func (p *capturePrinter) PrintPDF(_ context.Context, html string, opts PageOptions) ([]byte, error) {
	p.html, p.opts = html, opts
	if p.err != nil {
		return nil, p.err
	}
	return []byte("%PDF-1.4"), nil
}

func TestDefaultPageOptions(t *testing.T) {
	o := DefaultPageOptions()
	w, h := o.Size()
	assert.Equal(t, "A4", o.Paper.Name)
	assert.False(t, o.Landscape)
	assert.Equal(t, 8.27, w)
	assert.Equal(t, 11.69, h)
	assert.InDelta(t, 0.3937, o.MarginInches(), 0.0001)
}

func TestDefaultTemplatesLoad(t *testing.T) {
	s, err := DefaultTemplates()
	require.NoError(t, err)
	for _, key := range []string{DossierCoverTemplate, FicheCoverTemplate, TOCTemplate} {
		_, ok := s.Get(key)
		assert.True(t, ok, key)
	}
}

func TestTemplateStoreSkipsHidden(t *testing.T) {
	fsys := fstest.MapFS{
		"a.gohtml":         {Data: []byte("A")},
		"sub/b.gohtml":     {Data: []byte("B")},
		".hidden/c.gohtml": {Data: []byte("C")},
		"notes.txt":        {Data: []byte("ignored")},
	}
	s := NewTemplateStore()
	require.NoError(t, s.Load(fsys))

	_, ok := s.Get("a")
	assert.True(t, ok)
	_, ok = s.Get("sub/b")
	assert.True(t, ok)
	_, ok = s.Get(".hidden/c")
	assert.False(t, ok)
}

func TestTemplateStoreRejectsBadTemplate(t *testing.T) {
	s := NewTemplateStore()
	err := s.Load(fstest.MapFS{"bad.gohtml": {Data: []byte("{{.Unclosed")}})
	assert.Error(t, err)
}

func TestRenderFicheCover(t *testing.T) {
	s, err := DefaultTemplates()
	require.NoError(t, err)
	p := &capturePrinter{}
	r := NewRenderer(s, p)

	_, err = r.FicheCover(context.Background(), FicheCoverData{
		ChantierName: "Résidence Les Tilleuls",
		Position:     3,
		DisplayName:  "Robinet Thermostatique",
		Reference:    "RT-200",
		Status:       "VALIDATED",
		SousTraitant: &Party{Name: "Plomberie Martin", Logo: template.URL("data:image/png;base64,AAAA")},
		Remarques:    "Pose <b>avant</b> carrelage",
		GeneratedAt:  time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Contains(t, p.html, "Robinet Thermostatique")
	assert.Contains(t, p.html, "RT-200")
	assert.Contains(t, p.html, "Validée")
	assert.Contains(t, p.html, "data:image/png;base64,AAAA")
	assert.Contains(t, p.html, "09/03/2026")
	assert.Contains(t, p.html, "&lt;b&gt;avant&lt;/b&gt;")
	assert.Equal(t, DefaultPageOptions(), p.opts)
}

func TestRenderTOC(t *testing.T) {
	s, err := DefaultTemplates()
	require.NoError(t, err)
	p := &capturePrinter{}
	r := NewRenderer(s, p)

	_, err = r.TableOfContents(context.Background(), TOCData{
		ChantierName: "C1",
		Entries: []TOCEntry{
			{Position: 1, DisplayName: "Vanne", StartPage: 3},
			{Position: 2, DisplayName: "Pompe", Reference: "P-1", StartPage: 7},
		},
	})
	require.NoError(t, err)
	assert.Contains(t, p.html, "Vanne")
	assert.Contains(t, p.html, "P-1")
	assert.Contains(t, p.html, ">7<")
}

func TestRenderErrors(t *testing.T) {
	s, err := DefaultTemplates()
	require.NoError(t, err)

	_, err = NewRenderer(s, &capturePrinter{}).Render(context.Background(), "missing", nil)
	assert.Error(t, err)

	boom := errors.New("chrome crashed")
	_, err = NewRenderer(s, &capturePrinter{err: boom}).DossierCover(context.Background(), DossierCoverData{})
	assert.ErrorIs(t, err, boom)
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "Brouillon", StatusLabel("DRAFT"))
	assert.Equal(t, "Brouillon", StatusLabel(""))
	assert.Equal(t, "Nouvelle proposition", StatusLabel("NEW_PROPOSAL"))
}

func TestRodPrinterKillsLocalChromeWhenConnectFails(t *testing.T) {
	launches, kills := 0, 0
	p := &RodPrinter{launch: func() (string, func(), error) {
		launches++
		// nothing listens on port 1
		return "ws://127.0.0.1:1/devtools/browser/x", func() { kills++ }, nil
	}}

	_, err := p.connect()
	require.Error(t, err)
	_, err = p.connect()
	require.Error(t, err)

	assert.Equal(t, 2, launches)
	assert.Equal(t, 2, kills)
	assert.Nil(t, p.browser)
	assert.Nil(t, p.kill)
	require.NoError(t, p.Close())
	assert.Equal(t, 2, kills)
}
