package render

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Printer turns a complete HTML document into PDF bytes.
type Printer interface {
	PrintPDF(ctx context.Context, html string, opts PageOptions) ([]byte, error)
}

// RodPrinter prints through a headless Chrome driven by go-rod. The browser is
// started on first use and shared; every print opens its own tab.
type RodPrinter struct {
	// RemoteURL is the DevTools websocket of an external Chrome. Empty launches a local one.
	RemoteURL string

	mu      sync.Mutex
	browser *rod.Browser
	kill    func()

	// launch starts a local Chrome and returns its control URL and a kill func.
	launch func() (string, func(), error)
}

func NewRodPrinter(remoteURL string) *RodPrinter {
	return &RodPrinter{RemoteURL: remoteURL, launch: launchLocal}
}

func launchLocal() (string, func(), error) {
	l := launcher.New().Headless(true)
	u, err := l.Launch()
	if err != nil {
		return "", nil, err
	}
	return u, l.Kill, nil
}

func (p *RodPrinter) connect() (*rod.Browser, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.browser != nil {
		return p.browser, nil
	}

	wsURL := p.RemoteURL
	if wsURL == "" {
		launch := p.launch
		if launch == nil {
			launch = launchLocal
		}
		u, kill, err := launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		p.kill = kill
		slog.Info("Launched local chrome for printing.", "url", wsURL)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		p.killLocal()
		return nil, fmt.Errorf("browser: connect: %w", err)
	}
	p.browser = b
	return b, nil
}

func (p *RodPrinter) PrintPDF(ctx context.Context, html string, opts PageOptions) ([]byte, error) {
	b, err := p.connect()
	if err != nil {
		return nil, err
	}
	page, err := b.Context(ctx).Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}
	defer page.Close()

	if err := page.SetDocumentContent(html); err != nil {
		return nil, fmt.Errorf("browser: set content: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("browser: wait load: %w", err)
	}

	width, height := opts.Size()
	margin := opts.MarginInches()
	r, err := page.PDF(&proto.PagePrintToPDF{
		PaperWidth:      &width,
		PaperHeight:     &height,
		MarginTop:       &margin,
		MarginBottom:    &margin,
		MarginLeft:      &margin,
		MarginRight:     &margin,
		PrintBackground: true,
	})
	if err != nil {
		return nil, fmt.Errorf("browser: print: %w", err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("browser: read pdf stream: %w", err)
	}
	return data, nil
}

// Close shuts the browser down, and the local Chrome if one was launched.
func (p *RodPrinter) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var err error
	if p.browser != nil {
		err = p.browser.Close()
		p.browser = nil
	}
	p.killLocal()
	return err
}

func (p *RodPrinter) killLocal() {
	if p.kill != nil {
		p.kill()
		p.kill = nil
	}
}
