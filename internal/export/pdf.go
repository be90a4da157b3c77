package export

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"
)

const defaultTimeout = 60 * time.Second

// PDFExporter prints a rendered portfolio page through headless Chrome.
type PDFExporter struct {
	chromePath string
	timeout    time.Duration
}

// NewPDFExporter uses chromePath when set, otherwise chromedp's lookup.
func NewPDFExporter(chromePath string) *PDFExporter {
	return &PDFExporter{chromePath: chromePath, timeout: defaultTimeout}
}

func (e *PDFExporter) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if e.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(e.chromePath))
	}
	return opts
}

// HTMLToPDF renders html as an A4 document with backgrounds, so themed pages keep
// their colors.
func (e *PDFExporter) HTMLToPDF(ctx context.Context, html []byte) ([]byte, error) {
	allocCtx, cancel := chromedp.NewExecAllocator(ctx, e.allocatorOptions()...)
	defer cancel()

	cctx, cancelCtx := chromedp.NewContext(allocCtx)
	defer cancelCtx()

	tctx, cancelTimeout := context.WithTimeout(cctx, e.timeout)
	defer cancelTimeout()

	tmpDir, err := os.MkdirTemp("", "folio-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmpDir)

	htmlPath := filepath.Join(tmpDir, "index.html")
	if err := os.WriteFile(htmlPath, html, 0o644); err != nil {
		return nil, err
	}

	start := time.Now()
	var pdf []byte
	err = chromedp.Run(tctx,
		chromedp.Navigate("file://"+htmlPath),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			// A4 in inches
			pdf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, err
	}

	logrus.Infof("pdf export took %v (%d bytes)", time.Since(start), len(pdf))

	return pdf, nil
}
