package pdftext

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ledongthuc/pdf"

	"github.com/chipfilings/assistant/internal/core/domain"
)

// Extractor reads filing PDFs from a local directory and renders them as
// plain text with "--- PAGE N ---" markers. Parsed filings are cached in
// memory; a 10-K is parsed once per process.
type Extractor struct {
	dir string

	mu    sync.Mutex
	cache map[string]string
}

func NewExtractor(dir string) *Extractor {
	return &Extractor{
		dir:   dir,
		cache: make(map[string]string),
	}
}

func (e *Extractor) PageText(ctx context.Context, sourceFile string) (string, error) {
	e.mu.Lock()
	cached, ok := e.cache[sourceFile]
	e.mu.Unlock()
	if ok {
		return cached, nil
	}

	text, err := e.extract(ctx, sourceFile)
	if err != nil {
		return "", err
	}

	e.mu.Lock()
	e.cache[sourceFile] = text
	e.mu.Unlock()
	return text, nil
}

func (e *Extractor) extract(ctx context.Context, sourceFile string) (string, error) {
	path := filepath.Join(e.dir, filepath.Base(sourceFile))

	f, reader, err := pdf.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", domain.WrapError(domain.ErrFilingNotFound, "open filing pdf", fmt.Errorf("%s: %w", sourceFile, err))
		}
		return "", fmt.Errorf("open filing pdf %s: %w", sourceFile, err)
	}
	defer f.Close()

	var b strings.Builder
	total := reader.NumPage()
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page should not sink the whole filing.
			fmt.Fprintf(&b, "--- PAGE %d ---\n", i)
			continue
		}
		fmt.Fprintf(&b, "--- PAGE %d ---\n%s\n", i, text)
	}

	if b.Len() == 0 {
		return "", fmt.Errorf("no extractable pages in %s", sourceFile)
	}
	return b.String(), nil
}
