// Package pdf loads PDF files and in-memory uploads into page records.
//
// Structure is validated with pdfcpu in relaxed mode, which tolerates the
// minor defects common in scanned or exported handbooks. Text is extracted
// page by page with ledongthuc/pdf so every chunk can cite its page.
package pdf

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	lpdf "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/logger"
)

// Ensure Loader implements the interface.
var _ driven.DocumentLoader = (*Loader)(nil)

// documentNamespace scopes document ids.
var documentNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://ragdesk.dev/document"))

func init() {
	// Keep pdfcpu from writing a config directory under the user's home.
	model.ConfigPath = "disable"
}

// Loader reads PDFs from disk or memory.
type Loader struct {
	conf    *model.Configuration
	tempDir string
}

// Option configures a Loader.
type Option func(*Loader)

// WithTempDir sets where uploads are staged for the parser. Defaults to os.TempDir.
func WithTempDir(dir string) Option {
	return func(l *Loader) {
		l.tempDir = dir
	}
}

// New creates a Loader.
func New(opts ...Option) *Loader {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	l := &Loader{conf: conf}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadPath loads one PDF file, or every PDF directly inside a directory in
// lexical order. A directory without PDFs yields no pages.
func (l *Loader) LoadPath(ctx context.Context, path string) ([]domain.Page, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	if !info.IsDir() {
		return l.loadFile(path, filepath.Base(path), domain.OriginCorpus, documentID(domain.OriginCorpus, filepath.Clean(path), nil))
	}

	files, err := listPDFs(path)
	if err != nil {
		return nil, err
	}
	logger.Debug("pdf: %d files in %s", len(files), path)

	var pages []domain.Page
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p, err := l.loadFile(file, filepath.Base(file), domain.OriginCorpus, documentID(domain.OriginCorpus, filepath.Clean(file), nil))
		if err != nil {
			return nil, err
		}
		pages = append(pages, p...)
	}
	return pages, nil
}

// LoadUpload parses an in-memory PDF. The bytes are staged in a temporary
// file that is removed before returning.
func (l *Loader) LoadUpload(ctx context.Context, name string, data []byte) ([]domain.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: upload %q is empty", domain.ErrParse, name)
	}
	if name == "" {
		name = "upload.pdf"
	}

	tmp, err := os.CreateTemp(l.tempDir, "ragdesk-upload-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("stage upload: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("stage upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("stage upload: %w", err)
	}

	return l.loadFile(tmp.Name(), name, domain.OriginUpload, documentID(domain.OriginUpload, name, data))
}

func (l *Loader) loadFile(path, source string, origin domain.Origin, docID string) ([]domain.Page, error) {
	if err := api.ValidateFile(path, l.conf); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrParse, source, err)
	}

	count, err := api.PageCountFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrParse, source, err)
	}

	texts, err := extractPages(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrParse, source, err)
	}
	// Pages the extractor cannot see are kept blank so indices match the page tree.
	for len(texts) < count {
		texts = append(texts, "")
	}

	pages := make([]domain.Page, len(texts))
	for i, text := range texts {
		pages[i] = domain.Page{
			DocumentID: docID,
			Source:     source,
			Origin:     origin,
			Index:      i,
			Content:    text,
		}
	}
	logger.Debug("pdf: %s: %d pages", source, len(pages))
	return pages, nil
}

// extractPages returns the plain text of each page in order. Blank pages
// yield empty strings so page indices stay aligned.
func extractPages(path string) (texts []string, err error) {
	// The text extractor panics on some malformed content streams.
	defer func() {
		if r := recover(); r != nil {
			texts = nil
			err = fmt.Errorf("extract text: %v", r)
		}
	}()

	f, reader, err := lpdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	n := reader.NumPage()
	texts = make([]string, n)
	for i := 1; i <= n; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		texts[i-1] = strings.TrimSpace(text)
	}
	return texts, nil
}

func listPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// documentID is stable for the same origin, name and content.
func documentID(origin domain.Origin, name string, data []byte) string {
	key := string(origin) + ":" + name
	if data != nil {
		sum := sha256.Sum256(data)
		key += fmt.Sprintf(":%x", sum[:8])
	}
	return uuid.NewSHA1(documentNamespace, []byte(key)).String()
}
