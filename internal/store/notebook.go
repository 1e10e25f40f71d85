package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// NoteSuffix is the file name suffix of note documents.
	NoteSuffix = ".note"

	pngSuffix = ".png"
)

// Converter is the document conversion collaborator: it parses raw note
// bytes into a paginated Document.
type Converter interface {
	Parse(data []byte) (Document, error)
}

// Document is a parsed note document.
type Document interface {
	PageCount() int
	PageID(index int) (string, error)
	RenderPage(index int) ([]byte, error)
}

// NotebookFile wraps confirmed-fresh note bytes with its parsed document
// and the on-disk locations of rendered page images. Page ids, and
// therefore rendered image names, are stable only as long as the source
// bytes are unchanged.
type NotebookFile struct {
	doc       Document
	pageNames []string
	localPath string
}

func newNotebookFile(conv Converter, data []byte, name, localPath string) (*NotebookFile, error) {
	doc, err := conv.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedDocument, name, err)
	}
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	names := make([]string, doc.PageCount())
	for i := range names {
		pageID, err := doc.PageID(i)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedDocument, name, err)
		}
		names[i] = fmt.Sprintf("%s-%03d-%s", stem, i, pageID)
	}
	return &NotebookFile{doc: doc, pageNames: names, localPath: localPath}, nil
}

// PageNames returns the synthesized stable name of every page.
func (n *NotebookFile) PageNames() []string {
	return n.pageNames
}

// LocalPNGPath returns the deterministic path of a page's rendered image,
// under a subdirectory named after the document stem.
func (n *NotebookFile) LocalPNGPath(pageIndex int) (string, error) {
	if pageIndex < 0 || pageIndex >= len(n.pageNames) {
		return "", fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, pageIndex, len(n.pageNames))
	}
	stem := strings.TrimSuffix(filepath.Base(n.localPath), filepath.Ext(n.localPath))
	return filepath.Join(filepath.Dir(n.localPath), stem, n.pageNames[pageIndex]+pngSuffix), nil
}

// ReadPNG returns the cached rendered image for a page, or nil if none
// exists yet. It never renders.
func (n *NotebookFile) ReadPNG(pageIndex int) ([]byte, error) {
	path, err := n.LocalPNGPath(pageIndex)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// SavePNG renders a page and writes it to its deterministic path,
// overwriting any previous render.
func (n *NotebookFile) SavePNG(pageIndex int) error {
	path, err := n.LocalPNGPath(pageIndex)
	if err != nil {
		return err
	}
	data, err := n.doc.RenderPage(pageIndex)
	if err != nil {
		return fmt.Errorf("%w: page %d: %v", ErrConversionFailed, pageIndex, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ClearPNGCache deletes the document's rendered-image directory. Called
// whenever the source content hash changes: images are keyed by page id,
// and ids embedded in the old document may not correspond to the new one,
// so the whole directory goes.
func (n *NotebookFile) ClearPNGCache() error {
	stem := strings.TrimSuffix(filepath.Base(n.localPath), filepath.Ext(n.localPath))
	dir := filepath.Join(filepath.Dir(n.localPath), stem)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("clearing %s: %w", dir, err)
	}
	return nil
}
