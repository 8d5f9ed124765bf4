package book

import (
	"errors"
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"
)

var (
	ErrNotFound       = errors.New("book not found")
	ErrNotPDF         = errors.New("file is not a PDF")
	ErrPageOutOfRange = errors.New("page out of range")
)

// Document — открытый PDF учебника. Текст страниц не кэшируется.
type Document struct {
	Name string

	f *os.File
	r *pdf.Reader
}

func openDocument(name, path string) (*Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return &Document{Name: name, f: f, r: r}, nil
}

func (d *Document) Close() error {
	if d.f == nil {
		return nil
	}
	return d.f.Close()
}

func (d *Document) NumPages() int { return d.r.NumPage() }

// PageText возвращает нормализованный текст страницы i (с 1).
// Битые страницы в ledongthuc/pdf иногда паникуют — превращаем это в ошибку.
func (d *Document) PageText(i int) (text string, err error) {
	if i < 1 || i > d.r.NumPage() {
		return "", fmt.Errorf("%w: %d (1..%d)", ErrPageOutOfRange, i, d.r.NumPage())
	}
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("page %d: pdf panic: %v", i, rec)
		}
	}()

	p := d.r.Page(i)
	if p.V.IsNull() {
		return "", nil
	}
	raw, err := p.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("page %d: %w", i, err)
	}
	return NormalizeText(raw), nil
}
