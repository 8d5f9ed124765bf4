package book

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Info — элемент списка /api/books.
type Info struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Title    string `json:"title"`
}

// Library — каталог с PDF-учебниками.
type Library struct {
	Dir string
}

func NewLibrary(dir string) *Library {
	return &Library{Dir: dir}
}

var reUnsafeName = regexp.MustCompile(`[^A-Za-z0-9.\-_]+`)

// SanitizeName оставляет в имени файла только латиницу, цифры, '.', '-', '_'.
func SanitizeName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	name = reUnsafeName.ReplaceAllString(name, "_")
	name = strings.TrimLeft(name, ".")
	if name == "" || name == "_" {
		name = "book"
	}
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		name += ".pdf"
	}
	return name
}

func titleOf(filename string) string {
	t := strings.TrimSuffix(filename, filepath.Ext(filename))
	return strings.NewReplacer("-", " ", "_", " ").Replace(t)
}

func (l *Library) List() ([]Info, error) {
	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Info{}, nil
		}
		return nil, err
	}
	out := make([]Info, 0, len(entries))
	for _, e := range entries {
		// ".upload-*.pdf" — незавершённая загрузка
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		out = append(out, Info{ID: e.Name(), Filename: e.Name(), Title: titleOf(e.Name())})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Filename < out[j].Filename })
	return out, nil
}

// Path возвращает путь к книге внутри каталога; имена с разделителями отклоняются.
func (l *Library) Path(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name != filepath.Base(name) || strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return filepath.Join(l.Dir, name), nil
}

func (l *Library) Open(name string) (*Document, error) {
	p, err := l.Path(name)
	if err != nil {
		return nil, err
	}
	return openDocument(name, p)
}

// Save сохраняет загруженный PDF под безопасным именем: пишем во временный файл,
// проверяем через pdfcpu, что это читаемый PDF, и только потом переименовываем.
func (l *Library) Save(name string, r io.Reader) (string, int, error) {
	if err := os.MkdirAll(l.Dir, 0o755); err != nil {
		return "", 0, err
	}
	safe := SanitizeName(name)

	tmp, err := os.CreateTemp(l.Dir, ".upload-*.pdf")
	if err != nil {
		return "", 0, err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", 0, fmt.Errorf("write upload: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return "", 0, err
	}
	pages, err := api.PageCount(tmp, nil)
	if cerr := tmp.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrNotPDF, err)
	}

	if err := os.Rename(tmpName, filepath.Join(l.Dir, safe)); err != nil {
		return "", 0, err
	}
	return safe, pages, nil
}
