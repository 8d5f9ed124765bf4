package book

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-helper/api/internal/book/booktest"
	"task-helper/api/internal/task"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct{ in, want string }{
		{"  534.\tfoo\n\n535. bar ", "534. foo 535. bar"},
		{"мате- \n матика", "математика"},
		{"мате-\nма-\nтика", "математика"},
		{"мате- м- атика", "математика"},
		{"а- б- в", "абв"},
		{"розв\u00adязання", "розвязання"},
		{"5 - 3 = 2", "5 - 3 = 2"},
		{"\ufb01le", "file"},
		{"площа 36 см²", "площа 36 см2"},
		{"північно-східний", "північно-східний"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeText(tt.in), "input %q", tt.in)
	}
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "algebra.pdf", SanitizeName("algebra.pdf"))
	assert.Equal(t, "_7.pdf", SanitizeName("Алгебра 7.pdf"))
	assert.Equal(t, "passwd.pdf", SanitizeName("../../etc/passwd"))
	assert.Equal(t, "book.pdf", SanitizeName(""))
	assert.Equal(t, "Math_5.PDF", SanitizeName("Math 5.PDF"))
}

func TestLibraryList(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.pdf"), 0o755))
	booktest.Write(t, dir, "math_5-class.pdf", "1. a")
	booktest.Write(t, dir, "Algebra.PDF", "1. a")
	booktest.Write(t, dir, ".upload-123.pdf", "1. a")

	books, err := NewLibrary(dir).List()
	require.NoError(t, err)
	assert.Equal(t, []Info{
		{ID: "Algebra.PDF", Filename: "Algebra.PDF", Title: "Algebra"},
		{ID: "math_5-class.pdf", Filename: "math_5-class.pdf", Title: "math 5 class"},
	}, books)
}

func TestLibraryListMissingDir(t *testing.T) {
	books, err := NewLibrary(filepath.Join(t.TempDir(), "nope")).List()
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestLibraryPathRejectsTraversal(t *testing.T) {
	l := NewLibrary(t.TempDir())
	for _, name := range []string{"", "../secret.pdf", "a/b.pdf", `a\b.pdf`, ".."} {
		_, err := l.Path(name)
		assert.ErrorIs(t, err, ErrNotFound, "name %q", name)
	}
}

func TestLibraryOpenMissing(t *testing.T) {
	_, err := NewLibrary(t.TempDir()).Open("absent.pdf")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDocumentPageText(t *testing.T) {
	dir := t.TempDir()
	booktest.Write(t, dir, "algebra.pdf",
		"Chapter one",
		"534. foo 535. Compute 2+2. 536. bar",
	)
	doc, err := NewLibrary(dir).Open("algebra.pdf")
	require.NoError(t, err)
	defer doc.Close()

	require.Equal(t, 2, doc.NumPages())
	text, err := doc.PageText(2)
	require.NoError(t, err)
	assert.Contains(t, text, "535. Compute 2+2.")

	_, err = doc.PageText(3)
	assert.ErrorIs(t, err, ErrPageOutOfRange)

	hit, err := task.FindTask(context.Background(), doc, 535)
	require.NoError(t, err)
	assert.Equal(t, 2, hit.PageIndex)
	assert.Equal(t, "535. Compute 2+2.", hit.Fragment)
}

func TestLibrarySave(t *testing.T) {
	dir := t.TempDir()
	l := NewLibrary(dir)

	name, pages, err := l.Save("Мій підручник.pdf", bytes.NewReader(booktest.PDF("1. a", "2. b", "3. c")))
	require.NoError(t, err)
	assert.Equal(t, "_.pdf", name)
	assert.Equal(t, 3, pages)
	_, err = os.Stat(filepath.Join(dir, name))
	require.NoError(t, err)

	_, _, err = l.Save("fake.pdf", strings.NewReader("definitely not a pdf"))
	assert.ErrorIs(t, err, ErrNotPDF)
	_, err = os.Stat(filepath.Join(dir, "fake.pdf"))
	assert.True(t, os.IsNotExist(err))

	// временные файлы не остаются в каталоге
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
