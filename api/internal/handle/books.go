package handle

import (
	"errors"
	"net/http"

	"task-helper/api/internal/book"
)

const maxBookSize = 200 << 20

func (h *Handle) Books(w http.ResponseWriter, r *http.Request) {
	books, err := h.books.List()
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"books": books})
}

// UploadBook принимает multipart-поле "book" и сохраняет PDF под безопасным именем.
func (h *Handle) UploadBook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBookSize)
	file, hdr, err := r.FormFile("book")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Файл 'book' не надіслано")
		return
	}
	defer file.Close()

	name, pages, err := h.books.Save(hdr.Filename, file)
	if errors.Is(err, book.ErrNotPDF) {
		writeError(w, http.StatusBadRequest, "Файл не є коректним PDF")
		return
	}
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "filename": name, "numPages": pages})
}
