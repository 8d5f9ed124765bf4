package handle

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"task-helper/api/internal/ocr"
	"task-helper/api/internal/store"
	"task-helper/api/internal/util"
)

const maxImageSize = 20 << 20

// readImage берёт multipart-поле "image" или JSON {"image": "<base64 | data:URI>"}.
func readImage(r *http.Request) ([]byte, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body struct {
			Image string `json:"image"`
		}
		if err := decodeJSON(r, &body); err != nil {
			return nil, err
		}
		img, _, err := util.DecodeBase64MaybeDataURL(body.Image)
		return img, err
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		return nil, err
	}
	defer file.Close()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (h *Handle) ImageOCR(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageSize)
	img, err := readImage(r)
	if err != nil || len(img) == 0 {
		writeError(w, http.StatusBadRequest, "Файл зображення не надіслано (поле: image)")
		return
	}

	res, err := ocr.Run(r.Context(), h.ocr, img, h.ocrOpts)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("engine", h.ocr.Name()).Msg("ocr failed")
		writeError(w, http.StatusInternalServerError, "Помилка OCR або некоректний формат файлу")
		return
	}

	if h.ocrLog != nil {
		entry := store.Entry{
			Time:     time.Now(),
			Engine:   h.ocr.Name(),
			Status:   res.Status,
			Task:     res.Task,
			Drawings: res.Drawings,
			Text:     res.Text,
		}
		if err := h.ocrLog.Append(r.Context(), entry); err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("ocr log append")
		}
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handle) OCRLog(w http.ResponseWriter, r *http.Request) {
	if h.ocrLog == nil {
		writeJSON(w, http.StatusOK, map[string]any{"entries": []store.Entry{}})
		return
	}
	entries, err := h.ocrLog.List(r.Context())
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *Handle) OCRClear(w http.ResponseWriter, r *http.Request) {
	if h.ocrLog != nil {
		if err := h.ocrLog.Clear(r.Context()); err != nil {
			internalError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"cleared": true})
}
