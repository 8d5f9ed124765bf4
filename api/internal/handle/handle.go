package handle

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"task-helper/api/internal/book"
	"task-helper/api/internal/config"
	"task-helper/api/internal/llm"
	"task-helper/api/internal/ocr"
	"task-helper/api/internal/store"
)

const maxJSONBody = 1 << 20

// Synthesizer — озвучка ответа (OpenAI TTS).
type Synthesizer interface {
	Configured() bool
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

type Deps struct {
	Books  *book.Library
	AI     *llm.Gateway
	OCR    ocr.Engine
	OCRLog store.Log
	TTS    Synthesizer
}

type Handle struct {
	books     *book.Library
	ai        *llm.Gateway
	ocr       ocr.Engine
	ocrOpts   ocr.Options
	ocrLog    store.Log
	tts       Synthesizer
	aiTimeout time.Duration
}

func New(cfg *config.Config, d Deps) *Handle {
	eng := d.OCR
	if eng == nil {
		eng = ocr.Stub{}
	}
	return &Handle{
		books:     d.Books,
		ai:        d.AI,
		ocr:       eng,
		ocrOpts:   ocr.Options{Langs: ocr.ParseLangs(cfg.OCR.Langs)},
		ocrLog:    d.OCRLog,
		tts:       d.TTS,
		aiTimeout: cfg.AI.Timeout,
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error     string `json:"error"`
	PageIndex *int   `json:"pageIndex,omitempty"`
	NumPages  int    `json:"numPages,omitempty"`
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorBody{Error: msg})
}

// internalError логирует причину и отдаёт 500 с текстом ошибки.
func internalError(w http.ResponseWriter, r *http.Request, err error) {
	zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("handler failed")
	writeError(w, http.StatusInternalServerError, err.Error())
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil && err != io.EOF {
		return err
	}
	return nil
}

// aiContext: запрос к модели доживает до конца даже если клиент ушёл, но не дольше AI_TIMEOUT.
func (h *Handle) aiContext(r *http.Request) (context.Context, context.CancelFunc) {
	ctx := context.WithoutCancel(r.Context())
	if h.aiTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.aiTimeout)
}
