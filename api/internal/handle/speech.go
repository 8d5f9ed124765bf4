package handle

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"task-helper/api/internal/speech"
)

type speechRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

// Sentences режет ответ на предложения для караоке-подсветки.
func (h *Handle) Sentences(w http.ResponseWriter, r *http.Request) {
	var req speechRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json: "+err.Error())
		return
	}
	out := speech.Sentences(req.Text)
	if out == nil {
		out = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sentences": out})
}

// Speech отдаёт mp3 с озвучкой текста.
func (h *Handle) Speech(w http.ResponseWriter, r *http.Request) {
	var req speechRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json: "+err.Error())
		return
	}
	if h.tts == nil || !h.tts.Configured() {
		writeError(w, http.StatusServiceUnavailable, "Озвучка недоступна: відсутній OPENAI_API_KEY")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "Немає тексту для озвучення")
		return
	}

	ctx, cancel := h.aiContext(r)
	defer cancel()
	audio, err := h.tts.Synthesize(ctx, req.Text, req.Voice)
	if errors.Is(err, speech.ErrEmptyText) {
		writeError(w, http.StatusBadRequest, "Немає тексту для озвучення")
		return
	}
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("tts failed")
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio)
}
