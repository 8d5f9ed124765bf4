package handle

import (
	"context"
	"net/http"
	"time"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type healthResponse struct {
	OK           bool   `json:"ok"`
	Mode         string `json:"mode"`
	Provider     string `json:"provider"`
	AIConfigured bool   `json:"aiConfigured"`
	Model        string `json:"model"`
	OCREngine    string `json:"ocrEngine"`
	DB           string `json:"db"`
}

func (h *Handle) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		OK:           true,
		Mode:         "smart+strict",
		Provider:     h.ai.Provider(),
		AIConfigured: h.ai.Configured(),
		Model:        h.ai.DefaultModel(),
		OCREngine:    h.ocr.Name(),
		DB:           "off",
	}
	code := http.StatusOK
	if p, ok := h.ocrLog.(pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			resp.OK = false
			resp.DB = err.Error()
			code = http.StatusServiceUnavailable
		} else {
			resp.DB = "ok"
		}
	}
	writeJSON(w, code, resp)
}
