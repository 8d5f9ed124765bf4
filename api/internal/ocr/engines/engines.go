package engines

import (
	"strings"

	"github.com/rs/zerolog/log"

	"task-helper/api/internal/config"
	"task-helper/api/internal/ocr"
	"task-helper/api/internal/ocr/tesseract"
	"task-helper/api/internal/ocr/yandex"
)

// FromConfig выбирает OCR-движок по OCR_ENGINE. Недоступный движок заменяется заглушкой.
func FromConfig(cfg config.OCRConfig) ocr.Engine {
	switch strings.ToLower(strings.TrimSpace(cfg.Engine)) {
	case "yandex":
		if cfg.YCOAuth == "" || cfg.YCFolderID == "" {
			log.Warn().Msg("ocr: yandex selected but YC_OAUTH_TOKEN/YC_FOLDER_ID are empty, using stub")
			return ocr.Stub{}
		}
		return yandex.New(cfg.YCOAuth, cfg.YCFolderID)
	case "tesseract":
		if !tesseract.Available {
			log.Warn().Msg("ocr: built without tesseract tag, using stub")
			return ocr.Stub{}
		}
		return tesseract.New()
	case "", "stub":
		return ocr.Stub{}
	default:
		log.Warn().Str("engine", cfg.Engine).Msg("ocr: unknown engine, using stub")
		return ocr.Stub{}
	}
}

// All — движки, между которыми можно переключаться в боте: заглушка и всё, что настроено.
func All(cfg config.OCRConfig) []ocr.Engine {
	out := []ocr.Engine{ocr.Stub{}}
	if cfg.YCOAuth != "" && cfg.YCFolderID != "" {
		out = append(out, yandex.New(cfg.YCOAuth, cfg.YCFolderID))
	}
	if tesseract.Available {
		out = append(out, tesseract.New())
	}
	return out
}
