//go:build tesseract

package tesseract

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"task-helper/api/internal/ocr"
)

// Available — движок собран с поддержкой libtesseract.
const Available = true

type Engine struct{}

func New() *Engine { return &Engine{} }

func (e *Engine) Name() string { return "tesseract" }

func (e *Engine) Recognize(ctx context.Context, image []byte, opt ocr.Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	client := gosseract.NewClient()
	defer client.Close()

	langs := opt.Langs
	if len(langs) == 0 {
		langs = []string{"ukr", "eng"}
	}
	if err := client.SetLanguage(langs...); err != nil {
		return "", fmt.Errorf("tesseract lang: %w", err)
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("tesseract image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return strings.Join(strings.Fields(text), " "), nil
}
