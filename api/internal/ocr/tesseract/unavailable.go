//go:build !tesseract

package tesseract

import (
	"context"
	"errors"

	"task-helper/api/internal/ocr"
)

// Available — без тега tesseract cgo-зависимость не собирается.
const Available = false

var ErrUnavailable = errors.New("tesseract: binary built without -tags tesseract")

type Engine struct{}

func New() *Engine { return &Engine{} }

func (e *Engine) Name() string { return "tesseract" }

func (e *Engine) Recognize(context.Context, []byte, ocr.Options) (string, error) {
	return "", ErrUnavailable
}
