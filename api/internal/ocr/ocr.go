package ocr

import (
	"context"
	"regexp"
	"strings"
)

// StubText — ответ, когда настоящий OCR не подключён.
const StubText = "Режим по зображенню (OCR) буде додано окремо. Наразі скористайтесь режимом PDF або просто опишіть завдання текстом."

const (
	StatusTask    = "✅ Завдання розпізнано"
	StatusNoTask  = "ℹ️ Текст розпізнано, завдання не визначено"
	StatusPending = "ℹ️ OCR не підключено"
)

type Options struct {
	Langs []string // коды tesseract: ukr, eng, rus
	Model string   // модель распознавания движка, если он их различает
}

type Engine interface {
	Name() string
	Recognize(ctx context.Context, image []byte, opt Options) (string, error)
}

// ParseLangs разбирает "ukr+eng" (формат tesseract) в список кодов.
func ParseLangs(s string) []string {
	var out []string
	for _, l := range strings.FieldsFunc(s, func(r rune) bool { return r == '+' || r == ',' || r == ' ' }) {
		out = append(out, strings.ToLower(l))
	}
	return out
}

type Stub struct{}

func (Stub) Name() string { return "stub" }

func (Stub) Recognize(context.Context, []byte, Options) (string, error) {
	return StubText, nil
}

// Result — то, что видит клиент и что уходит в журнал.
type Result struct {
	Text     string   `json:"text"`
	Task     string   `json:"task,omitempty"`
	Drawings []string `json:"drawings"`
	Status   string   `json:"status"`
}

var (
	reTaskNum = regexp.MustCompile(`\b(\d{3,4})\.`)
	reDrawing = regexp.MustCompile(`(?i)рис\.?\s?(\d+)`)
)

// Analyze ищет в распознанном тексте номер задания ("312.") и ссылки на рисунки ("Рис. 5").
func Analyze(text string) Result {
	res := Result{Text: strings.TrimSpace(text), Drawings: []string{}}
	if m := reTaskNum.FindStringSubmatch(res.Text); m != nil {
		res.Task = m[1]
	}
	for _, m := range reDrawing.FindAllStringSubmatch(res.Text, -1) {
		res.Drawings = append(res.Drawings, m[1])
	}
	if res.Task != "" {
		res.Status = StatusTask
	} else {
		res.Status = StatusNoTask
	}
	return res
}

// Run распознаёт изображение и сразу разбирает текст.
func Run(ctx context.Context, e Engine, image []byte, opt Options) (Result, error) {
	text, err := e.Recognize(ctx, image, opt)
	if err != nil {
		return Result{}, err
	}
	if _, ok := e.(Stub); ok {
		return Result{Text: text, Drawings: []string{}, Status: StatusPending}, nil
	}
	return Analyze(text), nil
}
