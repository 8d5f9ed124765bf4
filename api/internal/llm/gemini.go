package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	GeminiName     = "gemini"
	GeminiFallback = "gemini-2.0-flash"
)

type Gemini struct {
	APIKey string
	opts   []option.ClientOption
}

func NewGemini(key string, opts ...option.ClientOption) *Gemini {
	return &Gemini{APIKey: strings.TrimSpace(key), opts: opts}
}

func (g *Gemini) Name() string     { return GeminiName }
func (g *Gemini) Configured() bool { return g.APIKey != "" }
func (g *Gemini) Fallback() string { return GeminiFallback }

func (g *Gemini) Complete(ctx context.Context, call Call) (Reply, error) {
	cl, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(g.APIKey)}, g.opts...)...)
	if err != nil {
		return Reply{}, err
	}
	defer cl.Close()

	m := cl.GenerativeModel(strings.TrimPrefix(strings.TrimSpace(call.Model), "models/"))
	m.SetTemperature(float32(call.Temperature))
	m.SetMaxOutputTokens(int32(call.MaxTokens))
	if s := strings.TrimSpace(call.System); s != "" {
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(s)}}
	}

	resp, err := m.GenerateContent(ctx, genai.Text(call.Prompt))
	if err != nil {
		// ответ заблокирован фильтрами — это пустой ответ, а не сбой транспорта
		var blocked *genai.BlockedError
		if errors.As(err, &blocked) {
			return Reply{Model: call.Model}, nil
		}
		return Reply{}, geminiError(err)
	}

	var parts []string
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, p := range resp.Candidates[0].Content.Parts {
			if t, ok := p.(genai.Text); ok {
				parts = append(parts, string(t))
			}
		}
	}
	return Reply{Parts: parts, Model: call.Model}, nil
}

// geminiError переводит googleapi.Error в StatusError; остальное — сетевые ошибки.
func geminiError(err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}
	msg := gerr.Message
	if msg == "" {
		msg = http.StatusText(gerr.Code)
	}
	low := strings.ToLower(msg)
	invalid := gerr.Code == http.StatusNotFound ||
		(gerr.Code == http.StatusBadRequest && strings.Contains(low, "model") &&
			(strings.Contains(low, "not found") || strings.Contains(low, "not supported") || strings.Contains(low, "invalid")))
	return &StatusError{
		Provider:     "Gemini",
		Status:       gerr.Code,
		Message:      msg,
		Body:         strings.TrimSpace(gerr.Body),
		InvalidModel: invalid,
	}
}
