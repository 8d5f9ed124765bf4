package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	OpenRouterName     = "openrouter"
	OpenRouterBaseURL  = "https://openrouter.ai/api/v1"
	OpenRouterFallback = "anthropic/claude-3.5-haiku"
)

type OpenRouter struct {
	APIKey  string
	BaseURL string
	Referer string
	Title   string
	httpc   *http.Client
}

func NewOpenRouter(key, baseURL string) *OpenRouter {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = OpenRouterBaseURL
	}
	return &OpenRouter{
		APIKey:  strings.TrimSpace(key),
		BaseURL: strings.TrimRight(baseURL, "/"),
		Title:   "AI Educational Assistant",
		httpc:   &http.Client{Timeout: 120 * time.Second},
	}
}

func (o *OpenRouter) Name() string     { return OpenRouterName }
func (o *OpenRouter) Configured() bool { return o.APIKey != "" }
func (o *OpenRouter) Fallback() string { return OpenRouterFallback }

type orMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type orRequest struct {
	Model       string      `json:"model"`
	Messages    []orMessage `json:"messages"`
	Temperature float64     `json:"temperature"`
	MaxTokens   int         `json:"max_tokens"`
}

type orResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			// строка или массив частей [{type, text}]
			Content any `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (o *OpenRouter) Complete(ctx context.Context, call Call) (Reply, error) {
	body := orRequest{
		Model:       call.Model,
		Temperature: call.Temperature,
		MaxTokens:   call.MaxTokens,
	}
	if s := strings.TrimSpace(call.System); s != "" {
		body.Messages = append(body.Messages, orMessage{Role: "system", Content: s})
	}
	body.Messages = append(body.Messages, orMessage{Role: "user", Content: call.Prompt})

	payload, err := json.Marshal(body)
	if err != nil {
		return Reply{}, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return Reply{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.APIKey)
	if o.Referer != "" {
		req.Header.Set("HTTP-Referer", o.Referer)
	}
	if o.Title != "" {
		req.Header.Set("X-Title", o.Title)
	}

	resp, err := o.httpc.Do(req)
	if err != nil {
		return Reply{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Reply{}, fmt.Errorf("read body: %w", err)
	}

	var out orResponse
	// тело может быть не JSON (прокси, HTML-страница ошибки) — это не повод падать
	_ = json.Unmarshal(raw, &out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := resp.Status
		if out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		return Reply{}, &StatusError{
			Provider:     "OpenRouter",
			Status:       resp.StatusCode,
			Message:      msg,
			Body:         strings.TrimSpace(string(raw)),
			InvalidModel: resp.StatusCode == http.StatusBadRequest && strings.Contains(strings.ToLower(msg), "not a valid model id"),
		}
	}

	if len(out.Choices) == 0 {
		return Reply{Model: out.Model}, nil
	}
	return Reply{Parts: contentParts(out.Choices[0].Message.Content), Model: out.Model}, nil
}

// contentParts разворачивает content: строку, массив строк/частей или одну часть {text}.
func contentParts(c any) []string {
	switch v := c.(type) {
	case nil:
		return nil
	case string:
		return []string{v}
	case []any:
		parts := make([]string, 0, len(v))
		for _, it := range v {
			switch p := it.(type) {
			case string:
				parts = append(parts, p)
			case map[string]any:
				if s, ok := p["text"].(string); ok {
					parts = append(parts, s)
				} else {
					parts = append(parts, "")
				}
			}
		}
		return parts
	case map[string]any:
		if s, ok := v["text"].(string); ok {
			return []string{s}
		}
	}
	return nil
}
