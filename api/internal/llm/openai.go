package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	OpenAIName     = "openai"
	OpenAIFallback = "gpt-4o-mini"
)

type OpenAI struct {
	APIKey string
	client openai.Client
}

// NewOpenAI создаёт клиента без собственных ретраев SDK: повторами управляет Gateway.
func NewOpenAI(key, baseURL string) *OpenAI {
	key = strings.TrimSpace(key)
	opts := []option.RequestOption{
		option.WithAPIKey(key),
		option.WithMaxRetries(0),
		option.WithHTTPClient(&http.Client{Timeout: 120 * time.Second}),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAI{APIKey: key, client: openai.NewClient(opts...)}
}

func (o *OpenAI) Name() string     { return OpenAIName }
func (o *OpenAI) Configured() bool { return o.APIKey != "" }
func (o *OpenAI) Fallback() string { return OpenAIFallback }

func (o *OpenAI) Complete(ctx context.Context, call Call) (Reply, error) {
	var msgs []openai.ChatCompletionMessageParamUnion
	if s := strings.TrimSpace(call.System); s != "" {
		msgs = append(msgs, openai.SystemMessage(s))
	}
	msgs = append(msgs, openai.UserMessage(call.Prompt))

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(call.Model),
		Messages:            msgs,
		Temperature:         openai.Float(call.Temperature),
		MaxCompletionTokens: openai.Int(int64(call.MaxTokens)),
	})
	if err != nil {
		return Reply{}, openAIError(err)
	}
	if len(resp.Choices) == 0 {
		return Reply{Model: resp.Model}, nil
	}
	return Reply{Parts: []string{resp.Choices[0].Message.Content}, Model: resp.Model}, nil
}

func openAIError(err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	msg := apiErr.Message
	if msg == "" {
		msg = http.StatusText(apiErr.StatusCode)
	}
	return &StatusError{
		Provider: "OpenAI",
		Status:   apiErr.StatusCode,
		Message:  msg,
		Body:     strings.TrimSpace(apiErr.RawJSON()),
		InvalidModel: apiErr.Code == "model_not_found" ||
			(apiErr.StatusCode == http.StatusNotFound && strings.Contains(strings.ToLower(msg), "model")),
	}
}
