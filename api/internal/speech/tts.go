package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const maxTTSChars = 4096

var (
	ErrNotConfigured = errors.New("tts: OPENAI_API_KEY is empty")
	ErrEmptyText     = errors.New("tts: text is empty")
)

// OpenAITTS озвучивает ответ целиком (mp3) через OpenAI Audio API.
type OpenAITTS struct {
	apiKey string
	model  string
	voice  string
	client openai.Client
}

func NewOpenAITTS(key, model, voice, baseURL string) *OpenAITTS {
	key = strings.TrimSpace(key)
	if model == "" {
		model = string(openai.SpeechModelTTS1)
	}
	if voice == "" {
		voice = "alloy"
	}
	opts := []option.RequestOption{
		option.WithAPIKey(key),
		option.WithMaxRetries(2),
		option.WithHTTPClient(&http.Client{Timeout: 120 * time.Second}),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAITTS{apiKey: key, model: model, voice: voice, client: openai.NewClient(opts...)}
}

func (t *OpenAITTS) Configured() bool { return t.apiKey != "" }

// Synthesize возвращает mp3. Разметка Markdown вырезается, длинный текст обрезается по лимиту API.
func (t *OpenAITTS) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	if !t.Configured() {
		return nil, ErrNotConfigured
	}
	text = strings.Join(strings.Fields(StripMarkdown(text)), " ")
	if text == "" {
		return nil, ErrEmptyText
	}
	if rs := []rune(text); len(rs) > maxTTSChars {
		text = string(rs[:maxTTSChars])
	}
	if strings.TrimSpace(voice) == "" {
		voice = t.voice
	}

	resp, err := t.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Input:          text,
		Model:          openai.SpeechModel(t.model),
		Voice:          openai.AudioSpeechNewParamsVoice(voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("openai tts (status %d): %s", apiErr.StatusCode, apiErr.Message)
		}
		return nil, err
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read tts audio: %w", err)
	}
	return audio, nil
}
