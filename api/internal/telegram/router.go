package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"task-helper/api/internal/book"
	"task-helper/api/internal/llm"
	"task-helper/api/internal/ocr"
	"task-helper/api/internal/prompt"
	"task-helper/api/internal/store"
	"task-helper/api/internal/util"
)

const maxMessageRunes = 3900

// BotAPI — то, что роутер использует из *tgbotapi.BotAPI.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Synthesizer — озвучка ответов (может быть nil).
type Synthesizer interface {
	Configured() bool
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

type Router struct {
	Bot     BotAPI
	Books   *book.Library
	AI      *llm.Gateway
	OCR     *EngineManager
	OCROpts ocr.Options
	OCRLog  store.Log
	TTS     Synthesizer
	Timeout time.Duration
}

func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.CallbackQuery != nil {
		r.handleCallback(ctx, *upd.CallbackQuery)
		return
	}
	if upd.Message == nil {
		return
	}
	msg := upd.Message

	switch {
	case msg.IsCommand():
		r.HandleCommand(ctx, msg)
	case len(msg.Photo) > 0:
		r.acceptPhoto(ctx, *msg)
	case strings.TrimSpace(msg.Text) != "":
		r.answer(ctx, msg.Chat.ID, prompt.Chat(msg.Text), llm.TypeChat)
	}
}

// aiContext: ответ модели не обрывается вместе с апдейтом, только по таймауту.
func (r *Router) aiContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if r.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.Timeout)
}

// answer спрашивает модель и отправляет ответ частями с кнопкой озвучки.
func (r *Router) answer(ctx context.Context, chatID int64, userPrompt string, typ llm.TaskType) {
	r.typing(chatID)
	actx, cancel := r.aiContext(ctx)
	defer cancel()

	ans := r.AI.Ask(actx, llm.Request{System: prompt.System, Prompt: userPrompt, Type: typ})
	if !ans.OK() {
		log.Warn().Int64("chat_id", chatID).Str("kind", string(ans.Failure.Kind)).Msg("telegram: ai failed")
		r.send(chatID, "⚠️ "+ans.Message())
		return
	}
	text := util.StripCodeFences(ans.Text)
	lastAnswer.Store(chatID, text)

	parts := splitMessage(text, maxMessageRunes)
	for i, p := range parts {
		m := tgbotapi.NewMessage(chatID, p)
		if i == len(parts)-1 && r.TTS != nil && r.TTS.Configured() {
			m.ReplyMarkup = makeSpeakKeyboard()
		}
		if _, err := r.Bot.Send(m); err != nil {
			log.Error().Err(err).Int64("chat_id", chatID).Msg("telegram: send")
		}
	}
}

func (r *Router) handleCallback(ctx context.Context, cb tgbotapi.CallbackQuery) {
	_, _ = r.Bot.Request(tgbotapi.NewCallback(cb.ID, "")) // ack
	if cb.Message == nil || cb.Data != cbSpeak {
		return
	}
	cid := cb.Message.Chat.ID
	v, ok := lastAnswer.Load(cid)
	if !ok || r.TTS == nil || !r.TTS.Configured() {
		r.send(cid, "Немає відповіді для озвучення.")
		return
	}

	actx, cancel := r.aiContext(ctx)
	defer cancel()
	audio, err := r.TTS.Synthesize(actx, v.(string), "")
	if err != nil {
		r.SendError(cid, err)
		return
	}
	a := tgbotapi.NewAudio(cid, tgbotapi.FileBytes{Name: "answer.mp3", Bytes: audio})
	if _, err := r.Bot.Send(a); err != nil {
		log.Error().Err(err).Int64("chat_id", cid).Msg("telegram: send audio")
	}
}

func (r *Router) typing(chatID int64) {
	_, _ = r.Bot.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))
}

func (r *Router) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := r.Bot.Send(msg); err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("telegram: send")
	}
}

func (r *Router) SendError(chatID int64, err error) {
	r.send(chatID, fmt.Sprintf("Помилка: %v", err))
}

// splitMessage режет длинный текст по абзацам, не превышая n рун в части.
func splitMessage(text string, n int) []string {
	var parts []string
	var cur []rune
	flush := func() {
		if s := strings.TrimSpace(string(cur)); s != "" {
			parts = append(parts, s)
		}
		cur = cur[:0]
	}
	for _, para := range strings.SplitAfter(text, "\n\n") {
		pr := []rune(para)
		if len(cur)+len(pr) > n {
			flush()
		}
		for len(pr) > n {
			cur = append(cur, pr[:n]...)
			flush()
			pr = pr[n:]
		}
		cur = append(cur, pr...)
	}
	flush()
	return parts
}
