package telegram

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-helper/api/internal/book"
	"task-helper/api/internal/book/booktest"
	"task-helper/api/internal/llm"
	"task-helper/api/internal/ocr"
	"task-helper/api/internal/store"
)

type fakeBot struct {
	mu    sync.Mutex
	texts []string
	sent  []tgbotapi.Chattable
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, c)
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		b.texts = append(b.texts, m.Text)
	}
	return tgbotapi.Message{}, nil
}

func (b *fakeBot) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (b *fakeBot) GetFileDirectURL(string) (string, error) {
	return "", fmt.Errorf("not used")
}

type fakeAI struct {
	reply   string
	prompts []string
}

func (f *fakeAI) Name() string     { return "fake" }
func (f *fakeAI) Configured() bool { return true }
func (f *fakeAI) Fallback() string { return "fallback/model" }
func (f *fakeAI) Complete(_ context.Context, c llm.Call) (llm.Reply, error) {
	f.prompts = append(f.prompts, c.Prompt)
	return llm.Reply{Parts: []string{f.reply}, Model: "m"}, nil
}

type fakeTTS struct{ text string }

func (f *fakeTTS) Configured() bool { return true }
func (f *fakeTTS) Synthesize(_ context.Context, text, _ string) ([]byte, error) {
	f.text = text
	return []byte("ID3"), nil
}

type fakeOCR struct{ text string }

func (f fakeOCR) Name() string { return "fake" }
func (f fakeOCR) Recognize(context.Context, []byte, ocr.Options) (string, error) {
	return f.text, nil
}

type fixture struct {
	r   *Router
	bot *fakeBot
	ai  *fakeAI
	tts *fakeTTS
	log store.Log
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	books := filepath.Join(dir, "books")
	require.NoError(t, os.MkdirAll(books, 0o755))
	booktest.Write(t, books, "algebra.pdf", "page one", "534. foo 535. Compute 2+2. 536. bar")

	f := &fixture{bot: &fakeBot{}, ai: &fakeAI{reply: "```markdown\n**4**\n```"}, tts: &fakeTTS{}}
	f.log = store.NewFileLog(filepath.Join(dir, "ocr.json"), 10)
	f.r = &Router{
		Bot:     f.bot,
		Books:   book.NewLibrary(books),
		AI:      llm.NewGateway(f.ai, llm.Options{MaxRetries: 0}),
		OCR:     NewEngineManager(ocr.Stub{}, fakeOCR{text: "Задача 312. Знайти x, рис. 4"}),
		OCRLog:  f.log,
		TTS:     f.tts,
		Timeout: 5 * time.Second,
	}
	return f
}

func command(chatID int64, text string) tgbotapi.Update {
	cmd := strings.Fields(text)[0]
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Text:     text,
		Chat:     &tgbotapi.Chat{ID: chatID},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
	}}
}

func TestStartAndUnknownCommand(t *testing.T) {
	f := newFixture(t)
	f.r.HandleUpdate(context.Background(), command(1, "/start"))
	f.r.HandleUpdate(context.Background(), command(1, "/nope"))

	require.Len(t, f.bot.texts, 2)
	assert.Equal(t, helpText, f.bot.texts[0])
	assert.Contains(t, f.bot.texts[1], "Невідома команда")
}

func TestTextGoesToChat(t *testing.T) {
	f := newFixture(t)
	upd := tgbotapi.Update{Message: &tgbotapi.Message{Text: "Що таке дріб?", Chat: &tgbotapi.Chat{ID: 7}}}
	f.r.HandleUpdate(context.Background(), upd)

	require.Len(t, f.ai.prompts, 1)
	assert.Contains(t, f.ai.prompts[0], "Що таке дріб?")
	require.Len(t, f.bot.texts, 1)
	assert.Equal(t, "**4**", f.bot.texts[0])

	m := f.bot.sent[0].(tgbotapi.MessageConfig)
	assert.NotNil(t, m.ReplyMarkup, "speak keyboard on the last part")
}

func TestTaskCommand(t *testing.T) {
	f := newFixture(t)
	f.r.HandleUpdate(context.Background(), command(2, "/task algebra.pdf 535 2"))

	require.Len(t, f.bot.texts, 2)
	assert.Equal(t, "📖 Сторінка 2\n\n535. Compute 2+2.", f.bot.texts[0])
	require.Len(t, f.ai.prompts, 1)
	assert.Contains(t, f.ai.prompts[0], "535. Compute 2+2.")

	f.r.HandleUpdate(context.Background(), command(2, "/task algebra.pdf 535"))
	assert.Equal(t, "📖 Сторінка 2\n\n535. Compute 2+2.", f.bot.texts[2])
}

func TestTaskCommandErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.r.HandleUpdate(ctx, command(3, "/task"))
	f.r.HandleUpdate(ctx, command(3, "/task missing.pdf 1"))
	f.r.HandleUpdate(ctx, command(3, "/task algebra.pdf 999"))
	f.r.HandleUpdate(ctx, command(3, "/task algebra.pdf 535 9"))
	f.r.HandleUpdate(ctx, command(3, "/task algebra.pdf 535 1"))

	require.Len(t, f.bot.texts, 5)
	assert.Contains(t, f.bot.texts[0], "Використання")
	assert.Contains(t, f.bot.texts[1], "не знайдено")
	assert.Contains(t, f.bot.texts[2], "не знайдено в книзі")
	assert.Contains(t, f.bot.texts[3], "лише 2 сторінок")
	assert.Contains(t, f.bot.texts[4], "на сторінці 1")
	assert.Empty(t, f.ai.prompts)
}

func TestBooksCommand(t *testing.T) {
	f := newFixture(t)
	f.r.HandleUpdate(context.Background(), command(4, "/books"))
	require.Len(t, f.bot.texts, 1)
	assert.Contains(t, f.bot.texts[0], "algebra.pdf")
}

func TestEngineCommand(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.r.HandleUpdate(ctx, command(5, "/engine"))
	f.r.HandleUpdate(ctx, command(5, "/engine fake"))
	f.r.HandleUpdate(ctx, command(5, "/engine bogus"))

	assert.Contains(t, f.bot.texts[0], "stub")
	assert.Contains(t, f.bot.texts[0], "fake | stub")
	assert.Equal(t, "✅ OCR-рушій: fake", f.bot.texts[1])
	assert.Contains(t, f.bot.texts[2], "Невідомий рушій")
	assert.Equal(t, "fake", f.r.OCR.Get(5).Name())
	assert.Equal(t, "stub", f.r.OCR.Get(6).Name())
}

func TestRecognizeStub(t *testing.T) {
	f := newFixture(t)
	f.r.recognize(context.Background(), 8, []byte("img"))

	assert.Equal(t, []string{ocr.StubText}, f.bot.texts)
	assert.Empty(t, f.ai.prompts)
}

func TestRecognizeTaskAsksAI(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.r.OCR.Set(9, "fake"))
	f.r.recognize(context.Background(), 9, []byte("img"))

	require.Len(t, f.bot.texts, 2)
	assert.True(t, strings.HasPrefix(f.bot.texts[0], ocr.StatusTask))
	require.Len(t, f.ai.prompts, 1)
	assert.Contains(t, f.ai.prompts[0], "Задача 312.")

	entries, err := f.log.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "312", entries[0].Task)
	assert.Equal(t, []string{"4"}, entries[0].Drawings)
}

func TestSpeakCallback(t *testing.T) {
	f := newFixture(t)
	lastAnswer.Store(int64(10), "Відповідь 4")
	f.r.HandleUpdate(context.Background(), tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		Data:    cbSpeak,
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 10}},
	}})

	assert.Equal(t, "Відповідь 4", f.tts.text)
	require.Len(t, f.bot.sent, 1)
	_, ok := f.bot.sent[0].(tgbotapi.AudioConfig)
	assert.True(t, ok)
}

func TestSplitMessage(t *testing.T) {
	assert.Nil(t, splitMessage("  ", 10))
	assert.Equal(t, []string{"short"}, splitMessage("short", 10))
	assert.Equal(t, []string{"aaaa", "bbbb"}, splitMessage("aaaa\n\nbbbb", 6))
	assert.Equal(t, []string{"ґґґґ", "ґґ"}, splitMessage("ґґґґґґ", 4))
}

func TestCombineAsOne(t *testing.T) {
	a := encodePNG(t, 40, 10, color.Black)
	b := encodeJPEG(t, 20, 30, color.White)

	out, err := combineAsOne([][]byte{a, b})
	require.NoError(t, err)
	img, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 40, img.Bounds().Dx())
	assert.Equal(t, 40, img.Bounds().Dy())

	_, err = combineAsOne([][]byte{a, []byte("not an image")})
	assert.Error(t, err)
}

func TestScaleDownNN(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 100, 50))
	dst := scaleDownNN(src, 10, 5)
	assert.Equal(t, image.Rect(0, 0, 10, 5), dst.Bounds())
}

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, w, h int, c color.Color) []byte {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solid(w, h, c)))
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, w, h int, c color.Color) []byte {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, solid(w, h, c), nil))
	return buf.Bytes()
}
