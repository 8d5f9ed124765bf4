package telegram

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"task-helper/api/internal/llm"
	"task-helper/api/internal/ocr"
	"task-helper/api/internal/prompt"
	"task-helper/api/internal/store"
	"task-helper/api/internal/util"
)

const photoAcceptedText = "Фото прийнято. Якщо завдання на кількох фото — надішліть їх поспіль, я склею сторінки перед розпізнаванням."

func (r *Router) acceptPhoto(ctx context.Context, msg tgbotapi.Message) {
	cid := msg.Chat.ID
	ph := msg.Photo[len(msg.Photo)-1]
	url, err := r.Bot.GetFileDirectURL(ph.FileID)
	if err != nil {
		r.SendError(cid, err)
		return
	}
	imgBytes, err := download(ctx, url)
	if err != nil {
		r.SendError(cid, err)
		return
	}

	key := "chat:" + fmt.Sprint(cid)
	if msg.MediaGroupID != "" {
		key = "grp:" + msg.MediaGroupID
	}

	bi, _ := batches.LoadOrStore(key, &photoBatch{ChatID: cid, Key: key, images: make([][]byte, 0, 4)})
	b := bi.(*photoBatch)

	b.mu.Lock()
	b.images = append(b.images, imgBytes)
	first := len(b.images) == 1
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(debounce, func() { r.processBatch(context.WithoutCancel(ctx), key) })
	b.mu.Unlock()

	if first {
		r.send(cid, photoAcceptedText)
	}
}

func (r *Router) processBatch(ctx context.Context, key string) {
	bi, ok := batches.LoadAndDelete(key)
	if !ok {
		return
	}
	b := bi.(*photoBatch)

	b.mu.Lock()
	images := append([][]byte(nil), b.images...)
	chatID := b.ChatID
	b.mu.Unlock()

	if len(images) == 0 {
		return
	}
	img := images[0]
	if len(images) > 1 {
		merged, err := combineAsOne(images)
		if err != nil {
			r.SendError(chatID, fmt.Errorf("склейка: %w", err))
			return
		}
		img = merged
	}
	r.recognize(ctx, chatID, img)
}

// recognize: OCR -> номер задания найден? промпт задания : вопрос в чат.
func (r *Router) recognize(ctx context.Context, chatID int64, img []byte) {
	eng := r.OCR.Get(chatID)
	res, err := ocr.Run(ctx, eng, img, r.OCROpts)
	if err != nil {
		log.Error().Err(err).Str("engine", eng.Name()).Msg("telegram: ocr")
		r.send(chatID, "Помилка OCR або некоректний формат файлу")
		return
	}
	log.Debug().Int64("chat_id", chatID).Str("engine", eng.Name()).Str("status", res.Status).
		Str("text", util.Truncate(res.Text, 200)).Msg("telegram: ocr done")
	if r.OCRLog != nil {
		e := store.Entry{Time: time.Now(), Engine: eng.Name(), Status: res.Status, Task: res.Task, Drawings: res.Drawings, Text: res.Text}
		if err := r.OCRLog.Append(ctx, e); err != nil {
			log.Warn().Err(err).Msg("telegram: ocr log")
		}
	}

	if res.Status == ocr.StatusPending || res.Text == "" {
		r.send(chatID, res.Text)
		return
	}
	r.send(chatID, res.Status+"\n\n"+res.Text)
	if res.Task != "" {
		r.answer(ctx, chatID, prompt.Task(res.Text, "", prompt.ModeSmart, ""), llm.TypeGeneral)
		return
	}
	r.answer(ctx, chatID, prompt.Chat(res.Text), llm.TypeChat)
}

// combineAsOne склеивает фото вертикально в один JPEG, уменьшая до maxPixels.
func combineAsOne(images [][]byte) ([]byte, error) {
	decoded := make([]image.Image, 0, len(images))
	maxW, sumH := 0, 0

	for _, b := range images {
		img, err := decodeImage(b)
		if err != nil {
			return nil, err
		}
		decoded = append(decoded, img)
		bounds := img.Bounds()
		maxW = max(maxW, bounds.Dx())
		sumH += bounds.Dy()
	}
	if maxW == 0 || sumH == 0 {
		return nil, fmt.Errorf("порожні зображення")
	}

	dst := image.NewRGBA(image.Rect(0, 0, maxW, sumH))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	y := 0
	for _, img := range decoded {
		w, h := img.Bounds().Dx(), img.Bounds().Dy()
		x := (maxW - w) / 2
		draw.Draw(dst, image.Rect(x, y, x+w, y+h), img, img.Bounds().Min, draw.Over)
		y += h
	}

	final := image.Image(dst)
	if total := maxW * sumH; total > maxPixels {
		scale := math.Sqrt(float64(maxPixels) / float64(total))
		newW := max(1, int(float64(maxW)*scale+0.5))
		newH := max(1, int(float64(sumH)*scale+0.5))
		final = scaleDownNN(dst, newW, newH)
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, final, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func decodeImage(b []byte) (image.Image, error) {
	if len(b) >= 2 && b[0] == 0xFF && b[1] == 0xD8 {
		return jpeg.Decode(bytes.NewReader(b))
	}
	if len(b) >= 8 && bytes.Equal(b[:8], []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}) {
		return png.Decode(bytes.NewReader(b))
	}
	img, _, err := image.Decode(bytes.NewReader(b))
	return img, err
}

func scaleDownNN(src image.Image, newW, newH int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	sb := src.Bounds()
	srcW, srcH := sb.Dx(), sb.Dy()
	for y := 0; y < newH; y++ {
		sy := sb.Min.Y + (y*srcH)/newH
		for x := 0; x < newW; x++ {
			sx := sb.Min.X + (x*srcW)/newW
			dst.Set(x, y, src.At(sx, sy))
		}
	}
	return dst
}

var httpc = &http.Client{Timeout: 60 * time.Second}

func download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(b))
	}
	return io.ReadAll(resp.Body)
}
