package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"regexp"
	"strconv"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"task-helper/api/internal/book"
	"task-helper/api/internal/config"
	"task-helper/api/internal/httpserver"
	"task-helper/api/internal/llm"
	"task-helper/api/internal/logging"
	"task-helper/api/internal/ocr"
	"task-helper/api/internal/ocr/engines"
	"task-helper/api/internal/speech"
	"task-helper/api/internal/store"
	"task-helper/api/internal/telegram"
)

func main() {
	cfgPath := flag.String("config", "", "path to tutor.yaml")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		log.Fatal().Msg("TELEGRAM_BOT_TOKEN is empty")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ai, err := llm.NewFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("ai gateway")
	}

	ocrLog, err := store.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("ocr log")
	}
	defer ocrLog.Close()
	if cfg.DB.URL != "" {
		log.Info().Str("db", safeDSNSummary(cfg.DB.URL)).Msg("db connected")
	}

	// --- Telegram bot ---
	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		log.Fatal().Err(err).Msg("telegram")
	}
	bot.Debug = false

	def := engines.FromConfig(cfg.OCR)
	r := &telegram.Router{
		Bot:     bot,
		Books:   book.NewLibrary(cfg.BooksDir),
		AI:      ai,
		OCR:     telegram.NewEngineManager(def, engines.All(cfg.OCR)...),
		OCROpts: ocr.Options{Langs: ocr.ParseLangs(cfg.OCR.Langs)},
		OCRLog:  ocrLog,
		TTS:     speech.NewOpenAITTS(cfg.AI.OpenAI.APIKey, cfg.Speech.TTSModel, cfg.Speech.TTSVoice, cfg.AI.OpenAI.BaseURL),
		Timeout: cfg.AI.Timeout,
	}
	log.Info().
		Str("bot", bot.Self.UserName).
		Str("provider", ai.Provider()).
		Bool("ai_configured", ai.Configured()).
		Str("ocr", def.Name()).
		Msg("bot started")

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", healthz(ocrLog))

	if webhookURL := strings.TrimSpace(cfg.Telegram.WebhookURL); webhookURL != "" {
		err = runWebhook(ctx, cfg.Addr(), mux, bot, r, webhookURL)
	} else {
		go func() {
			if err := httpserver.Run(ctx, cfg.Addr(), httpserver.RequestLog(mux), 5*time.Second); err != nil {
				log.Error().Err(err).Msg("health server")
			}
		}()
		runPolling(ctx, bot, func(upd tgbotapi.Update) { r.HandleUpdate(ctx, upd) })
	}
	if err != nil {
		log.Fatal().Err(err).Msg("bot stopped")
	}
	log.Info().Msg("bot stopped")
}

type pinger interface {
	Ping(ctx context.Context) error
}

func healthz(l store.Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if p, ok := l.(pinger); ok {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("db: not ok\n" + err.Error()))
				return
			}
		}
		_, _ = w.Write([]byte("ok"))
	}
}

// ---------------- Modes -----------------

func runWebhook(ctx context.Context, addr string, mux *http.ServeMux, bot *tgbotapi.BotAPI, r *telegram.Router, baseURL string) error {
	// секретный путь вебхука
	path := "/webhook/" + shortHash(bot.Token)
	public := strings.TrimRight(baseURL, "/") + path

	wh, err := tgbotapi.NewWebhook(public)
	if err != nil {
		return err
	}
	wh.DropPendingUpdates = true
	if _, err := bot.Request(wh); err != nil {
		return err
	}

	mux.HandleFunc("POST "+path, func(w http.ResponseWriter, req *http.Request) {
		upd, err := bot.HandleUpdate(req)
		if err != nil {
			log.Ctx(req.Context()).Warn().Err(err).Msg("webhook: bad update")
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		// отвечаем Telegram сразу, обработка может идти минуты (AI, OCR)
		go r.HandleUpdate(ctx, *upd)
	})

	log.Info().Str("addr", addr).Str("path", path).Msg("webhook listening")
	return httpserver.Run(ctx, addr, httpserver.RequestLog(mux), 5*time.Second)
}

// ---------------- Polling loop -----------------

var reRetryAfter = regexp.MustCompile(`(?i)retry after\s+(\d+)`)

func retryDelayFromError(err error) time.Duration {
	if err == nil {
		return 0
	}
	s := strings.ToLower(err.Error())
	if strings.Contains(s, "too many requests") { // HTTP 429 от Telegram
		if m := reRetryAfter.FindStringSubmatch(s); len(m) == 2 {
			if n, _ := strconv.Atoi(m[1]); n > 0 {
				return time.Duration(n) * time.Second
			}
		}
		return 3 * time.Second
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return 2 * time.Second
	}
	return 1 * time.Second
}

type updatesGetter interface {
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
}

func runPolling(ctx context.Context, bot updatesGetter, handle func(tgbotapi.Update)) {
	offset := 0
	baseDelay := 1 * time.Second
	maxDelay := 15 * time.Second

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("polling: context cancelled")
			return
		default:
		}

		u := tgbotapi.NewUpdate(offset)
		u.Timeout = 30 // long polling timeout (sec)

		updates, err := bot.GetUpdates(u)
		if err != nil {
			d := min(max(retryDelayFromError(err), baseDelay), maxDelay)
			log.Warn().Err(err).Dur("retry_in", d).Msg("polling error")
			sleep(ctx, d)
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			handle(upd)
		}

		if len(updates) == 0 {
			sleep(ctx, 200*time.Millisecond)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// ---------------- Helpers -----------------

func shortHash(s string) string {
	// лёгкий хэш для пути вебхука (не крипто, но стабильно для токена)
	h := uint64(1469598103934665603)
	const prime = 1099511628211
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime
	}
	return fmt.Sprintf("%016x", h)
}

func safeDSNSummary(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "dsn: parse error"
	}
	user := u.User.Username()
	host := u.Host
	port := ""
	if h, p, err := net.SplitHostPort(u.Host); err == nil {
		host, port = h, p
	}
	db := strings.TrimPrefix(u.Path, "/")
	if port == "" {
		return fmt.Sprintf("host=%s db=%s user=%s", host, db, user)
	}
	return fmt.Sprintf("host=%s port=%s db=%s user=%s", host, port, db, user)
}
