package main

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"task-helper/api/internal/book"
	"task-helper/api/internal/handle"
	"task-helper/api/internal/httpserver"
	"task-helper/api/internal/llm"
	"task-helper/api/internal/ocr/engines"
	"task-helper/api/internal/speech"
	"task-helper/api/internal/store"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the HTTP API and serve the web client from PUBLIC_DIR.

Stops gracefully on Ctrl+C or SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if servePort != "" {
			cfg.Port = servePort
		}

		ai, err := llm.NewFromConfig(cfg)
		if err != nil {
			return err
		}
		ocrLog, err := store.Open(ctx, cfg)
		if err != nil {
			return err
		}
		defer ocrLog.Close()

		h := handle.New(cfg, handle.Deps{
			Books:  book.NewLibrary(cfg.BooksDir),
			AI:     ai,
			OCR:    engines.FromConfig(cfg.OCR),
			OCRLog: ocrLog,
			TTS:    speech.NewOpenAITTS(cfg.AI.OpenAI.APIKey, cfg.Speech.TTSModel, cfg.Speech.TTSVoice, cfg.AI.OpenAI.BaseURL),
		})

		log.Info().
			Str("addr", cfg.Addr()).
			Str("provider", ai.Provider()).
			Bool("ai_configured", ai.Configured()).
			Str("books", cfg.BooksDir).
			Msg("server starting")
		if !ai.Configured() {
			log.Warn().Str("provider", ai.Provider()).Msg("API key is empty, AI answers will report not_configured")
		}
		return httpserver.Run(ctx, cfg.Addr(), httpserver.Routes(h, cfg.PublicDir), 10*time.Second)
	},
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "port to listen on (overrides PORT)")
}
