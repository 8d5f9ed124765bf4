package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port      string `mapstructure:"port" yaml:"port"`
	BooksDir  string `mapstructure:"books_dir" yaml:"books_dir"`
	PublicDir string `mapstructure:"public_dir" yaml:"public_dir"`
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	AI       AIConfig       `mapstructure:"ai" yaml:"ai"`
	OCR      OCRConfig      `mapstructure:"ocr" yaml:"ocr"`
	Speech   SpeechConfig   `mapstructure:"speech" yaml:"speech"`
	DB       DBConfig       `mapstructure:"db" yaml:"db"`
	Telegram TelegramConfig `mapstructure:"telegram" yaml:"telegram"`
}

type AIConfig struct {
	// Provider: openrouter | gemini | openai
	Provider   string        `mapstructure:"provider" yaml:"provider"`
	MaxRetries int           `mapstructure:"max_retries" yaml:"max_retries"`
	RetryBase  time.Duration `mapstructure:"retry_base" yaml:"retry_base"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`

	OpenRouter OpenRouterConfig `mapstructure:"openrouter" yaml:"openrouter"`
	Gemini     GeminiConfig     `mapstructure:"gemini" yaml:"gemini"`
	OpenAI     OpenAIConfig     `mapstructure:"openai" yaml:"openai"`
}

type OpenRouterConfig struct {
	APIKey    string `mapstructure:"api_key" yaml:"api_key"`
	BaseURL   string `mapstructure:"base_url" yaml:"base_url"`
	Referer   string `mapstructure:"referer" yaml:"referer"`
	Model     string `mapstructure:"model" yaml:"model"`
	ModelMath string `mapstructure:"model_math" yaml:"model_math"`
	ModelCode string `mapstructure:"model_code" yaml:"model_code"`
	ModelDeep string `mapstructure:"model_deep" yaml:"model_deep"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key" yaml:"api_key"`
	Model  string `mapstructure:"model" yaml:"model"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key" yaml:"api_key"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	Model   string `mapstructure:"model" yaml:"model"`
}

type OCRConfig struct {
	// Engine: stub | tesseract | yandex
	Engine     string `mapstructure:"engine" yaml:"engine"`
	Langs      string `mapstructure:"langs" yaml:"langs"`
	YCOAuth    string `mapstructure:"yc_oauth_token" yaml:"yc_oauth_token"`
	YCFolderID string `mapstructure:"yc_folder_id" yaml:"yc_folder_id"`
	LogFile    string `mapstructure:"log_file" yaml:"log_file"`
	LogCap     int    `mapstructure:"log_cap" yaml:"log_cap"`
}

type SpeechConfig struct {
	TTSModel string `mapstructure:"tts_model" yaml:"tts_model"`
	TTSVoice string `mapstructure:"tts_voice" yaml:"tts_voice"`
}

type DBConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

type TelegramConfig struct {
	Token      string `mapstructure:"token" yaml:"token"`
	WebhookURL string `mapstructure:"webhook_url" yaml:"webhook_url"`
}

func Default() *Config {
	return &Config{
		Port:      "3000",
		BooksDir:  "books",
		PublicDir: "public",
		LogLevel:  "info",
		LogFormat: "console",
		AI: AIConfig{
			Provider:   "openrouter",
			MaxRetries: 2,
			RetryBase:  500 * time.Millisecond,
			Timeout:    90 * time.Second,
			Gemini:     GeminiConfig{Model: "gemini-2.0-flash"},
			OpenAI:     OpenAIConfig{Model: "gpt-4o-mini"},
		},
		OCR: OCRConfig{
			Engine:  "stub",
			Langs:   "ukr+eng",
			LogFile: "logs/ocr.json",
			LogCap:  50,
		},
		Speech: SpeechConfig{
			TTSModel: "tts-1",
			TTSVoice: "alloy",
		},
	}
}

// переменные окружения исторические, без общего префикса
var envBindings = map[string]string{
	"port":                     "PORT",
	"books_dir":                "BOOKS_DIR",
	"public_dir":               "PUBLIC_DIR",
	"log_level":                "LOG_LEVEL",
	"log_format":               "LOG_FORMAT",
	"ai.provider":              "AI_PROVIDER",
	"ai.max_retries":           "AI_MAX_RETRIES",
	"ai.retry_base":            "AI_RETRY_BASE",
	"ai.timeout":               "AI_TIMEOUT",
	"ai.openrouter.api_key":    "OPENROUTER_API_KEY",
	"ai.openrouter.base_url":   "OPENROUTER_BASE_URL",
	"ai.openrouter.referer":    "OPENROUTER_REFERER",
	"ai.openrouter.model":      "OPENROUTER_MODEL",
	"ai.openrouter.model_math": "OPENROUTER_MODEL_MATH",
	"ai.openrouter.model_code": "OPENROUTER_MODEL_CODE",
	"ai.openrouter.model_deep": "OPENROUTER_MODEL_DEEP",
	"ai.gemini.api_key":        "GEMINI_API_KEY",
	"ai.gemini.model":          "GEMINI_MODEL",
	"ai.openai.api_key":        "OPENAI_API_KEY",
	"ai.openai.base_url":       "OPENAI_BASE_URL",
	"ai.openai.model":          "OPENAI_MODEL",
	"ocr.engine":               "OCR_ENGINE",
	"ocr.langs":                "OCR_LANGS",
	"ocr.yc_oauth_token":       "YC_OAUTH_TOKEN",
	"ocr.yc_folder_id":         "YC_FOLDER_ID",
	"ocr.log_file":             "OCR_LOG_FILE",
	"ocr.log_cap":              "OCR_LOG_CAP",
	"speech.tts_model":         "OPENAI_TTS_MODEL",
	"speech.tts_voice":         "OPENAI_TTS_VOICE",
	"db.url":                   "DATABASE_URL",
	"telegram.token":           "TELEGRAM_BOT_TOKEN",
	"telegram.webhook_url":     "WEBHOOK_URL",
}

// Load читает конфигурацию: значения по умолчанию -> yaml-файл (если есть) -> окружение.
// Пустой path означает tutor.yaml в текущем каталоге, его отсутствие не ошибка.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("tutor")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.normalize()
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("port", d.Port)
	v.SetDefault("books_dir", d.BooksDir)
	v.SetDefault("public_dir", d.PublicDir)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("ai.provider", d.AI.Provider)
	v.SetDefault("ai.max_retries", d.AI.MaxRetries)
	v.SetDefault("ai.retry_base", d.AI.RetryBase)
	v.SetDefault("ai.timeout", d.AI.Timeout)
	v.SetDefault("ai.gemini.model", d.AI.Gemini.Model)
	v.SetDefault("ai.openai.model", d.AI.OpenAI.Model)
	v.SetDefault("ocr.engine", d.OCR.Engine)
	v.SetDefault("ocr.langs", d.OCR.Langs)
	v.SetDefault("ocr.log_file", d.OCR.LogFile)
	v.SetDefault("ocr.log_cap", d.OCR.LogCap)
	v.SetDefault("speech.tts_model", d.Speech.TTSModel)
	v.SetDefault("speech.tts_voice", d.Speech.TTSVoice)
}

func (c *Config) normalize() {
	c.Port = strings.TrimSpace(c.Port)
	if c.Port == "" {
		c.Port = Default().Port
	}
	c.AI.Provider = strings.ToLower(strings.TrimSpace(c.AI.Provider))
	c.OCR.Engine = strings.ToLower(strings.TrimSpace(c.OCR.Engine))
	if c.AI.MaxRetries < 0 {
		c.AI.MaxRetries = 0
	}
	if c.OCR.LogCap <= 0 {
		c.OCR.LogCap = Default().OCR.LogCap
	}
}

// Addr — адрес для http.Server.
func (c *Config) Addr() string {
	return "0.0.0.0:" + c.Port
}

// WriteDefault пишет конфигурацию по умолчанию; существующий файл не перезаписывается.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	header := []byte("# task-helper configuration\n" +
		"# secrets are better kept in env: OPENROUTER_API_KEY, GEMINI_API_KEY, OPENAI_API_KEY, DATABASE_URL\n")
	return os.WriteFile(path, append(header, data...), 0o644)
}
