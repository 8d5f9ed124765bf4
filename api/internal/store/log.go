package store

import (
	"context"
	"time"

	"task-helper/api/internal/config"
)

const DefaultCap = 50

// Entry — одна запись журнала распознаваний.
type Entry struct {
	Time     time.Time `json:"timestamp"`
	Engine   string    `json:"engine"`
	Status   string    `json:"status"`
	Task     string    `json:"task,omitempty"`
	Drawings []string  `json:"drawings"`
	Text     string    `json:"text"`
}

// Log — журнал с ограниченным числом последних записей.
type Log interface {
	Append(ctx context.Context, e Entry) error
	List(ctx context.Context) ([]Entry, error)
	Clear(ctx context.Context) error
	Close() error
}

// Open выбирает Postgres при заданном DATABASE_URL, иначе JSON-файл.
func Open(ctx context.Context, cfg *config.Config) (Log, error) {
	if cfg.DB.URL != "" {
		return OpenPG(ctx, cfg.DB.URL, cfg.OCR.LogCap)
	}
	return NewFileLog(cfg.OCR.LogFile, cfg.OCR.LogCap), nil
}

func capOrDefault(n int) int {
	if n <= 0 {
		return DefaultCap
	}
	return n
}
