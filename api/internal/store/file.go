package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileLog хранит журнал в JSON-массиве. Запись атомарная: temp-файл + rename.
type FileLog struct {
	path string
	cap  int
	mu   sync.Mutex
}

func NewFileLog(path string, capacity int) *FileLog {
	return &FileLog{path: path, cap: capOrDefault(capacity)}
}

func (l *FileLog) Append(_ context.Context, e Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.read()
	if err != nil {
		return err
	}
	if e.Drawings == nil {
		e.Drawings = []string{}
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	entries = append(entries, e)
	if len(entries) > l.cap {
		entries = entries[len(entries)-l.cap:]
	}
	return l.write(entries)
}

func (l *FileLog) List(context.Context) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.read()
}

func (l *FileLog) Clear(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.write([]Entry{})
}

func (l *FileLog) Close() error { return nil }

func (l *FileLog) read() ([]Entry, error) {
	b, err := os.ReadFile(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ocr log: %w", err)
	}
	entries := []Entry{}
	if err := json.Unmarshal(b, &entries); err != nil {
		// битый журнал не должен ломать распознавание
		return []Entry{}, nil
	}
	return entries, nil
}

func (l *FileLog) write(entries []Entry) error {
	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("make log dir: %w", err)
	}
	b, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(l.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmpPath, l.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
