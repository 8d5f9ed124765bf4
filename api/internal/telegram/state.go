package telegram

import (
	"maps"
	"slices"
	"sync"
	"time"

	"task-helper/api/internal/ocr"
)

const (
	debounce  = 1200 * time.Millisecond
	maxPixels = 18_000_000
)

type photoBatch struct {
	ChatID int64
	Key    string // "grp:<mediaGroupID>" | "chat:<chatID>"

	mu     sync.Mutex
	images [][]byte
	timer  *time.Timer
}

var (
	batches    sync.Map // key -> *photoBatch
	lastAnswer sync.Map // chatID -> string, для кнопки "Озвучити"
)

// EngineManager хранит выбранный в чате OCR-движок.
type EngineManager struct {
	def       ocr.Engine
	available map[string]ocr.Engine
	m         sync.Map // chatID -> ocr.Engine
}

func NewEngineManager(def ocr.Engine, extra ...ocr.Engine) *EngineManager {
	m := &EngineManager{def: def, available: map[string]ocr.Engine{def.Name(): def}}
	for _, e := range extra {
		m.available[e.Name()] = e
	}
	return m
}

func (m *EngineManager) Get(chatID int64) ocr.Engine {
	if v, ok := m.m.Load(chatID); ok {
		return v.(ocr.Engine)
	}
	return m.def
}

// Set переключает движок чата; false, если такого движка нет.
func (m *EngineManager) Set(chatID int64, name string) bool {
	e, ok := m.available[name]
	if !ok {
		return false
	}
	m.m.Store(chatID, e)
	return true
}

func (m *EngineManager) Names() []string {
	return slices.Sorted(maps.Keys(m.available))
}
