package task

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	ErrNotFound       = errors.New("task not found")
	ErrPageOutOfRange = errors.New("page out of range")
	ErrBadTaskNumber  = errors.New("task number must be positive")
)

// Pages — постраничный доступ к тексту документа (нумерация с 1).
type Pages interface {
	NumPages() int
	PageText(i int) (string, error)
}

// Hit — найденный фрагмент и страница, на которой он лежит.
type Hit struct {
	PageIndex int    `json:"pageIndex"`
	Fragment  string `json:"fragment"`
}

// маркер номера: перед числом начало текста или не буква/цифра/_,
// после числа — "." или ")". Поэтому "350." не совпадает с 35, а "535а." вообще не маркер.
func markerRe(n int) *regexp.Regexp {
	return regexp.MustCompile(`(?:^|[^\p{L}\p{N}_])(` + strconv.Itoa(n) + `)[.)]`)
}

// Extract возвращает текст задания n со страницы: от маркера n до маркера n+1
// (или до конца страницы), с префиксом "<n>. ".
func Extract(pageText string, n int) (string, bool) {
	if n <= 0 || pageText == "" {
		return "", false
	}
	start := markerRe(n).FindStringSubmatchIndex(pageText)
	if start == nil {
		return "", false
	}
	// start[1] — конец всего совпадения (после разделителя)
	rest := pageText[start[1]:]

	body := rest
	if next := markerRe(n + 1).FindStringSubmatchIndex(rest); next != nil {
		body = rest[:next[2]]
	}
	body = strings.TrimSpace(body)

	num := strconv.Itoa(n)
	if body == "" {
		return num + ".", true
	}
	return num + ". " + body, true
}

// FindTask просматривает страницы по возрастанию и возвращает первую, где нашлось задание.
func FindTask(ctx context.Context, pages Pages, n int) (Hit, error) {
	if n <= 0 {
		return Hit{}, ErrBadTaskNumber
	}
	total := pages.NumPages()
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return Hit{}, err
		}
		text, err := pages.PageText(i)
		if err != nil {
			return Hit{}, fmt.Errorf("page %d: %w", i, err)
		}
		if frag, ok := Extract(text, n); ok {
			return Hit{PageIndex: i, Fragment: frag}, nil
		}
	}
	return Hit{}, ErrNotFound
}

// FindOnPage — строгий режим: ищем только на указанной странице.
func FindOnPage(pages Pages, page, n int) (Hit, error) {
	if n <= 0 {
		return Hit{}, ErrBadTaskNumber
	}
	if page < 1 || page > pages.NumPages() {
		return Hit{}, fmt.Errorf("%w: %d (1..%d)", ErrPageOutOfRange, page, pages.NumPages())
	}
	text, err := pages.PageText(page)
	if err != nil {
		return Hit{}, fmt.Errorf("page %d: %w", page, err)
	}
	frag, ok := Extract(text, n)
	if !ok {
		return Hit{}, ErrNotFound
	}
	return Hit{PageIndex: page, Fragment: frag}, nil
}
