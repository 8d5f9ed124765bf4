package util

import "strings"

// StripCodeFences снимает обёртку ```markdown ... ```, которую модели иногда добавляют ко всему ответу.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	body := strings.TrimSuffix(strings.TrimPrefix(s, "```"), "```")
	nl := strings.IndexByte(body, '\n')
	if nl < 0 {
		return s
	}
	switch lang := strings.ToLower(strings.TrimSpace(body[:nl])); lang {
	case "", "markdown", "md", "text":
		return strings.TrimSpace(body[nl+1:])
	default:
		// код оставляем как есть
		return s
	}
}

// Truncate обрезает строку до n рун с многоточием.
func Truncate(s string, n int) string {
	rs := []rune(s)
	if n <= 0 || len(rs) <= n {
		return s
	}
	return string(rs[:n]) + "…"
}
