package book

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	reHyphenJoin = regexp.MustCompile(`(\p{L})[-\x{2010}\x{2011}]\s+(\p{L})`)
	reSpaces     = regexp.MustCompile(`\s+`)
)

// NormalizeText приводит извлечённый текст страницы к виду, удобному для поиска номеров:
// NFKC, склейка переносов "мате- матика", один пробел между словами.
func NormalizeText(s string) string {
	s = norm.NFKC.String(s)
	s = strings.ReplaceAll(s, "\u00ad", "")
	s = reSpaces.ReplaceAllString(s, " ")
	// совпадения не перекрываются: "а- б- в" склеивается за несколько проходов
	for {
		joined := reHyphenJoin.ReplaceAllString(s, "$1$2")
		if joined == s {
			break
		}
		s = joined
	}
	return strings.TrimSpace(s)
}
