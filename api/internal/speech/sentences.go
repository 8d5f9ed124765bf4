package speech

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	reHeading  = regexp.MustCompile(`(?m)^#{1,6}\s*`)
	reEmphasis = regexp.MustCompile("\\*\\*|__|[*`]")
	reListDash = regexp.MustCompile(`(?m)^\s*[-•]\s+`)
)

// StripMarkdown убирает разметку, которую не нужно озвучивать.
func StripMarkdown(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = reHeading.ReplaceAllString(text, "")
	text = reListDash.ReplaceAllString(text, "")
	return reEmphasis.ReplaceAllString(text, "")
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == '…'
}

func isClosing(r rune) bool {
	return r == ')' || r == '"' || r == '\'' || r == '»' || r == '”'
}

// Sentences делит ответ на предложения для караоке-подсветки.
// Граница: серия из . ! ? … (и закрывающих кавычек/скобок), за которой пробел или конец текста.
// Номер в начале фрагмента ("535. ", "1. ") границей не считается.
func Sentences(text string) []string {
	text = strings.Join(strings.Fields(StripMarkdown(text)), " ")
	if text == "" {
		return nil
	}
	rs := []rune(text)

	var out []string
	start := 0
	for i := 0; i < len(rs); i++ {
		if !isTerminal(rs[i]) {
			continue
		}
		j := i
		for j+1 < len(rs) && (isTerminal(rs[j+1]) || isClosing(rs[j+1])) {
			j++
		}
		if j+1 < len(rs) && !unicode.IsSpace(rs[j+1]) {
			i = j
			continue
		}
		if rs[i] == '.' && j == i && isLeadingNumber(rs[start:i]) {
			continue
		}
		if s := strings.TrimSpace(string(rs[start : j+1])); s != "" {
			out = append(out, s)
		}
		start = j + 1
		i = j
	}
	if s := strings.TrimSpace(string(rs[start:])); s != "" {
		out = append(out, s)
	}
	return out
}

func isLeadingNumber(rs []rune) bool {
	s := strings.TrimSpace(string(rs))
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
