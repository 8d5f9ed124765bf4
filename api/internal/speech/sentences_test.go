package speech

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "  \n ", nil},
		{"task numbers are not boundaries", "535. Compute 2+2. 536.", []string{"535. Compute 2+2.", "536."}},
		{"numbered steps", "1. крок один. 2. крок два.", []string{"1. крок один.", "2. крок два."}},
		{"mixed punctuation", "Привіт! Як справи? Добре", []string{"Привіт!", "Як справи?", "Добре"}},
		{"ellipsis", "Ну... добре.", []string{"Ну...", "добре."}},
		{"unicode ellipsis", "Зачекай… Готово.", []string{"Зачекай…", "Готово."}},
		{"decimal", "Це 2.5 см. Далі.", []string{"Це 2.5 см.", "Далі."}},
		{"closing quote", `Він сказав «так.» Потім пішов.`, []string{"Він сказав «так.»", "Потім пішов."}},
		{"whitespace collapsed", "Раз.\n\n  Два.", []string{"Раз.", "Два."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sentences(tt.in))
		})
	}
}

func TestSentencesStripMarkdown(t *testing.T) {
	in := "## Правило\nДодаємо числа.\n\n**Відповідь:** `4`."
	assert.Equal(t, []string{"Правило Додаємо числа.", "Відповідь: 4."}, Sentences(in))
}

func TestStripMarkdown(t *testing.T) {
	assert.Equal(t, "Заголовок\nпункт\nx і y", StripMarkdown("### Заголовок\n- пункт\n__x__ і *y*"))
}
