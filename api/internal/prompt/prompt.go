package prompt

import (
	"bytes"
	"strings"
	"text/template"
)

type Mode string

const (
	ModeStrict Mode = "strict"
	ModeSmart  Mode = "smart"
)

// System — системная роль для всех запросов к модели.
const System = "Ти — доброзичливий репетитор для учня 4–6 класу. Пояснюй дуже просто, українською мовою. " +
	"Не вигадуй умову задачі й не змінюй числа з підручника."

const (
	strictHint = "Режим: строгий (номер сторінки та завдання відомі). Працюй тільки з наведеним текстом, " +
		"не вигадуй нових даних і не змінюй числа."
	smartHint = "Режим: розумний пошук по підручнику. Можна додати пояснення, приклади й лайфхаки, " +
		"але числа і умову не змінюй."
)

var taskTmpl = template.Must(template.New("task").Parse(
	`Ти — доброзичливий репетитор для учня 4–6 класу. Пояснюй дуже просто, українською мовою.

1) Спочатку КОРОТКО сформулюй правило, на якому базується це завдання (1–3 речення), з підзаголовком 'Правило'.
2) Потім оформи 'Розв'язання' крок за кроком.
3) Наприкінці дай чітку 'Відповідь'.

{{.Hint}}
{{- if .Subject}}
Предмет: {{.Subject}}.
{{- end}}
{{- if .Details}}

Учень додатково просить: "{{.Details}}". Це уточнення учня, а не частина умови — зверни на нього особливу увагу.
{{- end}}

Побудуй відповідь у форматі Markdown.

Текст завдання з підручника:
{{.Fragment}}
`))

var chatTmpl = template.Must(template.New("chat").Parse(
	`Ти — пояснюєш дитині 4–6 класу. Відповідай дуже просто, українською мовою.

Питання учня:
{{.Question}}

Структура відповіді: коротке пояснення + простий приклад (якщо доречно).
`))

// Task собирает промпт для задания из учебника. Текст задания идёт последним,
// чтобы модель не перепутала инструкции с условием.
func Task(fragment, details string, mode Mode, subject string) string {
	hint := smartHint
	if mode == ModeStrict {
		hint = strictHint
	}
	return render(taskTmpl, map[string]string{
		"Hint":     hint,
		"Subject":  strings.TrimSpace(subject),
		"Details":  strings.TrimSpace(details),
		"Fragment": strings.TrimSpace(fragment),
	})
}

// Chat — свободный вопрос ученика.
func Chat(question string) string {
	return render(chatTmpl, map[string]string{"Question": strings.TrimSpace(question)})
}

func render(t *template.Template, data any) string {
	var buf bytes.Buffer
	// шаблоны статические, данные — строки: ошибка исполнения невозможна
	if err := t.Execute(&buf, data); err != nil {
		panic(err)
	}
	return buf.String()
}
