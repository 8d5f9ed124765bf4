package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"task-helper/api/internal/book"
	"task-helper/api/internal/llm"
	"task-helper/api/internal/prompt"
	"task-helper/api/internal/task"
)

func (r *Router) HandleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cid := msg.Chat.ID
	args := strings.Fields(msg.CommandArguments())
	switch msg.Command() {
	case "start", "help":
		r.send(cid, helpText)
	case "health":
		r.send(cid, r.healthText())
	case "books":
		r.listBooks(cid)
	case "task":
		r.findTask(ctx, cid, args)
	case "engine":
		r.switchEngine(cid, args)
	default:
		r.send(cid, "Невідома команда. /help — список команд")
	}
}

func (r *Router) healthText() string {
	ai := "❌ немає ключа"
	if r.AI.Configured() {
		ai = "✅ " + r.AI.DefaultModel()
	}
	return fmt.Sprintf("✅ OK\nAI: %s (%s)\nOCR: %s", r.AI.Provider(), ai, r.OCR.def.Name())
}

func (r *Router) listBooks(cid int64) {
	books, err := r.Books.List()
	if err != nil {
		r.SendError(cid, err)
		return
	}
	if len(books) == 0 {
		r.send(cid, "Підручників поки немає.")
		return
	}
	var b strings.Builder
	b.WriteString("📚 Підручники:\n")
	for _, bk := range books {
		fmt.Fprintf(&b, "• %s — %s\n", bk.Filename, bk.Title)
	}
	r.send(cid, b.String())
}

// findTask: /task <книга> <номер> [сторінка]
func (r *Router) findTask(ctx context.Context, cid int64, args []string) {
	if len(args) < 2 {
		r.send(cid, "Використання: /task <книга.pdf> <номер> [сторінка]")
		return
	}
	n, err := strconv.Atoi(args[1])
	if err != nil || n <= 0 {
		r.send(cid, "Номер завдання має бути додатним числом.")
		return
	}
	page := 0
	if len(args) > 2 {
		if page, err = strconv.Atoi(args[2]); err != nil || page <= 0 {
			r.send(cid, "Сторінка має бути додатним числом.")
			return
		}
	}

	doc, err := r.Books.Open(args[0])
	if errors.Is(err, book.ErrNotFound) {
		r.send(cid, fmt.Sprintf("Книгу %q не знайдено. /books — список", args[0]))
		return
	}
	if err != nil {
		r.SendError(cid, err)
		return
	}

	var hit task.Hit
	mode := prompt.ModeSmart
	if page > 0 {
		mode = prompt.ModeStrict
		hit, err = task.FindOnPage(doc, page, n)
	} else {
		hit, err = task.FindTask(ctx, doc, n)
	}
	numPages := doc.NumPages()
	_ = doc.Close()

	switch {
	case errors.Is(err, task.ErrPageOutOfRange):
		r.send(cid, fmt.Sprintf("У книзі лише %d сторінок.", numPages))
		return
	case errors.Is(err, task.ErrNotFound) && page > 0:
		r.send(cid, fmt.Sprintf("Завдання %d не знайдено на сторінці %d.", n, page))
		return
	case errors.Is(err, task.ErrNotFound):
		r.send(cid, fmt.Sprintf("Завдання %d не знайдено в книзі.", n))
		return
	case err != nil:
		r.SendError(cid, err)
		return
	}

	r.send(cid, fmt.Sprintf("📖 Сторінка %d\n\n%s", hit.PageIndex, hit.Fragment))
	r.answer(ctx, cid, prompt.Task(hit.Fragment, "", mode, ""), llm.TypeGeneral)
}

func (r *Router) switchEngine(cid int64, args []string) {
	if len(args) == 0 {
		r.send(cid, "Поточний OCR-рушій: "+r.OCR.Get(cid).Name()+
			"\nДоступні: "+strings.Join(r.OCR.Names(), " | "))
		return
	}
	name := strings.ToLower(args[0])
	if !r.OCR.Set(cid, name) {
		r.send(cid, "Невідомий рушій. Доступні: "+strings.Join(r.OCR.Names(), " | "))
		return
	}
	r.send(cid, "✅ OCR-рушій: "+name)
}
