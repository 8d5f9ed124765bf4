package handle

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"task-helper/api/internal/book"
	"task-helper/api/internal/llm"
	"task-helper/api/internal/prompt"
	"task-helper/api/internal/task"
	"task-helper/api/internal/util"
)

type taskRequest struct {
	Book       string       `json:"book"`
	Page       util.FlexInt `json:"page"`
	TaskNumber util.FlexInt `json:"taskNumber"`
	Details    string       `json:"details"`
	Subject    string       `json:"subject"`
	Question   string       `json:"question"`
}

type taskResponse struct {
	OK        bool   `json:"ok"`
	Mode      string `json:"mode"`
	Book      string `json:"book"`
	PageIndex int    `json:"pageIndex"`
	Fragment  string `json:"fragment"`
	aiResult
}

type chatResponse struct {
	OK       bool   `json:"ok"`
	Mode     string `json:"mode"`
	Question string `json:"question"`
	aiResult
}

type findResponse struct {
	Mode     string  `json:"mode"`
	Found    bool    `json:"found"`
	Page     int     `json:"page,omitempty"`
	Fragment *string `json:"fragment"`
	Message  string  `json:"message,omitempty"`
}

// openBook отвечает 404/500 сам; nil означает, что ответ уже записан.
func (h *Handle) openBook(w http.ResponseWriter, r *http.Request, name string) *book.Document {
	doc, err := h.books.Open(name)
	if errors.Is(err, book.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Книгу %q не знайдено", name))
		return nil
	}
	if err != nil {
		internalError(w, r, err)
		return nil
	}
	return doc
}

// Strict — точный поиск: книга + страница + номер задания, затем объяснение от AI.
func (h *Handle) Strict(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json: "+err.Error())
		return
	}
	req.Book = strings.TrimSpace(req.Book)
	if req.Book == "" || !req.Page.Set || !req.TaskNumber.Set || req.TaskNumber.Value <= 0 {
		writeError(w, http.StatusBadRequest, "Потрібні параметри: book, page, taskNumber")
		return
	}

	doc := h.openBook(w, r, req.Book)
	if doc == nil {
		return
	}
	numPages := doc.NumPages()
	hit, err := task.FindOnPage(doc, req.Page.Value, req.TaskNumber.Value)
	_ = doc.Close()

	switch {
	case errors.Is(err, task.ErrPageOutOfRange):
		writeJSON(w, http.StatusNotFound, errorBody{
			Error:     fmt.Sprintf("Page %d is out of range 1..%d", req.Page.Value, numPages),
			PageIndex: &req.Page.Value,
			NumPages:  numPages,
		})
		return
	case errors.Is(err, task.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{
			Error:     fmt.Sprintf("Task %d not found on page %d", req.TaskNumber.Value, req.Page.Value),
			PageIndex: &req.Page.Value,
			NumPages:  numPages,
		})
		return
	case err != nil:
		internalError(w, r, err)
		return
	}

	ctx, cancel := h.aiContext(r)
	defer cancel()
	res := h.ask(ctx, prompt.Task(hit.Fragment, req.Details, prompt.ModeStrict, req.Subject), TaskType(req.Subject))

	writeJSON(w, http.StatusOK, taskResponse{
		OK:        true,
		Mode:      string(prompt.ModeStrict),
		Book:      req.Book,
		PageIndex: hit.PageIndex,
		Fragment:  hit.Fragment,
		aiResult:  res,
	})
}

// Smart — поиск задания по всей книге; без книги/номера работает как чат.
func (h *Handle) Smart(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json: "+err.Error())
		return
	}
	req.Book = strings.TrimSpace(req.Book)
	if req.Book == "" || !req.TaskNumber.Set {
		h.chat(w, r, req)
		return
	}
	if req.TaskNumber.Value <= 0 {
		writeError(w, http.StatusBadRequest, "taskNumber має бути додатним числом")
		return
	}

	doc := h.openBook(w, r, req.Book)
	if doc == nil {
		return
	}
	numPages := doc.NumPages()
	hit, err := task.FindTask(r.Context(), doc, req.TaskNumber.Value)
	_ = doc.Close()

	switch {
	case errors.Is(err, task.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{
			Error:    fmt.Sprintf("Task %d not found in book %s", req.TaskNumber.Value, req.Book),
			NumPages: numPages,
		})
		return
	case err != nil:
		internalError(w, r, err)
		return
	}

	ctx, cancel := h.aiContext(r)
	defer cancel()
	res := h.ask(ctx, prompt.Task(hit.Fragment, req.Details, prompt.ModeSmart, req.Subject), TaskType(req.Subject))

	writeJSON(w, http.StatusOK, taskResponse{
		OK:        true,
		Mode:      string(prompt.ModeSmart),
		Book:      req.Book,
		PageIndex: hit.PageIndex,
		Fragment:  hit.Fragment,
		aiResult:  res,
	})
}

func (h *Handle) chat(w http.ResponseWriter, r *http.Request, req taskRequest) {
	q := strings.TrimSpace(req.Question)
	if q == "" {
		q = strings.TrimSpace(req.Details)
	}
	if q == "" {
		writeError(w, http.StatusBadRequest, "Немає тексту питання")
		return
	}

	ctx, cancel := h.aiContext(r)
	defer cancel()
	typ := TaskType(req.Subject)
	if typ == llm.TypeGeneral {
		typ = llm.TypeChat
	}
	res := h.ask(ctx, prompt.Chat(q), typ)

	writeJSON(w, http.StatusOK, chatResponse{OK: true, Mode: "chat", Question: q, aiResult: res})
}

// Find — только поиск фрагмента, без обращения к AI.
func (h *Handle) Find(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json: "+err.Error())
		return
	}
	req.Book = strings.TrimSpace(req.Book)
	if req.Book == "" || !req.TaskNumber.Set || req.TaskNumber.Value <= 0 {
		writeError(w, http.StatusBadRequest, "Параметри 'book' і 'taskNumber' обов'язкові")
		return
	}

	doc := h.openBook(w, r, req.Book)
	if doc == nil {
		return
	}
	defer doc.Close()

	if req.Page.Set {
		hit, err := task.FindOnPage(doc, req.Page.Value, req.TaskNumber.Value)
		switch {
		case errors.Is(err, task.ErrPageOutOfRange):
			writeJSON(w, http.StatusNotFound, errorBody{
				Error:     fmt.Sprintf("Page %d is out of range 1..%d", req.Page.Value, doc.NumPages()),
				PageIndex: &req.Page.Value,
				NumPages:  doc.NumPages(),
			})
		case errors.Is(err, task.ErrNotFound):
			writeJSON(w, http.StatusOK, findResponse{Mode: "strict", Page: req.Page.Value})
		case err != nil:
			internalError(w, r, err)
		default:
			writeJSON(w, http.StatusOK, findResponse{Mode: "strict", Found: true, Page: hit.PageIndex, Fragment: &hit.Fragment})
		}
		return
	}

	hit, err := task.FindTask(r.Context(), doc, req.TaskNumber.Value)
	switch {
	case errors.Is(err, task.ErrNotFound):
		writeJSON(w, http.StatusOK, findResponse{Mode: "smart", Message: "Завдання не знайдено"})
	case err != nil:
		internalError(w, r, err)
	default:
		writeJSON(w, http.StatusOK, findResponse{Mode: "smart", Found: true, Page: hit.PageIndex, Fragment: &hit.Fragment})
	}
}
