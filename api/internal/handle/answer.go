package handle

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"task-helper/api/internal/llm"
	"task-helper/api/internal/prompt"
	"task-helper/api/internal/render"
	"task-helper/api/internal/util"
)

type aiError struct {
	Kind   llm.FailureKind `json:"kind"`
	Status int             `json:"status,omitempty"`
}

// aiResult — общая часть ответов strict/smart/chat.
type aiResult struct {
	AIResponse     string   `json:"aiResponse"`
	AIResponseHTML string   `json:"aiResponseHtml"`
	Model          string   `json:"model,omitempty"`
	AIError        *aiError `json:"aiError,omitempty"`
}

func (h *Handle) ask(ctx context.Context, userPrompt string, typ llm.TaskType) aiResult {
	ans := h.ai.Ask(ctx, llm.Request{System: prompt.System, Prompt: userPrompt, Type: typ})

	res := aiResult{AIResponse: ans.Message(), Model: ans.Model}
	if !ans.OK() {
		res.AIError = &aiError{Kind: ans.Failure.Kind, Status: ans.Failure.Status}
		zerolog.Ctx(ctx).Warn().
			Str("kind", string(ans.Failure.Kind)).
			Int("status", ans.Failure.Status).
			Int("attempts", ans.Attempts).
			Msg("ai request failed")
	}
	html, err := render.HTML(util.StripCodeFences(res.AIResponse))
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("render answer")
	}
	res.AIResponseHTML = html
	return res
}

var (
	mathSubjects = []string{"math", "algebra", "geometry", "матем", "алгебр", "геометр"}
	codeSubjects = []string{"informatics", "code", "programming", "інформат", "информат", "програм"}
)

// TaskType сопоставляет предмет из запроса с типом задачи для выбора модели и температуры.
func TaskType(subject string) llm.TaskType {
	s := strings.ToLower(strings.TrimSpace(subject))
	switch {
	case s == "":
		return llm.TypeGeneral
	case containsAny(s, mathSubjects):
		return llm.TypeMath
	case containsAny(s, codeSubjects):
		return llm.TypeCode
	default:
		return llm.TypeGeneral
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
