package llm

import (
	"context"
	"fmt"
	"strings"
)

type TaskType string

const (
	TypeGeneral TaskType = "general"
	TypeMath    TaskType = "math"
	TypeCode    TaskType = "code"
	TypeDeep    TaskType = "deep"
	TypeChat    TaskType = "chat"
)

func ParseTaskType(s string) TaskType {
	switch TaskType(strings.ToLower(strings.TrimSpace(s))) {
	case TypeMath:
		return TypeMath
	case TypeCode:
		return TypeCode
	case TypeDeep:
		return TypeDeep
	case TypeChat:
		return TypeChat
	default:
		return TypeGeneral
	}
}

const (
	MaxTokens       = 1024
	tempMath        = 0.4
	tempExploratory = 0.7
)

// Temperature: для математики — более детерминированная генерация.
func (t TaskType) Temperature() float64 {
	if t == TypeMath {
		return tempMath
	}
	return tempExploratory
}

// Request — вход Gateway.Ask. MaxRetries == nil означает значение из конфигурации.
type Request struct {
	System     string
	Prompt     string
	Type       TaskType
	ModelHint  string
	MaxRetries *int
}

// Call — один вызов провайдера с уже выбранной моделью.
type Call struct {
	Model       string
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Reply — ответ провайдера: текстовые части в исходном порядке.
type Reply struct {
	Parts []string
	Model string
}

// Provider — стратегия доступа к конкретному API (openrouter | gemini | openai).
type Provider interface {
	Name() string
	Configured() bool
	// Fallback — жёстко заданная модель для повторных попыток.
	Fallback() string
	Complete(ctx context.Context, call Call) (Reply, error)
}

// StatusError — не-2xx ответ провайдера.
type StatusError struct {
	Provider     string
	Status       int
	Message      string
	Body         string
	InvalidModel bool
}

func (e *StatusError) Error() string {
	body := e.Body
	if body == "" {
		body = e.Message
	}
	return fmt.Sprintf("%s error: %d %s", e.Provider, e.Status, body)
}

type FailureKind string

const (
	FailureNotConfigured FailureKind = "not_configured"
	FailureTransport     FailureKind = "transport"
	FailureRateLimited   FailureKind = "rate_limited"
	FailureServer        FailureKind = "server"
	FailureClient        FailureKind = "client"
	FailureEmpty         FailureKind = "empty"
	FailureCanceled      FailureKind = "canceled"
)

type Failure struct {
	Kind    FailureKind `json:"kind"`
	Status  int         `json:"status,omitempty"`
	Message string      `json:"message"`
}

// Answer — результат Ask. Ошибки провайдера не выбрасываются наверх,
// а описываются в Failure; Message() всегда даёт текст для пользователя.
type Answer struct {
	Text     string
	Model    string
	Attempts int
	Failure  *Failure
}

func (a Answer) OK() bool { return a.Failure == nil }

func (a Answer) Message() string {
	if a.Failure == nil {
		return a.Text
	}
	return a.Failure.Message
}
