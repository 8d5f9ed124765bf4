package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"
)

const (
	DefaultMaxRetries = 2
	DefaultRetryBase  = 500 * time.Millisecond

	noAnswerText = "AI не повернув текст відповіді."
)

type Options struct {
	DefaultModel string
	// Overrides — модели по типу задачи (math/code/deep), только для первой попытки.
	Overrides  map[TaskType]string
	MaxRetries int
	RetryBase  time.Duration
	// Timer подменяется в тестах, чтобы не спать.
	Timer retry.Timer
}

type Gateway struct {
	provider     Provider
	defaultModel string
	overrides    map[TaskType]string
	maxRetries   int
	base         time.Duration
	timer        retry.Timer
}

func NewGateway(p Provider, opt Options) *Gateway {
	if opt.MaxRetries < 0 {
		opt.MaxRetries = DefaultMaxRetries
	}
	if opt.RetryBase <= 0 {
		opt.RetryBase = DefaultRetryBase
	}
	return &Gateway{
		provider:     p,
		defaultModel: strings.TrimSpace(opt.DefaultModel),
		overrides:    opt.Overrides,
		maxRetries:   opt.MaxRetries,
		base:         opt.RetryBase,
		timer:        opt.Timer,
	}
}

func (g *Gateway) Provider() string { return g.provider.Name() }

func (g *Gateway) Configured() bool { return g.provider.Configured() }

// DefaultModel — модель первой попытки для запросов без подсказки и без override.
func (g *Gateway) DefaultModel() string {
	if g.defaultModel != "" {
		return g.defaultModel
	}
	return g.provider.Fallback()
}

// pickModel: попытка 0 — hint, затем override по типу, затем модель по умолчанию;
// попытки >= 1 — всегда fallback провайдера.
func (g *Gateway) pickModel(attempt int, typ TaskType, hint string) string {
	if attempt > 0 {
		return g.provider.Fallback()
	}
	if h := strings.TrimSpace(hint); h != "" {
		return h
	}
	if m := strings.TrimSpace(g.overrides[typ]); m != "" {
		return m
	}
	return g.DefaultModel()
}

// attemptError привязывает ошибку к модели, на которой она случилась.
type attemptError struct {
	model string
	err   error
}

func (e *attemptError) Error() string { return e.err.Error() }
func (e *attemptError) Unwrap() error { return e.err }

// classify решает, повторять ли попытку. Отмену смотрим по внешнему ctx:
// таймаут http.Client тоже DeadlineExceeded, но это сетевой сбой и он ретраится.
func (g *Gateway) classify(ctx context.Context, err error) (retryable, immediate bool) {
	var ae *attemptError
	if !errors.As(err, &ae) || ctx.Err() != nil {
		return false, false
	}
	var se *StatusError
	if !errors.As(ae.err, &se) {
		return true, false
	}
	switch {
	case se.InvalidModel && ae.model != g.provider.Fallback():
		return true, true
	case se.Status == http.StatusTooManyRequests, se.Status >= 500:
		return true, false
	default:
		return false, false
	}
}

// Ask отправляет промпт провайдеру. Никогда не возвращает ошибку: любой сбой
// описывается в Answer.Failure.
func (g *Gateway) Ask(ctx context.Context, req Request) Answer {
	name := g.provider.Name()
	if !g.provider.Configured() {
		return Answer{Failure: &Failure{
			Kind:    FailureNotConfigured,
			Message: fmt.Sprintf("AI: відсутній ключ API для %s у змінних середовища.", name),
		}}
	}

	if err := ctx.Err(); err != nil {
		return Answer{Failure: failureOf(ctx, name, err)}
	}

	maxRetries := g.maxRetries
	if req.MaxRetries != nil && *req.MaxRetries >= 0 {
		maxRetries = *req.MaxRetries
	}

	attempt := 0
	var model string
	call := func() (Reply, error) {
		model = g.pickModel(attempt, req.Type, req.ModelHint)
		attempt++
		rep, err := g.provider.Complete(ctx, Call{
			Model:       model,
			System:      req.System,
			Prompt:      req.Prompt,
			Temperature: req.Type.Temperature(),
			MaxTokens:   MaxTokens,
		})
		if err != nil {
			log.Warn().Err(err).Str("provider", name).Str("model", model).Int("attempt", attempt-1).Msg("llm call failed")
			return Reply{}, &attemptError{model: model, err: err}
		}
		return rep, nil
	}

	opts := []retry.Option{
		retry.Context(ctx),
		retry.Attempts(uint(maxRetries + 1)),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			ok, _ := g.classify(ctx, err)
			return ok
		}),
		retry.DelayType(func(n uint, err error, _ *retry.Config) time.Duration {
			if _, immediate := g.classify(ctx, err); immediate {
				return 0
			}
			// retry-go передаёт номер уже сделанной попытки (с 1): ждём base*2^(n-1)
			if n == 0 {
				return g.base
			}
			return g.base << (n - 1)
		}),
		retry.OnRetry(func(n uint, err error) {
			log.Debug().Uint("attempt", n).Err(err).Msg("llm retry")
		}),
	}
	if g.timer != nil {
		opts = append(opts, retry.WithTimer(g.timer))
	}

	rep, err := retry.DoWithData(call, opts...)
	if err != nil {
		return Answer{Model: model, Attempts: attempt, Failure: failureOf(ctx, name, err)}
	}

	text := strings.TrimSpace(strings.Join(rep.Parts, "\n"))
	used := model
	if rep.Model != "" {
		used = rep.Model
	}
	if text == "" {
		return Answer{Model: used, Attempts: attempt, Failure: &Failure{Kind: FailureEmpty, Message: noAnswerText}}
	}
	return Answer{Text: text, Model: used, Attempts: attempt}
}

func failureOf(ctx context.Context, provider string, err error) *Failure {
	if cerr := ctx.Err(); cerr != nil {
		return &Failure{Kind: FailureCanceled, Message: fmt.Sprintf("%s: запит перервано (%v)", provider, cerr)}
	}
	var se *StatusError
	if errors.As(err, &se) {
		kind := FailureClient
		switch {
		case se.Status == http.StatusTooManyRequests:
			kind = FailureRateLimited
		case se.Status >= 500:
			kind = FailureServer
		}
		return &Failure{Kind: kind, Status: se.Status, Message: se.Error()}
	}
	return &Failure{Kind: FailureTransport, Message: fmt.Sprintf("%s fetch error: %v", provider, err)}
}
