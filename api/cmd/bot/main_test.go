package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"

	"task-helper/api/internal/store"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestRetryDelayFromError(t *testing.T) {
	assert.Equal(t, time.Duration(0), retryDelayFromError(nil))
	assert.Equal(t, 7*time.Second, retryDelayFromError(errors.New("Too Many Requests: retry after 7")))
	assert.Equal(t, 3*time.Second, retryDelayFromError(errors.New("too many requests")))
	assert.Equal(t, 2*time.Second, retryDelayFromError(timeoutErr{}))
	assert.Equal(t, time.Second, retryDelayFromError(errors.New("boom")))
}

type fakeUpdates struct {
	calls  int
	cancel context.CancelFunc
}

func (f *fakeUpdates) GetUpdates(u tgbotapi.UpdateConfig) ([]tgbotapi.Update, error) {
	f.calls++
	switch f.calls {
	case 1:
		return []tgbotapi.Update{{UpdateID: 5}, {UpdateID: 6}}, nil
	default:
		f.cancel()
		if u.Offset != 7 {
			return nil, errors.New("wrong offset")
		}
		return nil, nil
	}
}

func TestRunPollingAdvancesOffset(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := &fakeUpdates{cancel: cancel}

	var got []int
	runPolling(ctx, f, func(u tgbotapi.Update) { got = append(got, u.UpdateID) })

	assert.Equal(t, []int{5, 6}, got)
	assert.Equal(t, 2, f.calls)
}

func TestShortHashStable(t *testing.T) {
	a := shortHash("123:token")
	assert.Len(t, a, 16)
	assert.Equal(t, a, shortHash("123:token"))
	assert.NotEqual(t, a, shortHash("123:other"))
}

func TestSafeDSNSummary(t *testing.T) {
	assert.Equal(t, "host=db port=5432 db=tutor user=u",
		safeDSNSummary("postgres://u:secret@db:5432/tutor?sslmode=disable"))
	assert.Equal(t, "host=db db=tutor user=u", safeDSNSummary("postgres://u:secret@db/tutor"))
}

func TestHealthzFileLog(t *testing.T) {
	rec := httptest.NewRecorder()
	healthz(store.NewFileLog(t.TempDir()+"/ocr.json", 5))(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
