package llm

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func TestGeminiErrorClassification(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		invalid bool
	}{
		{&googleapi.Error{Code: 404, Message: "models/gemini-9 is not found for API version v1beta"}, 404, true},
		{&googleapi.Error{Code: 400, Message: "Model name is invalid"}, 400, true},
		{&googleapi.Error{Code: 400, Message: "API key not valid"}, 400, false},
		{fmt.Errorf("wrapped: %w", &googleapi.Error{Code: 503}), 503, false},
	}
	for _, tt := range tests {
		var se *StatusError
		require.True(t, errors.As(geminiError(tt.err), &se), tt.err.Error())
		assert.Equal(t, tt.status, se.Status)
		assert.Equal(t, tt.invalid, se.InvalidModel, tt.err.Error())
		assert.NotEmpty(t, se.Message)
	}

	plain := errors.New("dial tcp: timeout")
	assert.Same(t, plain, geminiError(plain))
}
