package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBreakerClient_OpensAfterConsecutiveFailures(t *testing.T) {
	mock := NewMockLLMClient()
	mock.GenerateResponseFunc = func(context.Context, string, string, float64) (*GenerateResponseResult, error) {
		return nil, NewError(ErrorTypeEndpoint, "server error", true, errors.New("HTTP 503"))
	}

	client := NewBreakerClient(mock, BreakerConfig{
		Name:                "test",
		ConsecutiveFailures: 2,
		OpenTimeout:         time.Minute,
		HalfOpenRequests:    1,
	}, zap.NewNop())

	for i := 0; i < 2; i++ {
		_, err := client.GenerateResponse(context.Background(), "p", "s", 0.7)
		require.Error(t, err)
		assert.Equal(t, ErrorTypeEndpoint, GetErrorType(err))
	}
	assert.Equal(t, "open", client.State())

	_, err := client.GenerateResponse(context.Background(), "p", "s", 0.7)
	require.Error(t, err)
	assert.Equal(t, ErrorTypeCircuitOpen, GetErrorType(err))
	assert.False(t, IsRetryable(err))
	assert.Equal(t, 2, mock.Calls(), "open circuit must not reach the provider")
}

func TestBreakerClient_PermanentErrorsDoNotTrip(t *testing.T) {
	mock := NewMockLLMClient()
	mock.GenerateResponseFunc = func(context.Context, string, string, float64) (*GenerateResponseResult, error) {
		return nil, NewError(ErrorTypeAuth, "authentication failed", false, nil)
	}

	client := NewBreakerClient(mock, BreakerConfig{Name: "test", ConsecutiveFailures: 1, OpenTimeout: time.Minute}, zap.NewNop())

	for i := 0; i < 3; i++ {
		_, err := client.GenerateResponse(context.Background(), "p", "s", 0.7)
		assert.Equal(t, ErrorTypeAuth, GetErrorType(err))
	}
	assert.Equal(t, "closed", client.State())
	assert.Equal(t, 3, mock.Calls())
}

func TestBreakerClient_PassesThroughSuccess(t *testing.T) {
	client := NewBreakerClient(NewStaticMockLLMClient(`[]`), DefaultBreakerConfig(), zap.NewNop())

	result, err := client.GenerateResponse(context.Background(), "p", "s", 0.7)
	require.NoError(t, err)
	assert.Equal(t, "[]", result.Content)
	assert.Equal(t, "mock-model", client.GetModel())
}
