package llm

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// BreakerConfig controls when the oracle circuit opens.
type BreakerConfig struct {
	Name                string
	ConsecutiveFailures uint32        // failures in a row before the circuit opens
	OpenTimeout         time.Duration // how long the circuit stays open before probing
	HalfOpenRequests    uint32        // probes allowed while half-open
	Interval            time.Duration // closed-state count reset period, 0 = never
}

// DefaultBreakerConfig trips after 5 consecutive failures and probes again after 30s.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:                "llm",
		ConsecutiveFailures: 5,
		OpenTimeout:         30 * time.Second,
		HalfOpenRequests:    1,
		Interval:            time.Minute,
	}
}

// BreakerClient wraps an LLMClient with a circuit breaker so a failing
// provider is not hammered while it recovers.
type BreakerClient struct {
	next   LLMClient
	cb     *gobreaker.CircuitBreaker[*GenerateResponseResult]
	logger *zap.Logger
}

// NewBreakerClient wraps next with a circuit breaker.
func NewBreakerClient(next LLMClient, cfg BreakerConfig, logger *zap.Logger) *BreakerClient {
	logger = logger.Named("llm.breaker")

	threshold := cfg.ConsecutiveFailures
	if threshold == 0 {
		threshold = DefaultBreakerConfig().ConsecutiveFailures
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.HalfOpenRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// Caller cancellations and bad credentials say nothing about provider health.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var llmErr *Error
			if errors.As(err, &llmErr) {
				return !llmErr.Retryable && llmErr.Type != ErrorTypeUnknown
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &BreakerClient{
		next:   next,
		cb:     gobreaker.NewCircuitBreaker[*GenerateResponseResult](settings),
		logger: logger,
	}
}

// GenerateResponse forwards to the wrapped client unless the circuit is open.
func (b *BreakerClient) GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (*GenerateResponseResult, error) {
	result, err := b.cb.Execute(func() (*GenerateResponseResult, error) {
		return b.next.GenerateResponse(ctx, prompt, systemMessage, temperature)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		b.logger.Debug("LLM request rejected by circuit breaker", zap.String("state", b.cb.State().String()))
		e := NewError(ErrorTypeCircuitOpen, "circuit breaker open", false, err)
		e.Model = b.next.GetModel()
		return nil, e
	}
	return result, err
}

// State reports the breaker state as a string.
func (b *BreakerClient) State() string {
	return b.cb.State().String()
}

// GetModel returns the wrapped client's model.
func (b *BreakerClient) GetModel() string {
	return b.next.GetModel()
}

// GetEndpoint returns the wrapped client's endpoint.
func (b *BreakerClient) GetEndpoint() string {
	return b.next.GetEndpoint()
}
